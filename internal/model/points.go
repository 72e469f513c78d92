package model

import (
	"time"
)

type PointsTransactionType string

const (
	PointsAchievementReward PointsTransactionType = "ACHIEVEMENT_REWARD"
	PointsAdminAdjust       PointsTransactionType = "ADMIN_ADJUST"
)

// PointsTransaction 积分流水，只追加
// swagger:model PointsTransaction
type PointsTransaction struct {
	UUIDBase
	UserID      uint                  `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Points      int                   `gorm:"not null" json:"points"`
	Type        PointsTransactionType `gorm:"size:50;not null" json:"type"`
	Description string                `gorm:"size:255" json:"description"`
	ReferenceID uint                  `gorm:"type:bigint unsigned" json:"referenceId,omitempty"` // 来源成就等
}

func (PointsTransaction) TableName() string {
	return "points_transactions"
}

// UserPointsBalance 用户积分总额，只在颁发事务内以原子自增方式更新，
// 任一时刻等于该用户全部流水之和
// swagger:model UserPointsBalance
type UserPointsBalance struct {
	UserID      uint      `gorm:"primaryKey;type:bigint unsigned" json:"userId"`
	TotalPoints int       `gorm:"not null;default:0" json:"totalPoints"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (UserPointsBalance) TableName() string {
	return "user_points_balances"
}
