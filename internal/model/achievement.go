package model

import (
	"time"
)

type CriteriaType string

const (
	CriteriaTotalCompletions CriteriaType = "total_completions"
	CriteriaStreakDays       CriteriaType = "streak_days"
	CriteriaPointsEarned     CriteriaType = "points_earned"
)

// Achievement 成就定义，运行期只读，由迁移时的种子数据维护
// swagger:model Achievement
type Achievement struct {
	BaseModel
	Name          string       `gorm:"size:100;not null" json:"name"`
	Description   string       `gorm:"size:255" json:"description"`
	Icon          string       `gorm:"size:255" json:"icon"`
	CriteriaType  CriteriaType `gorm:"size:50;not null;index" json:"criteriaType"`
	CriteriaValue int64        `gorm:"not null" json:"criteriaValue"`
	PointsReward  int          `gorm:"default:0" json:"pointsReward"`
	Hidden        bool         `gorm:"default:false" json:"hidden"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// AchievementProgress 某用户对某成就的累计进度，颁发后删除。
// 不带软删除：颁发事务中必须物理删除，(user_id, achievement_id) 唯一。
// swagger:model AchievementProgress
type AchievementProgress struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint      `gorm:"type:bigint unsigned;not null;index:idx_user_achievement_progress,unique" json:"userId"`
	AchievementID   uint      `gorm:"type:bigint unsigned;not null;index:idx_user_achievement_progress,unique" json:"achievementId"`
	CurrentValue    int64     `gorm:"not null;default:0" json:"currentValue"`
	TargetValue     int64     `gorm:"not null" json:"targetValue"`
	PercentComplete int       `gorm:"not null;default:0" json:"percentComplete"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"lastUpdated"`
}

func (AchievementProgress) TableName() string {
	return "achievement_progress"
}

// Recalc 用增量之后的 current_value 重算完成百分比，向下取整，封顶 100
func (p *AchievementProgress) Recalc() {
	if p.TargetValue <= 0 {
		p.PercentComplete = 0
		return
	}
	pct := int(p.CurrentValue * 100 / p.TargetValue)
	if pct > 100 {
		pct = 100
	}
	p.PercentComplete = pct
}

// UserAchievement 成就颁发记录，每个 (user_id, achievement_id) 至多一条，只增不改
// swagger:model UserAchievement
type UserAchievement struct {
	BaseModel
	UserID        uint      `gorm:"type:bigint unsigned;not null;index:idx_user_achievement_award,unique" json:"userId"`
	AchievementID uint      `gorm:"type:bigint unsigned;not null;index:idx_user_achievement_award,unique" json:"achievementId"`
	AwardedAt     time.Time `gorm:"not null" json:"awardedAt"`
	Metadata      string    `gorm:"type:text" json:"metadata,omitempty"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
