package model

type NotificationType string

const (
	NotificationAchievement NotificationType = "achievement_unlocked"
	NotificationSystem      NotificationType = "system"
)

// Notification 站内通知，下游推送投递不在本服务职责内
// swagger:model Notification
type Notification struct {
	BaseModel
	UserID    uint             `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Title     string           `gorm:"size:100;not null" json:"title"`
	Content   string           `gorm:"size:255" json:"content"`
	Type      NotificationType `gorm:"size:50;not null" json:"type"`
	RelatedID uint             `gorm:"type:bigint unsigned" json:"relatedId,omitempty"`
	ActionURL string           `gorm:"size:255" json:"actionUrl,omitempty"`
	Read      bool             `gorm:"default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
