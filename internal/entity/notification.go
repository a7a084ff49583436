package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationLevelUp              = "level_up"
	NotificationMissionCompleted     = "mission_completed"
	NotificationSubscriptionExpiring = "subscription_expiring"
	NotificationPurchase             = "purchase"
)

type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint              `gorm:"index:idx_notifications_user_read,priority:1;not null" json:"user_id"`
	User      User              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Type      string            `gorm:"size:50;not null" json:"type"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	IsRead    bool              `gorm:"index:idx_notifications_user_read,priority:2;default:false" json:"is_read"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
