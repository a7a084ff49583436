package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurchaseSourceWebhook = "webhook"
	PurchaseSourceAdmin   = "admin"
)

type Purchase struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProductType string    `gorm:"size:50;not null" json:"product_type"`
	SessionID   string    `gorm:"size:255;uniqueIndex;not null" json:"session_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Coins       int       `gorm:"not null;default:0" json:"coins"`
	Months      int       `gorm:"not null;default:0" json:"months"`
	Source      string    `gorm:"size:20;not null" json:"source"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
