package entity

import "time"

const ClassCodeLength = 6

// Class is a study group students join with a short code.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Code      string    `gorm:"size:6;uniqueIndex;not null" json:"code"`
	OwnerID   uint      `gorm:"index;not null" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type ClassMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_class_member,priority:1;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ClassID   uint      `gorm:"uniqueIndex:idx_class_member,priority:2;index;not null" json:"class_id"`
	Class     Class     `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"joined_at"`
}
