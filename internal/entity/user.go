package entity

import (
	"time"
)

const (
	PointsPerLevel = 100
	WelcomeCoins   = 50
)

type User struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Email                 string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name                  string     `gorm:"size:100;not null" json:"name"`
	PasswordHash          string     `gorm:"size:255;not null" json:"-"`
	IsAdmin               bool       `gorm:"not null;default:false" json:"is_admin"`
	Points                int        `gorm:"not null;default:0" json:"points"`
	Level                 int        `gorm:"not null;default:1" json:"level"`
	Coins                 int        `gorm:"not null;default:0" json:"coins"`
	IsSubscribed          bool       `gorm:"not null;default:false" json:"is_subscribed"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LevelForPoints returns floor(points/100)+1.
func LevelForPoints(points int) int {
	if points < 0 {
		return 1
	}
	return points/PointsPerLevel + 1
}

// PointsToNextLevel returns how many points are missing until the next level.
func PointsToNextLevel(points int) int {
	return LevelForPoints(points)*PointsPerLevel - points
}

// AddPoints applies delta and keeps Level consistent with Points.
func (u *User) AddPoints(delta int) {
	u.Points += delta
	u.Level = LevelForPoints(u.Points)
}

// SubscriptionActive reports whether the subscription grants access at now.
// A subscription without expiry is permanent.
func (u *User) SubscriptionActive(now time.Time) bool {
	if !u.IsSubscribed {
		return false
	}
	if u.SubscriptionExpiresAt == nil {
		return true
	}
	return u.SubscriptionExpiresAt.After(now)
}
