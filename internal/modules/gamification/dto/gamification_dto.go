package dto

import "time"

// GamificationStatus is the user's progression snapshot shown on the dashboard.
type GamificationStatus struct {
	Points                int        `json:"points"`
	Level                 int        `json:"level"`
	PointsToNextLevel     int        `json:"points_to_next_level"`
	LevelProgress         float64    `json:"level_progress"` // Percentage
	Coins                 int        `json:"coins"`
	IsSubscribed          bool       `json:"is_subscribed"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
}

type CoinsResponse struct {
	Coins      int  `json:"coins"`
	Subscribed bool `json:"subscribed"`
}

type AccessQuery struct {
	Feature string `form:"feature" binding:"required,oneof=generate_note generate_quiz generate_true_false"`
}

type AccessResponse struct {
	Feature string `json:"feature"`
	Cost    int    `json:"cost"`
	CanUse  bool   `json:"can_use"`
	Reason  string `json:"reason,omitempty"`
}
