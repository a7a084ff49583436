package entity

import (
	"time"
)

const (
	ActionExerciseCompleted = "exercise_completed"
	ActionMissionCompleted  = "mission_completed"
	ActionAdminAdjustment   = "admin_adjustment"
)

type PointLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index:idx_point_logs_user_date,priority:1;not null" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ActionType     string    `gorm:"size:50;not null" json:"action_type"`
	Points         int       `gorm:"not null" json:"points"`
	ReferenceID    string    `gorm:"size:64" json:"reference_id"`
	ReferenceTable string    `gorm:"size:50" json:"reference_table"`
	CreatedAt      time.Time `gorm:"index:idx_point_logs_user_date,priority:2;index" json:"created_at"`
}

// MissionCompletion marks a daily mission as done for one calendar day.
type MissionCompletion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_mission_completion_day,priority:1" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MissionID   string    `gorm:"size:50;not null;uniqueIndex:idx_mission_completion_day,priority:2" json:"mission_id"`
	CompletedOn string    `gorm:"size:10;not null;uniqueIndex:idx_mission_completion_day,priority:3" json:"completed_on"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const DayLayout = "2006-01-02"

// DayWindow returns [start of day, start of next day) for t in t's location.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
