package dto

// LeaderboardEntry is one ranked student. Position is 1-based; PeriodPoints
// is the score the board was ordered by.
type LeaderboardEntry struct {
	Position     int    `json:"position"`
	UserID       uint   `json:"user_id"`
	Name         string `json:"name"`
	Points       int    `json:"points"`
	Level        int    `json:"level"`
	PeriodPoints int    `json:"period_points"`
	WeeklyPoints int    `json:"weekly_points"`
	WeeklyLabel  string `json:"weekly_label"`
}

type LeaderboardQuery struct {
	Timeframe string `form:"timeframe" binding:"omitempty,oneof=all_time weekly monthly"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=50"`
}
