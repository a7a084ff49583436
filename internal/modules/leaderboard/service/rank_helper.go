package service

// Weekly activity thresholds, in points earned over the last 7 days.
const (
	WeeklyOnFire   = 100
	WeeklyTrending = 50
	WeeklyActive   = 20
)

// ActivityLabel describes recent effort. It never affects level, which is
// always derived from all-time points.
func ActivityLabel(weeklyPoints int) string {
	switch {
	case weeklyPoints >= WeeklyOnFire:
		return "🔥 On Fire!"
	case weeklyPoints >= WeeklyTrending:
		return "⚡ Trending"
	case weeklyPoints >= WeeklyActive:
		return "📈 Active"
	default:
		return ""
	}
}
