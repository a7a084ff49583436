package service

import (
	"time"
)

type MissionType string

const (
	MissionCompleteQuiz      MissionType = "complete_quiz"
	MissionCompleteTrueFalse MissionType = "complete_true_false"
	MissionCreateNote        MissionType = "create_note"
	MissionEditNote          MissionType = "edit_note"
	MissionEarnPoints        MissionType = "earn_points"
)

type Mission struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         MissionType `json:"type"`
	Target       int         `json:"target"`
	PointsReward int         `json:"points_reward"`
	CoinReward   int         `json:"coin_reward,omitempty"`
}

// Catalog is the immutable mission configuration loaded at startup.
type Catalog struct {
	Missions    []Mission
	CoinRewards map[string]int
	PerDay      int
}

// DefaultCatalog returns the hand-authored missions and their coin rewards.
func DefaultCatalog() Catalog {
	return Catalog{
		PerDay: 3,
		Missions: []Mission{
			{
				ID:           "quiz_1",
				Title:        "Complete 1 quiz",
				Description:  "Complete at least one quiz today to earn bonus points",
				Type:         MissionCompleteQuiz,
				Target:       1,
				PointsReward: 20,
			},
			{
				ID:           "quiz_3",
				Title:        "Complete 3 quizzes",
				Description:  "Complete at least three quizzes today for a bigger reward",
				Type:         MissionCompleteQuiz,
				Target:       3,
				PointsReward: 50,
				CoinReward:   20,
			},
			{
				ID:           "true_false_1",
				Title:        "Complete 1 true/false set",
				Description:  "Complete at least one true/false exercise today",
				Type:         MissionCompleteTrueFalse,
				Target:       1,
				PointsReward: 20,
			},
			{
				ID:           "true_false_3",
				Title:        "Complete 3 true/false sets",
				Description:  "Complete at least three true/false exercises today",
				Type:         MissionCompleteTrueFalse,
				Target:       3,
				PointsReward: 50,
				CoinReward:   20,
			},
			{
				ID:           "create_note",
				Title:        "Create a note",
				Description:  "Create a new note today, by hand or with AI",
				Type:         MissionCreateNote,
				Target:       1,
				PointsReward: 15,
			},
			{
				ID:           "edit_note",
				Title:        "Edit a note",
				Description:  "Edit at least one existing note today",
				Type:         MissionEditNote,
				Target:       1,
				PointsReward: 15,
			},
			{
				ID:           "earn_50_points",
				Title:        "Earn 50 points",
				Description:  "Earn at least 50 points today with quizzes or exercises",
				Type:         MissionEarnPoints,
				Target:       50,
				PointsReward: 25,
				CoinReward:   10,
			},
			{
				ID:           "earn_100_points",
				Title:        "Earn 100 points",
				Description:  "Earn at least 100 points today for a special reward",
				Type:         MissionEarnPoints,
				Target:       100,
				PointsReward: 60,
				CoinReward:   30,
			},
		},
		CoinRewards: map[string]int{
			"quiz_1":          5,
			"true_false_1":    5,
			"quiz_3":          20,
			"true_false_3":    20,
			"create_note":     3,
			"edit_note":       2,
			"earn_50_points":  10,
			"earn_100_points": 30,
		},
	}
}

// ForDate picks PerDay consecutive missions starting at (weekday*PerDay) mod len,
// wrapping around the catalog. Sunday is weekday 0.
func (c Catalog) ForDate(date time.Time) []Mission {
	n := len(c.Missions)
	if n == 0 || c.PerDay <= 0 {
		return nil
	}

	perDay := c.PerDay
	if perDay > n {
		perDay = n
	}

	start := (int(date.Weekday()) * c.PerDay) % n
	selected := make([]Mission, 0, perDay)
	for i := 0; i < perDay; i++ {
		selected = append(selected, c.Missions[(start+i)%n])
	}
	return selected
}

func (c Catalog) Find(missionID string) (Mission, bool) {
	for _, m := range c.Missions {
		if m.ID == missionID {
			return m, true
		}
	}
	return Mission{}, false
}

// CoinReward resolves the reward table first, then the mission's own field.
// Zero means no coin reward.
func (c Catalog) CoinReward(missionID string) int {
	if reward, ok := c.CoinRewards[missionID]; ok && reward > 0 {
		return reward
	}
	if m, ok := c.Find(missionID); ok && m.CoinReward > 0 {
		return m.CoinReward
	}
	return 0
}
