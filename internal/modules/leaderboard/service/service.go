package service

import (
	"context"
	"time"

	"anoa.com/studyhub/internal/entity"
	leaderboardDto "anoa.com/studyhub/internal/modules/leaderboard/dto"
	"anoa.com/studyhub/internal/modules/leaderboard/repository"
)

const (
	TimeframeAllTime = "all_time"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"

	DefaultLimit = 10
	MaxLimit     = 50
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error)
}

type leaderboardService struct {
	repo  repository.LeaderboardRepository
	clock func() time.Time
}

func NewLeaderboardService(repo repository.LeaderboardRepository, clock func() time.Time) LeaderboardService {
	if clock == nil {
		clock = time.Now
	}
	return &leaderboardService{repo: repo, clock: clock}
}

// GetLeaderboard ranks students for the timeframe. weekly covers the last 7
// days and monthly the last 30; anything else is all-time.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int, timeframe string) ([]leaderboardDto.LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	now := s.clock()
	weekStart := now.AddDate(0, 0, -7)

	switch timeframe {
	case TimeframeWeekly:
		return s.byPeriod(ctx, weekStart, weekStart, limit)
	case TimeframeMonthly:
		return s.byPeriod(ctx, now.AddDate(0, 0, -30), weekStart, limit)
	default:
		return s.allTime(ctx, weekStart, limit)
	}
}

func (s *leaderboardService) allTime(ctx context.Context, weekStart time.Time, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	users, err := s.repo.TopAllTime(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	weekly, err := s.repo.ScoresSince(ctx, ids, weekStart)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, newEntry(i+1, u, u.Points, weekly[u.ID]))
	}
	return entries, nil
}

func (s *leaderboardService) byPeriod(ctx context.Context, since, weekStart time.Time, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	scores, err := s.repo.TopSince(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.UserID)
	}
	users, err := s.repo.FindUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	weekly, err := s.repo.ScoresSince(ctx, ids, weekStart)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(scores))
	for _, sc := range scores {
		u, ok := users[sc.UserID]
		if !ok {
			continue
		}
		entries = append(entries, newEntry(len(entries)+1, u, sc.Score, weekly[sc.UserID]))
	}
	return entries, nil
}

func newEntry(position int, u entity.User, periodPoints, weeklyPoints int) leaderboardDto.LeaderboardEntry {
	return leaderboardDto.LeaderboardEntry{
		Position:     position,
		UserID:       u.ID,
		Name:         u.Name,
		Points:       u.Points,
		Level:        entity.LevelForPoints(u.Points),
		PeriodPoints: periodPoints,
		WeeklyPoints: weeklyPoints,
		WeeklyLabel:  ActivityLabel(weeklyPoints),
	}
}
