package service

import (
	"context"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/gamification/dto"
	"anoa.com/studyhub/internal/modules/gamification/repository"
)

type StatusService interface {
	GetStatus(ctx context.Context, userID uint) (*dto.GamificationStatus, error)
}

type statusService struct {
	repo  repository.GamificationRepository
	clock func() time.Time
}

func NewStatusService(repo repository.GamificationRepository, clock func() time.Time) StatusService {
	if clock == nil {
		clock = time.Now
	}
	return &statusService{repo: repo, clock: clock}
}

func (s *statusService) GetStatus(ctx context.Context, userID uint) (*dto.GamificationStatus, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildStatus(user, s.clock()), nil
}

// BuildStatus derives the dashboard snapshot from a user row.
func BuildStatus(user *entity.User, now time.Time) *dto.GamificationStatus {
	intoLevel := user.Points % entity.PointsPerLevel
	status := &dto.GamificationStatus{
		Points:            user.Points,
		Level:             user.Level,
		PointsToNextLevel: entity.PointsToNextLevel(user.Points),
		LevelProgress:     float64(intoLevel) / float64(entity.PointsPerLevel) * 100,
		Coins:             user.Coins,
		IsSubscribed:      user.SubscriptionActive(now),
	}
	if status.IsSubscribed {
		status.SubscriptionExpiresAt = user.SubscriptionExpiresAt
	}
	return status
}
