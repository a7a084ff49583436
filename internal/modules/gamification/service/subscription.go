package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/gamification/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
)

type SubscriptionService interface {
	// IsSubscribed never clears an expired flag; expiry is evaluated on read.
	IsSubscribed(ctx context.Context, userID uint) (bool, error)
	Activate(ctx context.Context, userID uint, months int) (*time.Time, error)
	ExpiringWithin(ctx context.Context, window time.Duration) ([]entity.User, error)
}

type subscriptionService struct {
	repo  repository.GamificationRepository
	tx    database.Transactor
	clock func() time.Time
}

func NewSubscriptionService(repo repository.GamificationRepository, tx database.Transactor, clock func() time.Time) SubscriptionService {
	if clock == nil {
		clock = time.Now
	}
	return &subscriptionService{
		repo:  repo,
		tx:    tx,
		clock: clock,
	}
}

func (s *subscriptionService) IsSubscribed(ctx context.Context, userID uint) (bool, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.SubscriptionActive(s.clock()), nil
}

// Activate extends an active subscription or starts a new one from now.
// A permanent subscription is left untouched.
func (s *subscriptionService) Activate(ctx context.Context, userID uint, months int) (*time.Time, error) {
	if months <= 0 {
		return nil, apperror.New(http.StatusBadRequest, "months must be positive", apperror.ErrInvalidInput)
	}

	var expiresAt *time.Time
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		user, err := s.repo.FindUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		now := s.clock()
		if user.IsSubscribed && user.SubscriptionExpiresAt == nil {
			return nil
		}

		start := now
		if user.SubscriptionActive(now) {
			start = *user.SubscriptionExpiresAt
		}
		end := start.AddDate(0, months, 0)
		expiresAt = &end

		return s.repo.SetSubscription(ctx, userID, expiresAt)
	})
	if err != nil {
		return nil, err
	}
	return expiresAt, nil
}

func (s *subscriptionService) ExpiringWithin(ctx context.Context, window time.Duration) ([]entity.User, error) {
	now := s.clock()
	return s.repo.FindSubscriptionsExpiringBetween(ctx, now, now.Add(window))
}
