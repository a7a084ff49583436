package service

import (
	"context"
	"errors"
	"net/http"

	"anoa.com/studyhub/internal/modules/gamification/repository"
	"anoa.com/studyhub/pkg/apperror"
)

type CoinService interface {
	// GetCoins returns 0 for an unknown user.
	GetCoins(ctx context.Context, userID uint) (int, error)
	AddCoins(ctx context.Context, userID uint, amount int) error
	// DeductCoins returns false, leaving the balance untouched, when the user
	// is unknown or cannot afford amount.
	DeductCoins(ctx context.Context, userID uint, amount int) (bool, error)
}

type coinService struct {
	repo repository.GamificationRepository
}

func NewCoinService(repo repository.GamificationRepository) CoinService {
	return &coinService{repo: repo}
}

func (s *coinService) GetCoins(ctx context.Context, userID uint) (int, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return user.Coins, nil
}

func (s *coinService) AddCoins(ctx context.Context, userID uint, amount int) error {
	if amount < 0 {
		return apperror.New(http.StatusBadRequest, "coin amount must not be negative", apperror.ErrInvalidInput)
	}
	if amount == 0 {
		return nil
	}
	return s.repo.IncrementCoins(ctx, userID, amount)
}

func (s *coinService) DeductCoins(ctx context.Context, userID uint, amount int) (bool, error) {
	if amount < 0 {
		return false, apperror.New(http.StatusBadRequest, "coin amount must not be negative", apperror.ErrInvalidInput)
	}
	return s.repo.DecrementCoinsIfEnough(ctx, userID, amount)
}
