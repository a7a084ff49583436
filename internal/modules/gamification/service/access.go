package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"anoa.com/studyhub/internal/modules/gamification/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"go.uber.org/zap"
)

const (
	FeatureGenerateNote      = "generate_note"
	FeatureGenerateQuiz      = "generate_quiz"
	FeatureGenerateTrueFalse = "generate_true_false"
)

var featurePrices = map[string]int{
	FeatureGenerateNote:      10,
	FeatureGenerateQuiz:      5,
	FeatureGenerateTrueFalse: 5,
}

// FeatureCost returns the coin price of a metered AI feature.
func FeatureCost(feature string) (int, bool) {
	cost, ok := featurePrices[feature]
	return cost, ok
}

type AccessDecision struct {
	CanUse bool   `json:"can_use"`
	Reason string `json:"reason,omitempty"`
}

// ChargeResult is what Charge took from the user; Refund gives it back.
type ChargeResult struct {
	UserID  uint   `json:"-"`
	Feature string `json:"feature"`
	Cost    int    `json:"cost"`
	Charged bool   `json:"charged"`
}

type AccessService interface {
	CanUseAI(ctx context.Context, userID uint, cost int) (*AccessDecision, error)
	Charge(ctx context.Context, userID uint, feature string) (*ChargeResult, error)
	Refund(ctx context.Context, charge *ChargeResult) error
}

type accessService struct {
	repo          repository.GamificationRepository
	tx            database.Transactor
	coins         CoinService
	subscriptions SubscriptionService
}

func NewAccessService(repo repository.GamificationRepository, tx database.Transactor, coins CoinService, subscriptions SubscriptionService) AccessService {
	return &accessService{
		repo:          repo,
		tx:            tx,
		coins:         coins,
		subscriptions: subscriptions,
	}
}

func (s *accessService) CanUseAI(ctx context.Context, userID uint, cost int) (*AccessDecision, error) {
	subscribed, err := s.subscriptions.IsSubscribed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if subscribed {
		return &AccessDecision{CanUse: true}, nil
	}

	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &AccessDecision{CanUse: false, Reason: "user not found"}, nil
		}
		return nil, err
	}

	if user.Coins < cost {
		return &AccessDecision{CanUse: false, Reason: insufficientCoinsReason(cost, user.Coins)}, nil
	}

	return &AccessDecision{CanUse: true}, nil
}

// Charge checks the allowance and debits in one step. Subscribers are not
// charged. A failed debit leaves the balance untouched.
func (s *accessService) Charge(ctx context.Context, userID uint, feature string) (*ChargeResult, error) {
	cost, ok := FeatureCost(feature)
	if !ok {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("unknown feature %q", feature), apperror.ErrInvalidInput)
	}

	result := &ChargeResult{UserID: userID, Feature: feature, Cost: cost}
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		user, err := s.repo.FindUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
			}
			return err
		}

		subscribed, err := s.subscriptions.IsSubscribed(ctx, userID)
		if err != nil {
			return err
		}
		if subscribed {
			return nil
		}

		ok, err := s.coins.DeductCoins(ctx, userID, cost)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(http.StatusPaymentRequired, insufficientCoinsReason(cost, user.Coins), apperror.ErrInsufficientCoins)
		}
		result.Charged = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *accessService) Refund(ctx context.Context, charge *ChargeResult) error {
	if charge == nil || !charge.Charged {
		return nil
	}
	if err := s.coins.AddCoins(ctx, charge.UserID, charge.Cost); err != nil {
		return err
	}
	zap.L().Info("refunded ai charge",
		zap.Uint("user_id", charge.UserID),
		zap.String("feature", charge.Feature),
		zap.Int("coins", charge.Cost),
	)
	charge.Charged = false
	return nil
}

func insufficientCoinsReason(need, have int) string {
	return fmt.Sprintf("insufficient coins: need %d, have %d", need, have)
}
