package service

import (
	"context"
	"fmt"
	"net/http"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/gamification/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"go.uber.org/zap"
)

// Notifier delivers user notifications. Implemented by the notification module.
type Notifier interface {
	Notify(ctx context.Context, userID uint, notifType, message string, data map[string]any) error
}

type AwardResult struct {
	NewPoints int  `json:"new_points"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

// PointRef describes what a point award was for. It ends up in point_logs.
type PointRef struct {
	ActionType     string
	ReferenceID    string
	ReferenceTable string
}

type PointsService interface {
	AwardPoints(ctx context.Context, userID uint, pointsToAdd int) (*AwardResult, error)
	AwardPointsFor(ctx context.Context, userID uint, pointsToAdd int, ref PointRef) (*AwardResult, error)
}

type pointsService struct {
	repo     repository.GamificationRepository
	tx       database.Transactor
	notifier Notifier
}

func NewPointsService(repo repository.GamificationRepository, tx database.Transactor, notifier Notifier) PointsService {
	return &pointsService{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
	}
}

func (s *pointsService) AwardPoints(ctx context.Context, userID uint, pointsToAdd int) (*AwardResult, error) {
	return s.AwardPointsFor(ctx, userID, pointsToAdd, PointRef{})
}

func (s *pointsService) AwardPointsFor(ctx context.Context, userID uint, pointsToAdd int, ref PointRef) (*AwardResult, error) {
	if pointsToAdd < 0 {
		return nil, apperror.New(http.StatusBadRequest, "points to add must not be negative", apperror.ErrInvalidInput)
	}

	var result *AwardResult
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		user, err := s.repo.FindUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		previousLevel := user.Level
		user.AddPoints(pointsToAdd)

		if err := s.repo.UpdatePointsAndLevel(ctx, user.ID, user.Points, user.Level); err != nil {
			return err
		}

		if pointsToAdd > 0 {
			log := &entity.PointLog{
				UserID:         user.ID,
				ActionType:     ref.ActionType,
				Points:         pointsToAdd,
				ReferenceID:    ref.ReferenceID,
				ReferenceTable: ref.ReferenceTable,
			}
			if log.ActionType == "" {
				log.ActionType = entity.ActionAdminAdjustment
			}
			if err := s.repo.CreatePointLog(ctx, log); err != nil {
				return err
			}
		}

		result = &AwardResult{
			NewPoints: user.Points,
			NewLevel:  user.Level,
			LeveledUp: user.Level > previousLevel,
		}

		if result.LeveledUp {
			newLevel := user.Level
			database.AfterCommit(ctx, func() {
				s.notifyLevelUp(context.WithoutCancel(ctx), userID, newLevel)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *pointsService) notifyLevelUp(ctx context.Context, userID uint, level int) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("You reached level %d!", level)
	if err := s.notifier.Notify(ctx, userID, entity.NotificationLevelUp, msg, map[string]any{"level": level}); err != nil {
		zap.L().Warn("failed to send level up notification", zap.Uint("user_id", userID), zap.Error(err))
	}
}
