package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/studyhub/internal/entity"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/internal/modules/mission/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"go.uber.org/zap"
)

type CompletionResult struct {
	Success          bool `json:"success"`
	AlreadyCompleted bool `json:"already_completed"`
	PointsReward     int  `json:"points_reward"`
	CoinReward       *int `json:"coin_reward,omitempty"`
}

type MissionService interface {
	TodayMissions() []Mission
	CheckMissionProgress(ctx context.Context, userID uint, mission Mission) (*MissionProgress, error)
	TodayProgress(ctx context.Context, userID uint) ([]MissionProgress, error)
	// CompleteMission records and rewards a mission without checking
	// eligibility. Callers facing users go through ClaimMission.
	CompleteMission(ctx context.Context, userID uint, missionID string, pointsReward int) (*CompletionResult, error)
	ClaimMission(ctx context.Context, userID uint, missionID string) (*CompletionResult, error)
}

type missionService struct {
	repo     repository.MissionRepository
	catalog  Catalog
	points   gamificationService.PointsService
	coins    gamificationService.CoinService
	tx       database.Transactor
	notifier gamificationService.Notifier
	clock    func() time.Time
}

func NewMissionService(
	repo repository.MissionRepository,
	catalog Catalog,
	points gamificationService.PointsService,
	coins gamificationService.CoinService,
	tx database.Transactor,
	notifier gamificationService.Notifier,
	clock func() time.Time,
) MissionService {
	if clock == nil {
		clock = time.Now
	}
	return &missionService{
		repo:     repo,
		catalog:  catalog,
		points:   points,
		coins:    coins,
		tx:       tx,
		notifier: notifier,
		clock:    clock,
	}
}

func (s *missionService) TodayMissions() []Mission {
	return s.catalog.ForDate(s.clock())
}

func (s *missionService) CompleteMission(ctx context.Context, userID uint, missionID string, pointsReward int) (*CompletionResult, error) {
	day := s.clock().Format(entity.DayLayout)

	var result *CompletionResult
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindCompletion(ctx, userID, missionID, day)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &CompletionResult{AlreadyCompleted: true}
			return nil
		}

		err = s.repo.CreateCompletion(ctx, &entity.MissionCompletion{
			UserID:      userID,
			MissionID:   missionID,
			CompletedOn: day,
		})
		if err != nil {
			return err
		}

		_, err = s.points.AwardPointsFor(ctx, userID, pointsReward, gamificationService.PointRef{
			ActionType:     entity.ActionMissionCompleted,
			ReferenceID:    missionID,
			ReferenceTable: "missions",
		})
		if err != nil {
			return err
		}

		result = &CompletionResult{Success: true, PointsReward: pointsReward}
		if reward := s.catalog.CoinReward(missionID); reward > 0 {
			if err := s.coins.AddCoins(ctx, userID, reward); err != nil {
				return err
			}
			result.CoinReward = &reward
		}

		database.AfterCommit(ctx, func() {
			s.notifyCompleted(context.WithoutCancel(ctx), userID, missionID, pointsReward, result.CoinReward)
		})
		return nil
	})
	if err != nil {
		// a concurrent request inserted the same completion first
		if errors.Is(err, apperror.ErrAlreadyCompleted) {
			return &CompletionResult{AlreadyCompleted: true}, nil
		}
		return nil, err
	}

	return result, nil
}

// ClaimMission completes a mission on behalf of the user after checking that
// it is part of today's rotation and that its target was reached. The check
// and the completion share one transaction.
func (s *missionService) ClaimMission(ctx context.Context, userID uint, missionID string) (*CompletionResult, error) {
	mission, ok := s.findToday(missionID)
	if !ok {
		return nil, apperror.New(http.StatusNotFound, "mission not available today", apperror.ErrNotFound)
	}

	var result *CompletionResult
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		progress, err := s.CheckMissionProgress(ctx, userID, mission)
		if err != nil {
			return err
		}
		if progress.Completed {
			return errMissionAlreadyCompleted
		}
		if progress.Progress < mission.Target {
			return apperror.New(http.StatusBadRequest,
				fmt.Sprintf("mission not completed yet: %d/%d", progress.Progress, mission.Target),
				apperror.ErrBadRequest)
		}

		res, err := s.CompleteMission(ctx, userID, mission.ID, mission.PointsReward)
		if err != nil {
			return err
		}
		if res.AlreadyCompleted {
			return errMissionAlreadyCompleted
		}
		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyCompleted) {
			return nil, errMissionAlreadyCompleted
		}
		return nil, err
	}

	return result, nil
}

var errMissionAlreadyCompleted = apperror.New(http.StatusBadRequest, "mission already completed today", apperror.ErrAlreadyCompleted)

func (s *missionService) findToday(missionID string) (Mission, bool) {
	for _, m := range s.TodayMissions() {
		if m.ID == missionID {
			return m, true
		}
	}
	return Mission{}, false
}

func (s *missionService) notifyCompleted(ctx context.Context, userID uint, missionID string, points int, coins *int) {
	if s.notifier == nil {
		return
	}

	title := missionID
	if m, ok := s.catalog.Find(missionID); ok {
		title = m.Title
	}

	data := map[string]any{"mission_id": missionID, "points": points}
	msg := fmt.Sprintf("Mission completed: %s (+%d points)", title, points)
	if coins != nil {
		data["coins"] = *coins
		msg = fmt.Sprintf("Mission completed: %s (+%d points, +%d coins)", title, points, *coins)
	}

	if err := s.notifier.Notify(ctx, userID, entity.NotificationMissionCompleted, msg, data); err != nil {
		zap.L().Warn("failed to send mission notification", zap.Uint("user_id", userID), zap.String("mission_id", missionID), zap.Error(err))
	}
}
