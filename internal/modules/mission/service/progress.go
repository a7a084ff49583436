package service

import (
	"context"
	"time"

	"anoa.com/studyhub/internal/entity"
)

type MissionProgress struct {
	Mission     Mission `json:"mission"`
	Progress    int     `json:"progress"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at"`
	CoinReward  *int    `json:"coin_reward,omitempty"`
}

func (s *missionService) CheckMissionProgress(ctx context.Context, userID uint, mission Mission) (*MissionProgress, error) {
	now := s.clock()
	day := now.Format(entity.DayLayout)
	from, to := entity.DayWindow(now)

	completion, err := s.repo.FindCompletion(ctx, userID, mission.ID, day)
	if err != nil {
		return nil, err
	}

	raw, err := s.rawProgress(ctx, userID, mission.Type, from, to)
	if err != nil {
		return nil, err
	}

	result := &MissionProgress{
		Mission:   mission,
		Progress:  min(raw, mission.Target),
		Completed: completion != nil,
	}
	if completion != nil {
		completedOn := completion.CompletedOn
		result.CompletedAt = &completedOn
	}

	result.Mission.CoinReward = 0
	if reward := s.catalog.CoinReward(mission.ID); reward > 0 {
		result.CoinReward = &reward
		result.Mission.CoinReward = reward
	}

	return result, nil
}

func (s *missionService) rawProgress(ctx context.Context, userID uint, missionType MissionType, from, to time.Time) (int, error) {
	var (
		count int64
		err   error
	)

	switch missionType {
	case MissionCompleteQuiz:
		count, err = s.repo.CountExercisesCompleted(ctx, userID, entity.ExerciseKindQuiz, from, to)
	case MissionCompleteTrueFalse:
		count, err = s.repo.CountExercisesCompleted(ctx, userID, entity.ExerciseKindTrueFalse, from, to)
	case MissionCreateNote:
		count, err = s.repo.CountNotesCreated(ctx, userID, from, to)
	case MissionEditNote:
		count, err = s.repo.CountNotesEdited(ctx, userID, from, to)
	case MissionEarnPoints:
		count, err = s.repo.SumExercisePoints(ctx, userID, from, to)
	}
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (s *missionService) TodayProgress(ctx context.Context, userID uint) ([]MissionProgress, error) {
	missions := s.TodayMissions()
	progress := make([]MissionProgress, 0, len(missions))
	for _, m := range missions {
		p, err := s.CheckMissionProgress(ctx, userID, m)
		if err != nil {
			return nil, err
		}
		progress = append(progress, *p)
	}
	return progress, nil
}
