package service

import (
	"context"

	exerciseRepo "anoa.com/studyhub/internal/modules/exercise/repository"
	noteRepo "anoa.com/studyhub/internal/modules/note/repository"
	paymentRepo "anoa.com/studyhub/internal/modules/payment/repository"
	paymentService "anoa.com/studyhub/internal/modules/payment/service"
	"anoa.com/studyhub/internal/modules/stat/dto"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	"github.com/shopspring/decimal"
)

type StatService interface {
	GetTotalUsers(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*dto.StatsResponse, error)
}

type statService struct {
	userRepo     userRepo.UserRepository
	noteRepo     noteRepo.NoteRepository
	exerciseRepo exerciseRepo.ExerciseRepository
	purchaseRepo paymentRepo.PurchaseRepository
}

func NewStatService(
	userRepo userRepo.UserRepository,
	noteRepo noteRepo.NoteRepository,
	exerciseRepo exerciseRepo.ExerciseRepository,
	purchaseRepo paymentRepo.PurchaseRepository,
) StatService {
	return &statService{
		userRepo:     userRepo,
		noteRepo:     noteRepo,
		exerciseRepo: exerciseRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (s *statService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

func (s *statService) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := s.exerciseRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.purchaseRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := s.userRepo.LevelDistribution(ctx)
	if err != nil {
		return nil, err
	}
	if levels == nil {
		levels = []userRepo.LevelCount{}
	}

	return &dto.StatsResponse{
		TotalUsers:        users,
		TotalNotes:        notes,
		TotalExercises:    exercises,
		TotalPurchases:    totals.Purchases,
		Subscriptions:     totals.Subscriptions,
		CoinsSold:         totals.CoinsSold,
		Revenue:           decimal.New(totals.RevenueCents, -2).StringFixed(2),
		Currency:          paymentService.Currency,
		LevelDistribution: levels,
	}, nil
}
