package service

import (
	"context"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/internal/modules/admin/dto"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	noteService "anoa.com/studyhub/internal/modules/note/service"
	userDto "anoa.com/studyhub/internal/modules/user/dto"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	userService "anoa.com/studyhub/internal/modules/user/service"
	"go.uber.org/zap"
)

type AdminService interface {
	GetAllUsers(ctx context.Context, query userDto.UserListQuery) (*userDto.PaginatedUsersResponse, error)
	DeleteUser(ctx context.Context, actorID, userID uint) error
	AwardPoints(ctx context.Context, actorID, userID uint, input dto.AwardPointsInput) (*dto.BalanceResponse, error)
	AddCoins(ctx context.Context, actorID, userID uint, input dto.AddCoinsInput) (*dto.BalanceResponse, error)
	DeleteNote(ctx context.Context, actorID, noteID uint) error
}

type adminService struct {
	userRepo userRepo.UserRepository
	users    userService.UserService
	points   gamificationService.PointsService
	coins    gamificationService.CoinService
	notes    noteService.NoteService
}

func NewAdminService(
	userRepo userRepo.UserRepository,
	users userService.UserService,
	points gamificationService.PointsService,
	coins gamificationService.CoinService,
	notes noteService.NoteService,
) AdminService {
	return &adminService{
		userRepo: userRepo,
		users:    users,
		points:   points,
		coins:    coins,
		notes:    notes,
	}
}

func (s *adminService) GetAllUsers(ctx context.Context, query userDto.UserListQuery) (*userDto.PaginatedUsersResponse, error) {
	return s.users.ListUsers(ctx, query)
}

func (s *adminService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if err := s.users.DeleteUser(ctx, actorID, userID); err != nil {
		return err
	}
	zap.L().Info("admin deleted user", zap.Uint("admin_id", actorID), zap.Uint("user_id", userID))
	return nil
}

func (s *adminService) AwardPoints(ctx context.Context, actorID, userID uint, input dto.AwardPointsInput) (*dto.BalanceResponse, error) {
	result, err := s.points.AwardPointsFor(ctx, userID, input.Points, gamificationService.PointRef{
		ActionType:     entity.ActionAdminAdjustment,
		ReferenceID:    input.Reason,
		ReferenceTable: "admin",
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("admin awarded points",
		zap.Uint("admin_id", actorID),
		zap.Uint("user_id", userID),
		zap.Int("points", input.Points),
	)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceResponse{
		UserID:    user.ID,
		Points:    result.NewPoints,
		Level:     result.NewLevel,
		Coins:     user.Coins,
		LeveledUp: result.LeveledUp,
	}, nil
}

func (s *adminService) AddCoins(ctx context.Context, actorID, userID uint, input dto.AddCoinsInput) (*dto.BalanceResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.coins.AddCoins(ctx, userID, input.Coins); err != nil {
		return nil, err
	}

	zap.L().Info("admin added coins",
		zap.Uint("admin_id", actorID),
		zap.Uint("user_id", userID),
		zap.Int("coins", input.Coins),
	)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceResponse{
		UserID: user.ID,
		Points: user.Points,
		Level:  user.Level,
		Coins:  user.Coins,
	}, nil
}

func (s *adminService) DeleteNote(ctx context.Context, actorID, noteID uint) error {
	if err := s.notes.AdminDeleteNote(ctx, noteID); err != nil {
		return err
	}
	zap.L().Info("admin deleted note", zap.Uint("admin_id", actorID), zap.Uint("note_id", noteID))
	return nil
}
