package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
)

type MissionRepository interface {
	FindCompletion(ctx context.Context, userID uint, missionID, day string) (*entity.MissionCompletion, error)
	CreateCompletion(ctx context.Context, completion *entity.MissionCompletion) error
	ListCompletions(ctx context.Context, userID uint, day string) ([]entity.MissionCompletion, error)
	CountExercisesCompleted(ctx context.Context, userID uint, kind string, from, to time.Time) (int64, error)
	CountNotesCreated(ctx context.Context, userID uint, from, to time.Time) (int64, error)
	CountNotesEdited(ctx context.Context, userID uint, from, to time.Time) (int64, error)
	SumExercisePoints(ctx context.Context, userID uint, from, to time.Time) (int64, error)
}

type missionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) MissionRepository {
	return &missionRepository{db: db}
}

// FindCompletion returns nil without error when the mission is still open.
func (r *missionRepository) FindCompletion(ctx context.Context, userID uint, missionID, day string) (*entity.MissionCompletion, error) {
	var completion entity.MissionCompletion
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND mission_id = ? AND completed_on = ?", userID, missionID, day).
		First(&completion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &completion, nil
}

// CreateCompletion maps a unique index hit to apperror.ErrAlreadyCompleted.
func (r *missionRepository) CreateCompletion(ctx context.Context, completion *entity.MissionCompletion) error {
	if err := database.Conn(ctx, r.db).Create(completion).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperror.ErrAlreadyCompleted
		}
		return err
	}
	return nil
}

func (r *missionRepository) ListCompletions(ctx context.Context, userID uint, day string) ([]entity.MissionCompletion, error) {
	var completions []entity.MissionCompletion
	err := database.Conn(ctx, r.db).
		Where("user_id = ? AND completed_on = ?", userID, day).
		Find(&completions).Error
	return completions, err
}

// completedInWindow matches exercises finished in [from, to). Rows written
// before last_completed_at existed fall back to created_at plus at least one attempt.
func completedInWindow(db *gorm.DB, from, to time.Time) *gorm.DB {
	return db.Where(
		"(last_completed_at IS NOT NULL AND last_completed_at >= ? AND last_completed_at < ?) OR "+
			"(last_completed_at IS NULL AND created_at >= ? AND created_at < ? AND completed_attempts > 0)",
		from, to, from, to,
	)
}

func (r *missionRepository) CountExercisesCompleted(ctx context.Context, userID uint, kind string, from, to time.Time) (int64, error) {
	var count int64
	conn := database.Conn(ctx, r.db)
	err := conn.Model(&entity.Exercise{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Where(completedInWindow(conn, from, to)).
		Count(&count).Error
	return count, err
}

func (r *missionRepository) CountNotesCreated(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Note{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Count(&count).Error
	return count, err
}

func (r *missionRepository) CountNotesEdited(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Note{}).
		Where("user_id = ? AND updated_at >= ? AND updated_at < ? AND updated_at <> created_at", userID, from, to).
		Count(&count).Error
	return count, err
}

// SumExercisePoints approximates today's earned points as last_score * 10 over
// exercises completed in the window. Repeated attempts only count the last score.
func (r *missionRepository) SumExercisePoints(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var total int64
	conn := database.Conn(ctx, r.db)
	err := conn.Model(&entity.Exercise{}).
		Select("COALESCE(SUM(last_score * 10), 0)").
		Where("user_id = ? AND last_score IS NOT NULL AND completed_attempts > 0", userID).
		Where(completedInWindow(conn, from, to)).
		Scan(&total).Error
	return total, err
}
