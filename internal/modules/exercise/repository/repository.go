package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExerciseFilter struct {
	Kind   string
	Limit  int
	Offset int
}

// Attempt is the scoreboard state written after a submission.
type Attempt struct {
	LastScore         int
	BestScore         int
	CompletedAttempts int
	CompletedAt       time.Time
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *entity.Exercise) error
	FindByID(ctx context.Context, id uint) (*entity.Exercise, error)
	FindWithQuestions(ctx context.Context, id uint) (*entity.Exercise, error)
	FindForUpdate(ctx context.Context, id uint) (*entity.Exercise, error)
	FindByUser(ctx context.Context, userID uint, filter ExerciseFilter) ([]entity.Exercise, int64, error)
	RecordAttempt(ctx context.Context, id uint, attempt Attempt) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type exerciseRepository struct {
	db *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

// Create inserts the exercise and its questions together.
func (r *exerciseRepository) Create(ctx context.Context, exercise *entity.Exercise) error {
	return database.Conn(ctx, r.db).Create(exercise).Error
}

func (r *exerciseRepository) FindByID(ctx context.Context, id uint) (*entity.Exercise, error) {
	var exercise entity.Exercise
	if err := database.Conn(ctx, r.db).First(&exercise, id).Error; err != nil {
		return nil, translate(err)
	}
	return &exercise, nil
}

func (r *exerciseRepository) FindWithQuestions(ctx context.Context, id uint) (*entity.Exercise, error) {
	var exercise entity.Exercise
	err := database.Conn(ctx, r.db).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&exercise, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &exercise, nil
}

// FindForUpdate locks the exercise row and loads its questions.
func (r *exerciseRepository) FindForUpdate(ctx context.Context, id uint) (*entity.Exercise, error) {
	var exercise entity.Exercise
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&exercise, id).Error
	if err != nil {
		return nil, translate(err)
	}

	err = database.Conn(ctx, r.db).
		Where("exercise_id = ?", id).
		Order("position ASC").
		Find(&exercise.Questions).Error
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *exerciseRepository) FindByUser(ctx context.Context, userID uint, filter ExerciseFilter) ([]entity.Exercise, int64, error) {
	query := database.Conn(ctx, r.db).Model(&entity.Exercise{}).Where("user_id = ?", userID)
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exercises []entity.Exercise
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&exercises).Error
	if err != nil {
		return nil, 0, err
	}
	return exercises, total, nil
}

func (r *exerciseRepository) RecordAttempt(ctx context.Context, id uint, attempt Attempt) error {
	res := database.Conn(ctx, r.db).Model(&entity.Exercise{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"last_score":         attempt.LastScore,
			"best_score":         attempt.BestScore,
			"completed_attempts": attempt.CompletedAttempts,
			"last_completed_at":  attempt.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// Delete removes the exercise and its questions.
func (r *exerciseRepository) Delete(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exercise_id = ?", id).Delete(&entity.ExerciseQuestion{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Exercise{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return nil
	})
}

func (r *exerciseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := database.Conn(ctx, r.db).Model(&entity.Exercise{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
