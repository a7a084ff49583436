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

type GamificationRepository interface {
	FindUser(ctx context.Context, userID uint) (*entity.User, error)
	FindUserForUpdate(ctx context.Context, userID uint) (*entity.User, error)
	UpdatePointsAndLevel(ctx context.Context, userID uint, points, level int) error
	CreatePointLog(ctx context.Context, log *entity.PointLog) error
	IncrementCoins(ctx context.Context, userID uint, amount int) error
	DecrementCoinsIfEnough(ctx context.Context, userID uint, amount int) (bool, error)
	SetSubscription(ctx context.Context, userID uint, expiresAt *time.Time) error
	FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]entity.User, error)
}

type gamificationRepository struct {
	db *gorm.DB
}

func NewGamificationRepository(db *gorm.DB) GamificationRepository {
	return &gamificationRepository{db: db}
}

func (r *gamificationRepository) FindUser(ctx context.Context, userID uint) (*entity.User, error) {
	var user entity.User
	if err := database.Conn(ctx, r.db).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserForUpdate locks the user row until the surrounding transaction ends.
func (r *gamificationRepository) FindUserForUpdate(ctx context.Context, userID uint) (*entity.User, error) {
	var user entity.User
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *gamificationRepository) UpdatePointsAndLevel(ctx context.Context, userID uint, points, level int) error {
	return database.Conn(ctx, r.db).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]any{"points": points, "level": level}).Error
}

func (r *gamificationRepository) CreatePointLog(ctx context.Context, log *entity.PointLog) error {
	return database.Conn(ctx, r.db).Create(log).Error
}

func (r *gamificationRepository) IncrementCoins(ctx context.Context, userID uint, amount int) error {
	return database.Conn(ctx, r.db).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("coins", gorm.Expr("coins + ?", amount)).Error
}

// DecrementCoinsIfEnough debits in a single conditional statement so that two
// concurrent debits can never take the balance below zero.
func (r *gamificationRepository) DecrementCoinsIfEnough(ctx context.Context, userID uint, amount int) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&entity.User{}).
		Where("id = ? AND coins >= ?", userID, amount).
		UpdateColumn("coins", gorm.Expr("coins - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gamificationRepository) SetSubscription(ctx context.Context, userID uint, expiresAt *time.Time) error {
	res := database.Conn(ctx, r.db).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]any{
			"is_subscribed":           true,
			"subscription_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *gamificationRepository) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]entity.User, error) {
	var users []entity.User
	err := database.Conn(ctx, r.db).
		Where("is_subscribed = ? AND subscription_expires_at > ? AND subscription_expires_at <= ?", true, from, to).
		Order("subscription_expires_at ASC").
		Find(&users).Error
	return users, err
}
