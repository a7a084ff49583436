package repository

import (
	"context"
	"errors"

	"anoa.com/studyhub/internal/entity"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	"gorm.io/gorm"
)

type PurchaseFilter struct {
	UserID uint
	Limit  int
	Offset int
}

// PurchaseTotals aggregates every recorded purchase.
type PurchaseTotals struct {
	Purchases     int64
	RevenueCents  int64
	CoinsSold     int64
	Subscriptions int64
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Purchase, error)
	List(ctx context.Context, filter PurchaseFilter) ([]entity.Purchase, int64, error)
	Totals(ctx context.Context) (*PurchaseTotals, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create maps a reused session id to apperror.ErrConflict.
func (r *purchaseRepository) Create(ctx context.Context, purchase *entity.Purchase) error {
	if err := database.Conn(ctx, r.db).Create(purchase).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperror.ErrConflict
		}
		return err
	}
	return nil
}

func (r *purchaseRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Purchase, error) {
	var purchase entity.Purchase
	err := database.Conn(ctx, r.db).Where("session_id = ?", sessionID).First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) List(ctx context.Context, filter PurchaseFilter) ([]entity.Purchase, int64, error) {
	query := database.Conn(ctx, r.db).Model(&entity.Purchase{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var purchases []entity.Purchase
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&purchases).Error
	if err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

func (r *purchaseRepository) Totals(ctx context.Context) (*PurchaseTotals, error) {
	var totals PurchaseTotals
	err := database.Conn(ctx, r.db).Model(&entity.Purchase{}).
		Select(`COUNT(*) AS purchases,
			COALESCE(SUM(amount_cents), 0) AS revenue_cents,
			COALESCE(SUM(coins), 0) AS coins_sold,
			COALESCE(SUM(CASE WHEN months > 0 THEN 1 ELSE 0 END), 0) AS subscriptions`).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
