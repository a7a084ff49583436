package dto

import (
	"time"

	commonDto "anoa.com/studyhub/pkg/dto"
	"github.com/google/uuid"
)

type ProductResponse struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Price      string `json:"price"`
	Currency   string `json:"currency"`
	Coins      int    `json:"coins,omitempty"`
	Months     int    `json:"months,omitempty"`
}

// WebhookEvent is what the payment provider posts once a checkout settles.
type WebhookEvent struct {
	SessionID   string `json:"session_id" binding:"required,max=255"`
	Status      string `json:"status" binding:"required"`
	UserID      uint   `json:"user_id" binding:"required"`
	ProductType string `json:"product_type" binding:"required"`
}

type GrantRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	ProductType string `json:"product_type" binding:"required"`
}

type PurchaseListQuery struct {
	commonDto.PageQuery
	UserID uint `form:"user_id"`
}

type PurchaseResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uint      `json:"user_id"`
	ProductType string    `json:"product_type"`
	ProductName string    `json:"product_name"`
	SessionID   string    `json:"session_id"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Coins       int       `json:"coins"`
	Months      int       `json:"months"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

type ApplyResult struct {
	Purchase              *PurchaseResponse `json:"purchase"`
	Applied               bool              `json:"applied"`
	SubscriptionExpiresAt *time.Time        `json:"subscription_expires_at,omitempty"`
}

type PurchaseStats struct {
	TotalPurchases int64  `json:"total_purchases"`
	TotalRevenue   string `json:"total_revenue"`
	Currency       string `json:"currency"`
	CoinsSold      int64  `json:"coins_sold"`
	Subscriptions  int64  `json:"subscriptions"`
}

type PaginatedPurchasesResponse struct {
	Data  []PurchaseResponse       `json:"data"`
	Meta  commonDto.PaginationMeta `json:"meta"`
	Stats *PurchaseStats           `json:"stats,omitempty"`
}
