package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/studyhub/internal/entity"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/internal/modules/payment/dto"
	"anoa.com/studyhub/internal/modules/payment/repository"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	"anoa.com/studyhub/pkg/apperror"
	"anoa.com/studyhub/pkg/database"
	commonDto "anoa.com/studyhub/pkg/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusPaid is the only webhook status that grants the product.
const StatusPaid = "paid"

var errDuplicateSession = errors.New("purchase session already recorded")

type PaymentService interface {
	Products() []dto.ProductResponse
	ApplyPurchase(ctx context.Context, userID uint, productType, sessionID, source string) (*dto.ApplyResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*dto.ApplyResult, error)
	Grant(ctx context.Context, req dto.GrantRequest) (*dto.ApplyResult, error)
	ListPurchases(ctx context.Context, query dto.PurchaseListQuery) (*dto.PaginatedPurchasesResponse, error)
	UserPurchases(ctx context.Context, userID uint, query commonDto.PageQuery) (*dto.PaginatedPurchasesResponse, error)
}

type paymentService struct {
	repo          repository.PurchaseRepository
	users         userRepo.UserRepository
	coins         gamificationService.CoinService
	subscriptions gamificationService.SubscriptionService
	tx            database.Transactor
	notifier      gamificationService.Notifier
	webhookSecret string
	clock         func() time.Time
}

func NewPaymentService(
	repo repository.PurchaseRepository,
	users userRepo.UserRepository,
	coins gamificationService.CoinService,
	subscriptions gamificationService.SubscriptionService,
	tx database.Transactor,
	notifier gamificationService.Notifier,
	webhookSecret string,
	clock func() time.Time,
) PaymentService {
	if clock == nil {
		clock = time.Now
	}
	return &paymentService{
		repo:          repo,
		users:         users,
		coins:         coins,
		subscriptions: subscriptions,
		tx:            tx,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		clock:         clock,
	}
}

func (s *paymentService) Products() []dto.ProductResponse {
	list := Products()
	res := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		res = append(res, dto.ProductResponse{
			Type:       p.Type,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Price:      p.Price().StringFixed(2),
			Currency:   Currency,
			Coins:      p.Coins,
			Months:     p.Months,
		})
	}
	return res
}

// ApplyPurchase credits the product once per session id. Replaying a
// session returns the recorded purchase with Applied false.
func (s *paymentService) ApplyPurchase(ctx context.Context, userID uint, productType, sessionID, source string) (*dto.ApplyResult, error) {
	product, ok := FindProduct(productType)
	if !ok {
		return nil, apperror.New(http.StatusBadRequest, fmt.Sprintf("unknown product %q", productType), apperror.ErrInvalidInput)
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperror.New(http.StatusBadRequest, "session id is required", apperror.ErrInvalidInput)
	}

	var result *dto.ApplyResult
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindBySessionID(ctx, sessionID)
		if err == nil {
			result, err = replayed(existing, userID)
			return err
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		if _, err := s.users.FindByID(ctx, userID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
			}
			return err
		}

		purchase := &entity.Purchase{
			UserID:      userID,
			ProductType: product.Type,
			SessionID:   sessionID,
			AmountCents: product.PriceCents,
			Coins:       product.Coins,
			Months:      product.Months,
			Source:      source,
			CreatedAt:   s.clock(),
		}
		if source == entity.PurchaseSourceAdmin {
			purchase.AmountCents = 0
		}
		if err := s.repo.Create(ctx, purchase); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				return errDuplicateSession
			}
			return err
		}

		result = &dto.ApplyResult{Purchase: toPurchaseResponse(purchase), Applied: true}
		if product.IsSubscription() {
			expiresAt, err := s.subscriptions.Activate(ctx, userID, product.Months)
			if err != nil {
				return err
			}
			result.SubscriptionExpiresAt = expiresAt
		} else if err := s.coins.AddCoins(ctx, userID, product.Coins); err != nil {
			return err
		}

		database.AfterCommit(ctx, func() {
			s.notifyPurchase(context.WithoutCancel(ctx), userID, product)
		})
		return nil
	})
	if errors.Is(err, errDuplicateSession) {
		// lost a race with a concurrent delivery of the same session
		existing, findErr := s.repo.FindBySessionID(ctx, sessionID)
		if findErr != nil {
			return nil, findErr
		}
		return replayed(existing, userID)
	}
	if err != nil {
		return nil, err
	}

	if result.Applied {
		zap.L().Info("purchase applied",
			zap.Uint("user_id", userID),
			zap.String("product", product.Type),
			zap.String("session_id", sessionID),
			zap.String("source", source),
		)
	}
	return result, nil
}

func replayed(existing *entity.Purchase, userID uint) (*dto.ApplyResult, error) {
	if existing.UserID != userID {
		return nil, apperror.New(http.StatusConflict, "session already used by another user", apperror.ErrConflict)
	}
	return &dto.ApplyResult{Purchase: toPurchaseResponse(existing), Applied: false}, nil
}

// HandleWebhook verifies and applies a provider event. Events that are not
// paid are acknowledged with a nil result.
func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (*dto.ApplyResult, error) {
	if s.webhookSecret == "" {
		return nil, apperror.New(http.StatusServiceUnavailable, "payments are not configured", apperror.ErrUnavailable)
	}
	if !VerifySignature(s.webhookSecret, body, signature) {
		return nil, apperror.New(http.StatusUnauthorized, "invalid signature", apperror.ErrUnauthorized)
	}

	var event dto.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperror.New(http.StatusBadRequest, "invalid webhook payload", apperror.ErrBadRequest)
	}
	if event.SessionID == "" || event.UserID == 0 || event.ProductType == "" {
		return nil, apperror.New(http.StatusBadRequest, "session_id, user_id and product_type are required", apperror.ErrBadRequest)
	}

	if !strings.EqualFold(event.Status, StatusPaid) {
		zap.L().Info("ignoring unpaid checkout",
			zap.String("session_id", event.SessionID),
			zap.String("status", event.Status),
		)
		return nil, nil
	}

	return s.ApplyPurchase(ctx, event.UserID, event.ProductType, event.SessionID, entity.PurchaseSourceWebhook)
}

func (s *paymentService) Grant(ctx context.Context, req dto.GrantRequest) (*dto.ApplyResult, error) {
	return s.ApplyPurchase(ctx, req.UserID, req.ProductType, "admin-"+uuid.NewString(), entity.PurchaseSourceAdmin)
}

func (s *paymentService) ListPurchases(ctx context.Context, query dto.PurchaseListQuery) (*dto.PaginatedPurchasesResponse, error) {
	res, err := s.list(ctx, query.UserID, query.PageQuery)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	res.Stats = &dto.PurchaseStats{
		TotalPurchases: totals.Purchases,
		TotalRevenue:   decimal.New(totals.RevenueCents, -2).StringFixed(2),
		Currency:       Currency,
		CoinsSold:      totals.CoinsSold,
		Subscriptions:  totals.Subscriptions,
	}
	return res, nil
}

func (s *paymentService) UserPurchases(ctx context.Context, userID uint, query commonDto.PageQuery) (*dto.PaginatedPurchasesResponse, error) {
	return s.list(ctx, userID, query)
}

func (s *paymentService) list(ctx context.Context, userID uint, query commonDto.PageQuery) (*dto.PaginatedPurchasesResponse, error) {
	page := query.Normalize()
	purchases, total, err := s.repo.List(ctx, repository.PurchaseFilter{
		UserID: userID,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		data = append(data, *toPurchaseResponse(&purchases[i]))
	}
	return &dto.PaginatedPurchasesResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(page, total),
	}, nil
}

func (s *paymentService) notifyPurchase(ctx context.Context, userID uint, product Product) {
	if s.notifier == nil {
		return
	}

	message := fmt.Sprintf("Your purchase of %s is complete.", product.Name)
	data := map[string]any{"product_type": product.Type, "coins": product.Coins, "months": product.Months}
	if err := s.notifier.Notify(ctx, userID, entity.NotificationPurchase, message, data); err != nil {
		zap.L().Warn("failed to send purchase notification", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// Sign returns the hex HMAC-SHA256 of body, as sent in the X-Signature header.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func toPurchaseResponse(p *entity.Purchase) *dto.PurchaseResponse {
	name := p.ProductType
	if product, ok := FindProduct(p.ProductType); ok {
		name = product.Name
	}
	return &dto.PurchaseResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		ProductType: p.ProductType,
		ProductName: name,
		SessionID:   p.SessionID,
		AmountCents: p.AmountCents,
		Amount:      decimal.New(p.AmountCents, -2).StringFixed(2),
		Coins:       p.Coins,
		Months:      p.Months,
		Source:      p.Source,
		CreatedAt:   p.CreatedAt,
	}
}
