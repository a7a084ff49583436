package http_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gamificationRepo "anoa.com/studyhub/internal/modules/gamification/repository"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	paymentHttp "anoa.com/studyhub/internal/modules/payment/delivery/http"
	"anoa.com/studyhub/internal/modules/payment/repository"
	"anoa.com/studyhub/internal/modules/payment/service"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

func setupRouter(t *testing.T) (*gin.Engine, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	usr := testutil.CreateUser(t, db, "student@example.com", 0, 0)
	gRepo := gamificationRepo.NewGamificationRepository(db)
	tx := database.NewTransactor(db)
	clock := testutil.FixedClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))

	svc := service.NewPaymentService(
		repository.NewPurchaseRepository(db),
		userRepo.NewUserRepository(db),
		gamificationService.NewCoinService(gRepo),
		gamificationService.NewSubscriptionService(gRepo, tx, clock),
		tx,
		nil,
		secret,
		clock,
	)
	handler := paymentHttp.NewPaymentHandler(svc)

	r := gin.New()
	r.GET("/api/payments/products", handler.GetProducts)
	r.POST("/api/payments/webhook", handler.Webhook)
	r.GET("/api/admin/purchases", handler.ListPurchases)
	r.POST("/api/admin/purchases/grant", handler.Grant)
	return r, usr.ID
}

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(paymentHttp.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetProducts(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payments/products", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"COINS_100"`)
	assert.Contains(t, w.Body.String(), `"price":"79.00"`)
}

func TestWebhook(t *testing.T) {
	r, userID := setupRouter(t)
	body := fmt.Sprintf(`{"session_id":"cs_1","status":"paid","user_id":%d,"product_type":"COINS_100"}`, userID)

	w := postWebhook(r, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postWebhook(r, body, service.Sign(secret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"applied":true`)

	w = postWebhook(r, body, service.Sign(secret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"applied":false`)

	pending := fmt.Sprintf(`{"session_id":"cs_2","status":"open","user_id":%d,"product_type":"COINS_100"}`, userID)
	w = postWebhook(r, pending, service.Sign(secret, []byte(pending)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true,"applied":false}`, w.Body.String())
}

func TestAdminGrant(t *testing.T) {
	r, userID := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/purchases/grant",
		bytes.NewBufferString(fmt.Sprintf(`{"user_id":%d,"product_type":"SUBSCRIPTION_MONTHLY"}`, userID)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/purchases", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscriptions":1`)
	assert.Contains(t, w.Body.String(), `"total_revenue":"0.00"`)
}
