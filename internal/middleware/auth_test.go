package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"anoa.com/studyhub/internal/middleware"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	"anoa.com/studyhub/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signToken(t *testing.T, subject string, key string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestRequireAuthAndAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	student := testutil.CreateUser(t, db, "student@example.com", 0, 0)
	admin := testutil.CreateUser(t, db, "admin@example.com", 0, 0)
	require.NoError(t, db.Model(admin).Update("is_admin", true).Error)

	m := middleware.NewAuthMiddleware(userRepo.NewUserRepository(db), secret)
	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	r.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	future := time.Now().Add(time.Hour)
	studentID := strconv.FormatUint(uint64(student.ID), 10)
	adminID := strconv.FormatUint(uint64(admin.ID), 10)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"missing token", "/me", "", http.StatusUnauthorized},
		{"valid bearer", "/me", "Bearer " + signToken(t, studentID, secret, future), http.StatusOK},
		{"wrong key", "/me", "Bearer " + signToken(t, studentID, "other", future), http.StatusUnauthorized},
		{"expired", "/me", "Bearer " + signToken(t, studentID, secret, time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"non numeric subject", "/me", "Bearer " + signToken(t, "abc", secret, future), http.StatusUnauthorized},
		{"student on admin route", "/admin", "Bearer " + signToken(t, studentID, secret, future), http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer " + signToken(t, adminID, secret, future), http.StatusNoContent},
		{"deleted user on admin route", "/admin", "Bearer " + signToken(t, "999", secret, future), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireAuth_QueryToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	m := middleware.NewAuthMiddleware(userRepo.NewUserRepository(db), secret)

	r := gin.New()
	r.GET("/ws", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+signToken(t, "7", secret, time.Now().Add(time.Hour)), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())
}
