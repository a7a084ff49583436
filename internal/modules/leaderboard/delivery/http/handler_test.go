package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	leaderboardHttp "anoa.com/studyhub/internal/modules/leaderboard/delivery/http"
	"anoa.com/studyhub/internal/modules/leaderboard/dto"
	"anoa.com/studyhub/internal/modules/leaderboard/repository"
	"anoa.com/studyhub/internal/modules/leaderboard/service"
	"anoa.com/studyhub/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLeaderboardHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice@example.com", 250, 0)
	testutil.CreateUser(t, db, "bob@example.com", 80, 0)

	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc := service.NewLeaderboardService(repository.NewLeaderboardRepository(db), testutil.FixedClock(now))
	h := leaderboardHttp.NewLeaderboardHandler(svc)

	r := gin.New()
	r.GET("/leaderboard", h.GetLeaderboard)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []dto.LeaderboardEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, 250, body.Data[0].Points)
	assert.Equal(t, 3, body.Data[0].Level)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard?timeframe=yearly", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
