package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"anoa.com/studyhub/internal/entity"
	adminHttp "anoa.com/studyhub/internal/modules/admin/delivery/http"
	"anoa.com/studyhub/internal/modules/admin/dto"
	adminService "anoa.com/studyhub/internal/modules/admin/service"
	gamificationRepo "anoa.com/studyhub/internal/modules/gamification/repository"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	noteRepo "anoa.com/studyhub/internal/modules/note/repository"
	noteService "anoa.com/studyhub/internal/modules/note/service"
	userRepo "anoa.com/studyhub/internal/modules/user/repository"
	userService "anoa.com/studyhub/internal/modules/user/service"
	"anoa.com/studyhub/internal/testutil"
	"anoa.com/studyhub/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, *entity.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	admin := testutil.CreateUser(t, db, "admin@example.com", 0, 0)
	require.NoError(t, db.Model(admin).Update("is_admin", true).Error)

	uRepo := userRepo.NewUserRepository(db)
	gRepo := gamificationRepo.NewGamificationRepository(db)
	tx := database.NewTransactor(db)
	svc := adminService.NewAdminService(
		uRepo,
		userService.NewUserService(uRepo, testutil.FixedClock(now)),
		gamificationService.NewPointsService(gRepo, tx, nil),
		gamificationService.NewCoinService(gRepo),
		noteService.NewNoteService(noteRepo.NewNoteRepository(db), nil, nil, nil, nil, 0, testutil.FixedClock(now)),
	)
	h := adminHttp.NewAdminHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", strconv.FormatUint(uint64(admin.ID), 10))
		c.Next()
	})
	r.GET("/admin/users", h.GetAllUsers)
	r.DELETE("/admin/users/:id", h.DeleteUser)
	r.POST("/admin/users/:id/points", h.AwardPoints)
	r.POST("/admin/users/:id/coins", h.AddCoins)
	r.DELETE("/admin/notes/:id", h.DeleteNote)
	return r, db, admin
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminBalanceAdjustments(t *testing.T) {
	r, db, _ := setupRouter(t)
	student := testutil.CreateUser(t, db, "student@example.com", 90, 5)
	base := "/admin/users/" + strconv.FormatUint(uint64(student.ID), 10)

	w := doJSON(r, http.MethodPost, base+"/points", dto.AwardPointsInput{Points: 15, Reason: "contest"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res struct {
		Data dto.BalanceResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 105, res.Data.Points)
	assert.Equal(t, 2, res.Data.Level)
	assert.True(t, res.Data.LeveledUp)

	var logs []entity.PointLog
	require.NoError(t, db.Where("user_id = ?", student.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ActionAdminAdjustment, logs[0].ActionType)

	w = doJSON(r, http.MethodPost, base+"/coins", dto.AddCoinsInput{Coins: 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 25, res.Data.Coins)

	w = doJSON(r, http.MethodPost, base+"/coins", map[string]int{"coins": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, base+"/points", map[string]int{"points": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/admin/users/9999/coins", dto.AddCoinsInput{Coins: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminUsersAndNotes(t *testing.T) {
	r, db, admin := setupRouter(t)
	student := testutil.CreateUser(t, db, "student@example.com", 0, 0)
	note := testutil.CreateNote(t, db, student.ID, time.Now().UTC(), time.Now().UTC())

	w := doJSON(r, http.MethodGet, "/admin/users?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []entity.User `json:"data"`
		Meta struct {
			TotalItems int64 `json:"total_items"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)

	w = doJSON(r, http.MethodDelete, "/admin/notes/"+strconv.FormatUint(uint64(note.ID), 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/admin/notes/"+strconv.FormatUint(uint64(note.ID), 10), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/admin/users/"+strconv.FormatUint(uint64(admin.ID), 10), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, "/admin/users/"+strconv.FormatUint(uint64(student.ID), 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/admin/users/"+strconv.FormatUint(uint64(student.ID), 10), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
