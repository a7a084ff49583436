package http

import (
	"net/http"

	"anoa.com/studyhub/internal/modules/leaderboard/dto"
	leaderboardService "anoa.com/studyhub/internal/modules/leaderboard/service"
	"anoa.com/studyhub/pkg/response"
	"anoa.com/studyhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var query dto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), query.Limit, query.Timeframe)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
