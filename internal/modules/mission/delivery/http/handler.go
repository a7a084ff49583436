package http

import (
	"net/http"

	"anoa.com/studyhub/internal/modules/mission/dto"
	missionService "anoa.com/studyhub/internal/modules/mission/service"
	"anoa.com/studyhub/pkg/response"
	"anoa.com/studyhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type MissionHandler struct {
	service missionService.MissionService
}

func NewMissionHandler(service missionService.MissionService) *MissionHandler {
	return &MissionHandler{service: service}
}

func (h *MissionHandler) GetTodayMissions(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	progress, err := h.service.TodayProgress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": progress})
}

func (h *MissionHandler) CompleteMission(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CompleteMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.ClaimMission(c.Request.Context(), userID, req.MissionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CompleteMissionResponse{
		Success:      result.Success,
		Message:      "mission completed",
		PointsReward: result.PointsReward,
		CoinReward:   result.CoinReward,
	})
}
