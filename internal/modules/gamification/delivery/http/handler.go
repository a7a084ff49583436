package http

import (
	"net/http"

	"anoa.com/studyhub/internal/modules/gamification/dto"
	gamificationService "anoa.com/studyhub/internal/modules/gamification/service"
	"anoa.com/studyhub/pkg/response"
	"anoa.com/studyhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type GamificationHandler struct {
	coins         gamificationService.CoinService
	subscriptions gamificationService.SubscriptionService
	access        gamificationService.AccessService
	status        gamificationService.StatusService
}

func NewGamificationHandler(
	coins gamificationService.CoinService,
	subscriptions gamificationService.SubscriptionService,
	access gamificationService.AccessService,
	status gamificationService.StatusService,
) *GamificationHandler {
	return &GamificationHandler{
		coins:         coins,
		subscriptions: subscriptions,
		access:        access,
		status:        status,
	}
}

func (h *GamificationHandler) GetCoins(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	coins, err := h.coins.GetCoins(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	subscribed, err := h.subscriptions.IsSubscribed(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CoinsResponse{Coins: coins, Subscribed: subscribed})
}

func (h *GamificationHandler) GetProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.status.GetStatus(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (h *GamificationHandler) CheckAccess(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.AccessQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	cost, _ := gamificationService.FeatureCost(query.Feature)
	decision, err := h.access.CanUseAI(c.Request.Context(), userID, cost)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AccessResponse{
		Feature: query.Feature,
		Cost:    cost,
		CanUse:  decision.CanUse,
		Reason:  decision.Reason,
	})
}
