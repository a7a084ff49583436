package http

import (
	"net/http"

	"anoa.com/studyhub/internal/modules/payment/dto"
	paymentService "anoa.com/studyhub/internal/modules/payment/service"
	commonDto "anoa.com/studyhub/pkg/dto"
	"anoa.com/studyhub/pkg/response"
	"anoa.com/studyhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the hex HMAC-SHA256 of the webhook body.
const SignatureHeader = "X-Signature"

type PaymentHandler struct {
	service paymentService.PaymentService
}

func NewPaymentHandler(service paymentService.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Products()})
}

func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	result, err := h.service.HandleWebhook(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "applied": result.Applied, "data": result})
}

func (h *PaymentHandler) MyPurchases(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query commonDto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	purchases, err := h.service.UserPurchases(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchases)
}

func (h *PaymentHandler) ListPurchases(c *gin.Context) {
	var query dto.PurchaseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	purchases, err := h.service.ListPurchases(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchases)
}

func (h *PaymentHandler) Grant(c *gin.Context) {
	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	result, err := h.service.Grant(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}
