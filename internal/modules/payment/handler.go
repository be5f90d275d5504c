package payment

import (
	"errors"
	"net/http"

	"cleanmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/intent", h.CreateIntent)
}

func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.CreateIntent(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrPaymentInit) {
			response.Error(c, http.StatusBadGateway, "PAYMENT_INIT_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create payment intent")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"client_secret":     result.ClientSecret,
		"payment_intent_id": result.PaymentIntentID,
		"using_connect":     result.UsingConnect,
	})
}
