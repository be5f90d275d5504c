package booking

import (
	"errors"
	"net/http"

	"cleanmarket/internal/domain"
	"cleanmarket/internal/middleware"
	"cleanmarket/internal/modules/payment"
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
	rg.POST("/bookings", h.Create)
	rg.GET("/bookings/:id", h.GetByID)
	rg.GET("/businesses/:id/bookings", h.ListByBusiness)
	rg.GET("/customers/:id/bookings", h.ListByCustomer)
	rg.PATCH("/bookings/:id/status", middleware.RequireRole("business", "admin"), h.UpdateStatus)
	rg.PATCH("/bookings/:id/cancel", h.Cancel)
	rg.PATCH("/bookings/:id/complete", middleware.RequireRole("business", "admin"), h.Complete)
	rg.POST("/bookings/:id/withdraw", h.Withdraw)
	rg.POST("/bookings/:id/retry-refund", middleware.RequireRole("admin"), h.RetryRefund)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetByID(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListByBusiness(c *gin.Context) {
	list, err := h.service.ListByBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) ListByCustomer(c *gin.Context) {
	list, err := h.service.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

// UpdateStatus handles the business's accept/decline response to a
// pending request.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var (
		b   *domain.BookingRequest
		err error
	)
	switch domain.BookingStatus(req.Status) {
	case domain.BookingAccepted:
		b, err = h.service.Accept(c.Request.Context(), c.Param("id"), req.ResponseMessage)
	case domain.BookingDeclined:
		b, err = h.service.Decline(c.Request.Context(), c.Param("id"), req.ResponseMessage)
	default:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Status must be accepted or declined")
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), c.Param("id"), domain.CancelActor(req.CancelledBy), req.CancellationReason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": res.Booking, "refund": res.Refund})
}

func (h *Handler) Complete(c *gin.Context) {
	b, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) RetryRefund(c *gin.Context) {
	outcome, err := h.service.RetryRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund": outcome})
}

func (h *Handler) Withdraw(c *gin.Context) {
	if err := h.service.Withdraw(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"withdrawn": true})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case errors.Is(err, ErrResponseMessageRequired):
		response.Error(c, http.StatusBadRequest, "RESPONSE_MESSAGE_REQUIRED", err.Error())
	case errors.Is(err, ErrCancellationReasonRequired):
		response.Error(c, http.StatusBadRequest, "CANCELLATION_REASON_REQUIRED", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrPaymentAmountMismatch):
		response.Error(c, http.StatusBadRequest, "PAYMENT_AMOUNT_MISMATCH", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Booking status does not allow this operation")
	case errors.Is(err, ErrRefundNotRetryable):
		response.Error(c, http.StatusConflict, "REFUND_NOT_RETRYABLE", err.Error())
	case errors.Is(err, ErrWithdrawalNotSupported):
		response.Error(c, http.StatusConflict, "WITHDRAWAL_NOT_SUPPORTED", err.Error())
	case errors.Is(err, payment.ErrPaymentDeclined):
		response.Error(c, http.StatusPaymentRequired, "PAYMENT_DECLINED", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
