package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/repository"
)

// PaymentProcessor is satisfied by *service.Orchestrator.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req *models.PaymentRequest) *models.PaymentOutcome
}

type PaymentHandler struct {
	repo      interfaces.PaymentStateRepository
	processor PaymentProcessor
	logger    *zap.Logger
}

func NewPaymentHandler(repo interfaces.PaymentStateRepository, processor PaymentProcessor, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		repo:      repo,
		processor: processor,
		logger:    logger,
	}
}

var outcomeStatus = map[models.OutcomeCode]int{
	models.CodeValidationFailed: http.StatusBadRequest,
	models.CodeFraudDetected:    http.StatusForbidden,
	models.CodeDeclined:         http.StatusPaymentRequired,
	models.CodeGatewayError:     http.StatusBadGateway,
	models.CodeProcessingError:  http.StatusInternalServerError,
}

// StatusForOutcome maps a payment outcome to its HTTP status.
func StatusForOutcome(o *models.PaymentOutcome) int {
	if o.Success {
		return http.StatusCreated
	}
	if status, ok := outcomeStatus[o.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ProcessPayment handles POST /api/v1/payments
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// the bind error can echo body fragments, so it is not logged
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	// an ip in the body is caller-controlled and would steer the geolocation check
	req.IP = c.ClientIP()

	outcome := h.processor.ProcessPayment(c.Request.Context(), &req)
	c.JSON(StatusForOutcome(outcome), outcome)
}

// GetPaymentState handles GET /api/v1/payments/:id/state
func (h *PaymentHandler) GetPaymentState(c *gin.Context) {
	transactionID := c.Param("id")

	info, err := h.repo.GetByTransactionID(c.Request.Context(), transactionID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment state not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch payment state",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment state"})
		return
	}

	c.JSON(http.StatusOK, models.PaymentStateResponse{
		TransactionID: transactionID,
		State:         info.State,
		PreviousState: info.PreviousState,
		UserID:        info.UserID,
		Amount:        info.Amount,
		Currency:      info.Currency,
		CreatedAt:     info.CreatedAt,
		UpdatedAt:     info.UpdatedAt,
	})
}
