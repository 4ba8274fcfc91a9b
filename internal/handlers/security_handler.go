package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/validation"
)

const maxReportDays = 365

type CardTokenizer interface {
	TokenizeCard(ctx context.Context, card models.CardData) (*models.PaymentToken, error)
}

type ReportGenerator interface {
	GenerateSecurityReport(ctx context.Context, days int) (*models.SecurityReport, error)
}

// SecurityHandler exposes the validator, fraud engine, tokenizer and report
// generator individually.
type SecurityHandler struct {
	validator *validation.Validator
	fraud     interfaces.FraudDetector
	tokenizer CardTokenizer
	reports   ReportGenerator
	logger    *zap.Logger
}

func NewSecurityHandler(v *validation.Validator, fraud interfaces.FraudDetector, tokenizer CardTokenizer, reports ReportGenerator, logger *zap.Logger) *SecurityHandler {
	return &SecurityHandler{
		validator: v,
		fraud:     fraud,
		tokenizer: tokenizer,
		reports:   reports,
		logger:    logger,
	}
}

// CheckFraud handles POST /api/v1/fraud/check. The transaction is recorded in
// the user's velocity window like any other assessment. Operators may score an
// arbitrary ip from the body; without one the client ip is used.
func (h *SecurityHandler) CheckFraud(c *gin.Context) {
	var req models.FraudCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and amount are required"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount format"})
		return
	}
	if req.IP == "" {
		req.IP = c.ClientIP()
	}

	assessment := h.fraud.DetectFraud(c.Request.Context(), &models.FraudTransaction{
		UserID:   req.UserID,
		Amount:   amount,
		Currency: req.Currency,
		IP:       req.IP,
	})
	c.JSON(http.StatusOK, assessment)
}

// ValidateCard handles POST /api/v1/validate/card
func (h *SecurityHandler) ValidateCard(c *gin.Context) {
	var req models.CardValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cardNumber is required"})
		return
	}

	resp := models.CardValidationResponse{Card: validation.ValidateCardNumber(req.CardNumber)}
	if req.CVV != nil {
		cvv := validation.ValidateCVV(*req.CVV, resp.Card.CardType)
		resp.CVV = &cvv
	}
	if req.ExpiryMonth != nil && req.ExpiryYear != nil {
		exp := h.validator.ValidateExpiryDate(*req.ExpiryMonth, *req.ExpiryYear)
		resp.Expiry = &exp
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateAmount handles POST /api/v1/validate/amount
func (h *SecurityHandler) ValidateAmount(c *gin.Context) {
	var req models.AmountValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	c.JSON(http.StatusOK, h.validator.ValidatePaymentAmount(req.Amount.String(), req.Currency))
}

// Tokenize handles POST /api/v1/tokens
func (h *SecurityHandler) Tokenize(c *gin.Context) {
	var card models.CardData
	if err := c.ShouldBindJSON(&card); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if v := validation.ValidateCardNumber(card.Number); !v.IsValid {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Error})
		return
	}

	token, err := h.tokenizer.TokenizeCard(c.Request.Context(), card)
	if err != nil {
		h.logger.Error("failed to tokenize card", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to tokenize card"})
		return
	}
	c.JSON(http.StatusCreated, token)
}

// SecurityReport handles GET /api/v1/security/report?days=N
func (h *SecurityHandler) SecurityReport(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxReportDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
			return
		}
		days = n
	}

	report, err := h.reports.GenerateSecurityReport(c.Request.Context(), days)
	if err != nil {
		h.logger.Error("failed to generate security report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate security report"})
		return
	}
	c.JSON(http.StatusOK, report)
}
