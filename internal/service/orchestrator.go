package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/repository"
	"github.com/skillrise/payment-security/internal/telemetry"
	"github.com/skillrise/payment-security/internal/validation"
)

const (
	MsgFraudBlocked    = "Transaction blocked due to suspected fraud"
	MsgTooManyAttempts = "Too many failed payment attempts"
	MsgDeclined        = "Payment declined"
	MsgGatewayError    = "Payment gateway unavailable, please try again later"
	MsgProcessingError = "An internal error occurred while processing the payment"

	defaultGatewayTimeout = 10 * time.Second
	transactionIDPrefix   = "txn_"
)

// messageWriter is the part of *kafka.Writer used for state change events.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dependencies are the collaborators an Orchestrator sequences. Attempts and
// StateEvents are optional.
type Dependencies struct {
	Validator      *validation.Validator
	Fraud          interfaces.FraudDetector
	Gateway        interfaces.PaymentGateway
	Audit          interfaces.AuditLogger
	Repo           interfaces.PaymentStateRepository
	Attempts       interfaces.AttemptLimiter
	StateEvents    messageWriter
	GatewayTimeout time.Duration
	Logger         *zap.Logger
}

type Orchestrator struct {
	validator      *validation.Validator
	fraud          interfaces.FraudDetector
	gateway        interfaces.PaymentGateway
	audit          interfaces.AuditLogger
	repo           interfaces.PaymentStateRepository
	attempts       interfaces.AttemptLimiter
	stateEvents    messageWriter
	gatewayTimeout time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

func NewOrchestrator(deps Dependencies) *Orchestrator {
	o := &Orchestrator{
		validator:      deps.Validator,
		fraud:          deps.Fraud,
		gateway:        deps.Gateway,
		audit:          deps.Audit,
		repo:           deps.Repo,
		attempts:       deps.Attempts,
		stateEvents:    deps.StateEvents,
		gatewayTimeout: deps.GatewayTimeout,
		logger:         deps.Logger,
		tracer:         otel.Tracer("payment-security/orchestrator"),
		now:            time.Now,
	}
	if o.gatewayTimeout <= 0 {
		o.gatewayTimeout = defaultGatewayTimeout
	}
	return o
}

// ProcessPayment runs validation, fraud detection and the gateway charge in
// that order and reports the result. It never returns an error and never
// panics: unexpected failures become PROCESSING_ERROR outcomes.
func (o *Orchestrator) ProcessPayment(ctx context.Context, req *models.PaymentRequest) (outcome *models.PaymentOutcome) {
	if req == nil {
		req = &models.PaymentRequest{}
	}

	ctx, span := o.tracer.Start(ctx, "ProcessPayment")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			// the panic value may carry request data, so only its type is logged
			o.logger.Error("payment processing panicked",
				zap.String("user_id", req.UserID),
				zap.String("panic_type", fmt.Sprintf("%T", r)),
				zap.Stack("stack"))
			outcome = o.processingError(ctx, req, "", errors.New("panic during payment processing"))
		}
		span.SetAttributes(attribute.String("payment.outcome", outcomeLabel(outcome)))
		if !outcome.Success {
			span.SetStatus(codes.Error, string(outcome.Code))
		}
		telemetry.PaymentsProcessed.WithLabelValues(outcomeLabel(outcome)).Inc()
	}()

	if o.attempts != nil && o.attempts.Locked(req.UserID, o.now()) {
		o.audit.LogPaymentEvent(ctx, models.AuditFailed, req.UserID, o.requestDetails(req, map[string]interface{}{
			repository.DetailCode: models.CodeFraudDetected,
			"reason":              MsgTooManyAttempts,
		}))
		return &models.PaymentOutcome{
			Code:         models.CodeFraudDetected,
			Error:        MsgTooManyAttempts,
			FraudReasons: []string{MsgTooManyAttempts},
		}
	}

	if errs := o.validate(ctx, req); len(errs) > 0 {
		o.recordFailure(req.UserID)
		o.audit.LogPaymentEvent(ctx, models.AuditFailed, req.UserID, o.requestDetails(req, map[string]interface{}{
			repository.DetailCode: models.CodeValidationFailed,
			"errors":              errs,
		}))
		return &models.PaymentOutcome{
			Code:  models.CodeValidationFailed,
			Error: strings.Join(errs, "; "),
		}
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return o.processingError(ctx, req, "", fmt.Errorf("parse validated amount: %w", err))
	}
	currency := currencyOf(req)

	assessment := o.checkFraud(ctx, req, amount, currency)
	if assessment.ShouldBlock {
		o.audit.LogPaymentEvent(ctx, models.AuditFailed, req.UserID, o.requestDetails(req, map[string]interface{}{
			repository.DetailCode:      models.CodeFraudDetected,
			repository.DetailRiskLevel: assessment.RiskLevel,
			"fraudScore":               assessment.FraudScore,
			"reasons":                  assessment.Reasons,
		}))
		return &models.PaymentOutcome{
			Code:         models.CodeFraudDetected,
			Error:        MsgFraudBlocked,
			FraudReasons: assessment.Reasons,
		}
	}

	transactionID := transactionIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	span.SetAttributes(attribute.String("payment.transaction_id", transactionID))

	o.audit.LogPaymentEvent(ctx, models.AuditAttempt, req.UserID, o.requestDetails(req, map[string]interface{}{
		"transactionId":            transactionID,
		repository.DetailRiskLevel: assessment.RiskLevel,
		"fraudScore":               assessment.FraudScore,
		"requiresReview":           assessment.RequiresReview,
	}))

	if err := o.repo.InsertInitialState(ctx, transactionID, models.StatePending, &models.PaymentStateInfo{
		UserID:   req.UserID,
		Amount:   amount.StringFixed(2),
		Currency: currency,
	}); err != nil {
		return o.processingError(ctx, req, transactionID, fmt.Errorf("persist pending state: %w", err))
	}

	return o.charge(ctx, req, transactionID, amount, currency)
}

func (o *Orchestrator) validate(ctx context.Context, req *models.PaymentRequest) []string {
	_, span := o.tracer.Start(ctx, "ValidatePayment")
	defer span.End()

	errs := make([]string, 0)
	if req.UserID == "" {
		errs = append(errs, "User ID is required")
	}
	if req.CardNumber == nil {
		errs = append(errs, "Card number is required")
	}
	if req.Amount == "" {
		errs = append(errs, "Amount is required")
	}

	result, _ := o.validator.ValidateRequest(req)
	errs = append(errs, result.Errors...)

	span.SetAttributes(attribute.Int("validation.errors", len(errs)))
	return errs
}

func (o *Orchestrator) checkFraud(ctx context.Context, req *models.PaymentRequest, amount decimal.Decimal, currency string) models.FraudAssessment {
	ctx, span := o.tracer.Start(ctx, "DetectFraud")
	defer span.End()

	assessment := o.fraud.DetectFraud(ctx, &models.FraudTransaction{
		UserID:   req.UserID,
		Amount:   amount,
		Currency: currency,
		IP:       req.IP,
	})

	span.SetAttributes(
		attribute.Int("fraud.score", assessment.FraudScore),
		attribute.String("fraud.risk_level", string(assessment.RiskLevel)),
		attribute.Bool("fraud.blocked", assessment.ShouldBlock),
	)
	return assessment
}

func (o *Orchestrator) charge(ctx context.Context, req *models.PaymentRequest, transactionID string, amount decimal.Decimal, currency string) *models.PaymentOutcome {
	ctx, span := o.tracer.Start(ctx, "GatewayCharge")
	defer span.End()

	gctx, cancel := context.WithTimeout(ctx, o.gatewayTimeout)
	defer cancel()

	start := time.Now()
	result, err := o.gateway.Charge(gctx, &models.GatewayCharge{
		TransactionID:  transactionID,
		Amount:         amount,
		Currency:       currency,
		CardNumber:     validation.SanitizeCardNumber(deref(req.CardNumber)),
		CVV:            deref(req.CVV),
		ExpiryMonth:    derefInt(req.ExpiryMonth),
		ExpiryYear:     derefInt(req.ExpiryYear),
		CardholderName: deref(req.CardholderName),
		UserID:         req.UserID,
	})
	if err == nil && result == nil {
		err = errors.New("gateway returned no result")
	}

	switch {
	case err != nil:
		telemetry.GatewayLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		o.logger.Error("gateway charge failed",
			zap.String("transaction_id", transactionID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		o.audit.LogPaymentEvent(ctx, models.AuditError, req.UserID, map[string]interface{}{
			repository.DetailCode: models.CodeGatewayError,
			"transactionId":       transactionID,
		})
		o.transitionState(ctx, transactionID, models.StatePending, models.StateFailed)
		return &models.PaymentOutcome{
			TransactionID: transactionID,
			Code:          models.CodeGatewayError,
			Error:         MsgGatewayError,
		}

	case !result.Approved:
		telemetry.GatewayLatency.WithLabelValues("declined").Observe(time.Since(start).Seconds())
		reason := result.DeclineReason
		if reason == "" {
			reason = MsgDeclined
		}
		o.recordFailure(req.UserID)
		o.audit.LogPaymentEvent(ctx, models.AuditFailed, req.UserID, map[string]interface{}{
			repository.DetailCode: models.CodeDeclined,
			"transactionId":       transactionID,
			"reason":              reason,
		})
		o.transitionState(ctx, transactionID, models.StatePending, models.StateDeclined)
		return &models.PaymentOutcome{
			TransactionID: transactionID,
			Code:          models.CodeDeclined,
			Error:         reason,
		}
	}

	telemetry.GatewayLatency.WithLabelValues("approved").Observe(time.Since(start).Seconds())
	if o.attempts != nil {
		o.attempts.Reset(req.UserID)
	}
	o.audit.LogPaymentEvent(ctx, models.AuditSuccess, req.UserID, map[string]interface{}{
		"transactionId": transactionID,
		"reference":     result.Reference,
		"amount":        amount.StringFixed(2),
		"currency":      currency,
	})
	o.transitionState(ctx, transactionID, models.StatePending, models.StateCompleted)

	ts := o.now().UTC()
	return &models.PaymentOutcome{
		Success:       true,
		TransactionID: transactionID,
		Status:        models.StatusCompleted,
		Amount:        &amount,
		Currency:      currency,
		Timestamp:     &ts,
	}
}

// transitionState applies a state change and publishes it. Failures are
// logged only: the charge outcome is already decided at this point.
func (o *Orchestrator) transitionState(ctx context.Context, transactionID string, from, to models.PaymentState) {
	rows, err := o.repo.TransitionState(ctx, transactionID, from, to)
	if err != nil {
		o.logger.Error("failed to persist payment state",
			zap.String("transaction_id", transactionID),
			zap.String("to_state", string(to)),
			zap.Error(err))
		return
	}
	if rows == 0 {
		o.logger.Warn("invalid payment state transition",
			zap.String("transaction_id", transactionID),
			zap.String("from_state", string(from)),
			zap.String("to_state", string(to)))
		return
	}

	if o.stateEvents != nil {
		event, _ := json.Marshal(map[string]interface{}{
			"transaction_id": transactionID,
			"state":          to,
			"previous_state": from,
			"timestamp":      o.now().UTC(),
		})
		if err := o.stateEvents.WriteMessages(ctx, kafka.Message{Key: []byte(transactionID), Value: event}); err != nil {
			o.logger.Error("failed to publish state change", zap.String("transaction_id", transactionID), zap.Error(err))
		}
	}

	o.logger.Info("payment state transition",
		zap.String("transaction_id", transactionID),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)))
}

func (o *Orchestrator) processingError(ctx context.Context, req *models.PaymentRequest, transactionID string, err error) *models.PaymentOutcome {
	o.logger.Error("payment processing error",
		zap.String("user_id", req.UserID),
		zap.String("transaction_id", transactionID),
		zap.Error(err))
	o.audit.LogPaymentEvent(ctx, models.AuditError, req.UserID, o.requestDetails(req, map[string]interface{}{
		repository.DetailCode: models.CodeProcessingError,
		"transactionId":       transactionID,
	}))
	return &models.PaymentOutcome{
		TransactionID: transactionID,
		Code:          models.CodeProcessingError,
		Error:         MsgProcessingError,
	}
}

func (o *Orchestrator) recordFailure(userID string) {
	if o.attempts != nil && userID != "" {
		o.attempts.RecordFailure(userID, o.now())
	}
}

// requestDetails adds the request's card and amount fields to extra. The audit
// logger masks the card fields before anything is emitted.
func (o *Orchestrator) requestDetails(req *models.PaymentRequest, extra map[string]interface{}) map[string]interface{} {
	d := make(map[string]interface{}, len(extra)+4)
	if req.CardNumber != nil {
		d["cardNumber"] = *req.CardNumber
	}
	if req.CVV != nil {
		d["cvv"] = *req.CVV
	}
	if req.Amount != "" {
		d["amount"] = req.Amount.String()
	}
	d["currency"] = currencyOf(req)
	for k, v := range extra {
		d[k] = v
	}
	return d
}

func outcomeLabel(o *models.PaymentOutcome) string {
	if o.Success {
		return "success"
	}
	return string(o.Code)
}

func currencyOf(req *models.PaymentRequest) string {
	if req.Currency == "" {
		return validation.DefaultCurrency
	}
	return req.Currency
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
