// Package fraud scores payment attempts with additive heuristics and keeps the
// per-user transaction history those heuristics need.
package fraud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/config"
	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/telemetry"
)

const (
	ReasonVelocity      = "High transaction velocity detected"
	ReasonDailyLimit    = "Daily spending limit exceeded"
	ReasonUnusualAmount = "Unusual transaction amount pattern"
	ReasonLocation      = "Transaction from unusual location"
	ReasonUnusualHour   = "Transaction at unusual hour"
	ReasonSystemError   = "Fraud detection system error - transaction blocked for safety"
)

const (
	pointsVelocity      = 30
	pointsDailyLimit    = 40
	pointsUnusualAmount = 10
	pointsLocation      = 25
	pointsUnusualHour   = 15

	highRiskScore   = 70
	mediumRiskScore = 40
	failSafeScore   = 100

	unusualHourStart  = 2
	unusualHourEnd    = 6
	maxFractionDigits = 4
)

const defaultGeoTimeout = 2 * time.Second

var errNilTransaction = errors.New("nil transaction")

var (
	roundHundred  = decimal.NewFromInt(100)
	largeRoundMin = decimal.NewFromInt(1000)
)

type Engine struct {
	store      interfaces.VelocityStore
	geo        interfaces.GeoIPLookup
	limits     config.Limits
	geoTimeout time.Duration
	now        func() time.Time
	location   *time.Location
	logger     *zap.Logger
}

type Option func(*Engine)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used for "local midnight" and "local hour".
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.location = loc }
}

func NewEngine(
	store interfaces.VelocityStore,
	geo interfaces.GeoIPLookup,
	limits config.Limits,
	geoTimeout time.Duration,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:      store,
		geo:        geo,
		limits:     limits,
		geoTimeout: geoTimeout,
		now:        time.Now,
		location:   time.Local,
		logger:     logger,
	}
	if e.geoTimeout <= 0 {
		e.geoTimeout = defaultGeoTimeout
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ruleContext carries the transaction and the user's history as it was before
// this transaction was recorded.
type ruleContext struct {
	txn     *models.FraudTransaction
	now     time.Time
	history []models.VelocityEntry
}

type ruleResult struct {
	triggered bool
	points    int
	reason    string
}

type rule func(ctx context.Context, rc *ruleContext) (ruleResult, error)

// DetectFraud runs every check, sums their points and classifies the total.
// It never fails open: any internal failure yields a blocking assessment.
func (e *Engine) DetectFraud(ctx context.Context, txn *models.FraudTransaction) (assessment models.FraudAssessment) {
	if txn == nil {
		return e.failSafe(nil, errNilTransaction)
	}
	defer func() {
		if r := recover(); r != nil {
			assessment = e.failSafe(txn, fmt.Errorf("panic: %v", r))
		}
	}()

	now := e.now().In(e.location)

	history, err := e.store.Record(ctx, txn.UserID, models.VelocityEntry{
		Amount:    txn.Amount,
		Timestamp: now,
	})
	if err != nil {
		return e.failSafe(txn, fmt.Errorf("velocity store: %w", err))
	}

	rc := &ruleContext{txn: txn, now: now, history: history}
	rules := []rule{
		e.checkVelocity,
		e.checkDailySpend,
		e.checkUnusualAmount,
		e.checkGeolocation,
		e.checkTimeOfDay,
	}

	score := 0
	reasons := []string{}
	for _, r := range rules {
		res, err := r(ctx, rc)
		if err != nil {
			return e.failSafe(txn, err)
		}
		if res.triggered {
			score += res.points
			reasons = append(reasons, res.reason)
		}
	}

	assessment = classify(score, reasons)

	telemetry.FraudChecks.WithLabelValues(string(assessment.RiskLevel)).Inc()
	telemetry.FraudScore.Observe(float64(assessment.FraudScore))

	if assessment.RiskLevel == models.RiskHigh {
		e.logger.Warn("high-risk transaction detected",
			zap.String("user_id", txn.UserID),
			zap.Int("score", assessment.FraudScore),
			zap.Strings("reasons", assessment.Reasons))
	}

	return assessment
}

func classify(score int, reasons []string) models.FraudAssessment {
	a := models.FraudAssessment{
		FraudScore: score,
		RiskLevel:  models.RiskLow,
		Reasons:    reasons,
	}
	switch {
	case score >= highRiskScore:
		a.RiskLevel = models.RiskHigh
		a.ShouldBlock = true
	case score >= mediumRiskScore:
		a.RiskLevel = models.RiskMedium
	}
	a.RequiresReview = score >= mediumRiskScore
	return a
}

func (e *Engine) failSafe(txn *models.FraudTransaction, err error) models.FraudAssessment {
	var userID string
	if txn != nil {
		userID = txn.UserID
	}
	e.logger.Error("fraud detection failed, blocking transaction",
		zap.String("user_id", userID),
		zap.Error(err))
	telemetry.FraudFailSafe.Inc()
	telemetry.FraudChecks.WithLabelValues(string(models.RiskHigh)).Inc()

	return models.FraudAssessment{
		FraudScore:     failSafeScore,
		RiskLevel:      models.RiskHigh,
		Reasons:        []string{ReasonSystemError},
		RequiresReview: true,
		ShouldBlock:    true,
	}
}

// checkVelocity counts the current transaction together with the user's
// transactions inside the trailing velocity window.
func (e *Engine) checkVelocity(_ context.Context, rc *ruleContext) (ruleResult, error) {
	since := rc.now.Add(-e.limits.VelocityWindow)
	count := 1
	for _, entry := range rc.history {
		if entry.Timestamp.After(since) {
			count++
		}
	}

	return ruleResult{
		triggered: count > e.limits.VelocityMaxCount,
		points:    pointsVelocity,
		reason:    ReasonVelocity,
	}, nil
}

func (e *Engine) checkDailySpend(_ context.Context, rc *ruleContext) (ruleResult, error) {
	midnight := time.Date(rc.now.Year(), rc.now.Month(), rc.now.Day(), 0, 0, 0, 0, rc.now.Location())
	total := rc.txn.Amount
	for _, entry := range rc.history {
		if !entry.Timestamp.Before(midnight) {
			total = total.Add(entry.Amount)
		}
	}

	return ruleResult{
		triggered: total.GreaterThan(e.limits.MaxDailyAmount),
		points:    pointsDailyLimit,
		reason:    ReasonDailyLimit,
	}, nil
}

// checkUnusualAmount flags large round amounts and amounts with long fractions.
func (e *Engine) checkUnusualAmount(_ context.Context, rc *ruleContext) (ruleResult, error) {
	amount := rc.txn.Amount
	roundLarge := amount.Mod(roundHundred).IsZero() && amount.GreaterThanOrEqual(largeRoundMin)

	longFraction := false
	if i := strings.IndexByte(amount.String(), '.'); i >= 0 {
		longFraction = len(amount.String())-i-1 > maxFractionDigits
	}

	return ruleResult{
		triggered: roundLarge || longFraction,
		points:    pointsUnusualAmount,
		reason:    ReasonUnusualAmount,
	}, nil
}

func (e *Engine) checkGeolocation(ctx context.Context, rc *ruleContext) (ruleResult, error) {
	if e.geo == nil || rc.txn.IP == "" {
		return ruleResult{}, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.geoTimeout)
	defer cancel()

	res, err := e.geo.Lookup(lookupCtx, rc.txn.IP)
	if err != nil {
		return ruleResult{}, fmt.Errorf("geolocation lookup: %w", err)
	}
	if res == nil {
		return ruleResult{}, errors.New("geolocation lookup returned no result")
	}

	return ruleResult{
		triggered: res.Suspicious,
		points:    pointsLocation,
		reason:    ReasonLocation,
	}, nil
}

func (e *Engine) checkTimeOfDay(_ context.Context, rc *ruleContext) (ruleResult, error) {
	hour := rc.now.Hour()
	return ruleResult{
		triggered: hour >= unusualHourStart && hour <= unusualHourEnd,
		points:    pointsUnusualHour,
		reason:    ReasonUnusualHour,
	}, nil
}
