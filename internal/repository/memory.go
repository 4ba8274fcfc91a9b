package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillrise/payment-security/internal/models"
)

// MemoryPaymentStateRepository backs the service when no database is configured.
type MemoryPaymentStateRepository struct {
	mu     sync.RWMutex
	states map[string]*models.PaymentStateInfo
	now    func() time.Time
}

func NewMemoryPaymentStateRepository() *MemoryPaymentStateRepository {
	return &MemoryPaymentStateRepository{
		states: make(map[string]*models.PaymentStateInfo),
		now:    time.Now,
	}
}

func (r *MemoryPaymentStateRepository) InsertInitialState(_ context.Context, transactionID string, state models.PaymentState, info *models.PaymentStateInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.states[transactionID]; exists {
		return nil
	}
	now := r.now()
	r.states[transactionID] = &models.PaymentStateInfo{
		State:     string(state),
		UserID:    info.UserID,
		Amount:    info.Amount,
		Currency:  info.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *MemoryPaymentStateRepository) TransitionState(_ context.Context, transactionID string, from, to models.PaymentState) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.states[transactionID]
	if !ok || info.State != string(from) {
		return 0, nil
	}
	info.PreviousState = info.State
	info.State = string(to)
	info.UpdatedAt = r.now()
	return 1, nil
}

func (r *MemoryPaymentStateRepository) GetByTransactionID(_ context.Context, transactionID string) (*models.PaymentStateInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.states[transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *info
	return &cp, nil
}

// MemoryAuditStore keeps audit events in process memory. It serves as both
// sink and counter when PostgreSQL is not configured.
type MemoryAuditStore struct {
	mu     sync.RWMutex
	events []models.AuditEvent
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Name() string { return "memory" }

func (s *MemoryAuditStore) Write(_ context.Context, event *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemoryAuditStore) Events() []models.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

// CountEvents applies the same rules as the PostgreSQL query.
func (s *MemoryAuditStore) CountEvents(_ context.Context, since time.Time) (*models.EventCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c models.EventCounts
	for i := range s.events {
		e := &s.events[i]
		if e.Timestamp.Before(since) {
			continue
		}

		switch e.EventType {
		case models.AuditSuccess:
			c.Total++
			c.Successful++
		case models.AuditFailed:
			c.Total++
			c.Failed++
			if detail(e, DetailCode) == string(models.CodeFraudDetected) {
				c.Blocked++
			}
		case models.AuditError:
			c.Total++
			c.Errors++
		}

		switch detail(e, DetailRiskLevel) {
		case string(models.RiskHigh):
			c.HighRisk++
		case string(models.RiskMedium):
			c.MediumRisk++
		case string(models.RiskLow):
			c.LowRisk++
		}
	}
	return &c, nil
}

func detail(e *models.AuditEvent, key string) string {
	v, ok := e.MaskedDetails[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
