package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
)

type lookupRequest struct {
	IP string `json:"ip"`
}

type lookupResponse struct {
	Country    *string `json:"country"`
	Suspicious *bool   `json:"suspicious"`
	Error      string  `json:"error,omitempty"`
}

type requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSLookup asks a geolocation service over NATS request/reply. The caller's
// context bounds the wait.
type NATSLookup struct {
	nc      requester
	subject string
}

func NewNATSLookup(nc *nats.Conn, subject string) *NATSLookup {
	return &NATSLookup{nc: nc, subject: subject}
}

func (l *NATSLookup) Lookup(ctx context.Context, ip string) (*models.GeoResult, error) {
	data, err := json.Marshal(lookupRequest{IP: ip})
	if err != nil {
		return nil, err
	}

	msg, err := l.nc.RequestWithContext(ctx, l.subject, data)
	if err != nil {
		return nil, fmt.Errorf("geoip request: %w", err)
	}
	return decodeResponse(msg.Data)
}

// decodeResponse rejects replies that do not carry both fields, so a
// half-formed answer is never read as "not suspicious".
func decodeResponse(data []byte) (*models.GeoResult, error) {
	var resp lookupResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode geoip response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("geoip service: %s", resp.Error)
	}
	if resp.Country == nil || resp.Suspicious == nil {
		return nil, errors.New("geoip response missing fields")
	}
	return &models.GeoResult{Country: *resp.Country, Suspicious: *resp.Suspicious}, nil
}

// Serve answers lookups on subject using lookup. It backs the NATS lookup in
// development and tests.
func Serve(nc *nats.Conn, subject string, lookup interfaces.GeoIPLookup, logger *zap.Logger) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		reply := respond(msg.Data, lookup)
		if err := msg.Respond(reply); err != nil {
			logger.Error("failed to answer geoip lookup", zap.Error(err))
		}
	})
}

func respond(data []byte, lookup interfaces.GeoIPLookup) []byte {
	var req lookupRequest
	var resp lookupResponse

	if err := json.Unmarshal(data, &req); err != nil {
		resp.Error = "invalid request"
	} else if res, err := lookup.Lookup(context.Background(), req.IP); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Country = &res.Country
		resp.Suspicious = &res.Suspicious
	}

	out, _ := json.Marshal(resp)
	return out
}
