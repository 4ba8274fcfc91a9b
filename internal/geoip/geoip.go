// Package geoip answers whether a client IP comes from a suspicious location.
package geoip

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/models"
)

const unknownCountry = "unknown"

// StaticLookup flags addresses inside a fixed set of networks. With no
// networks configured every address is clear. A client IP that cannot be
// parsed is clear too: it is request metadata, not a provider failure.
type StaticLookup struct {
	suspicious []netip.Prefix
	logger     *zap.Logger
}

// NewStaticLookup parses CIDRs such as "203.0.113.0/24".
func NewStaticLookup(cidrs ...string) (*StaticLookup, error) {
	l := &StaticLookup{logger: zap.NewNop()}
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, fmt.Errorf("parse suspicious network %q: %w", c, err)
		}
		l.suspicious = append(l.suspicious, p)
	}
	return l, nil
}

// WithLogger sets the logger used to report unparseable client IPs.
func (l *StaticLookup) WithLogger(logger *zap.Logger) *StaticLookup {
	l.logger = logger
	return l
}

func (l *StaticLookup) Lookup(_ context.Context, ip string) (*models.GeoResult, error) {
	addr, ok := parseClientIP(ip)
	if !ok {
		l.logger.Warn("unparseable client ip, treating as clear", zap.String("ip", ip))
		return &models.GeoResult{Country: unknownCountry}, nil
	}
	for _, p := range l.suspicious {
		if p.Contains(addr) {
			return &models.GeoResult{Country: unknownCountry, Suspicious: true}, nil
		}
	}
	return &models.GeoResult{Country: unknownCountry}, nil
}

// parseClientIP accepts a bare address or host:port, ignoring surrounding
// whitespace. IPv4-mapped IPv6 addresses are unmapped so IPv4 networks match.
func parseClientIP(raw string) (netip.Addr, bool) {
	s := strings.TrimSpace(raw)
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap(), true
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	return netip.Addr{}, false
}
