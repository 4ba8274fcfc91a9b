package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestLoadRequiresEncryptionKey(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingEncryptionKey) {
		t.Fatalf("Load() error = %v, want ErrMissingEncryptionKey", err)
	}
}

func TestLoadRejectsShortKey(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if got := cfg.Limits.MaxDailyAmount.String(); got != "10000" {
		t.Errorf("MaxDailyAmount = %s, want 10000", got)
	}
	if got := cfg.Limits.MaxTransactionAmount.String(); got != "5000" {
		t.Errorf("MaxTransactionAmount = %s, want 5000", got)
	}
	if cfg.Limits.VelocityMaxCount != 5 {
		t.Errorf("VelocityMaxCount = %d, want 5", cfg.Limits.VelocityMaxCount)
	}
	if cfg.Limits.VelocityWindow != 10*time.Minute {
		t.Errorf("VelocityWindow = %v, want 10m", cfg.Limits.VelocityWindow)
	}
	if cfg.Gateway.Provider != "mock" || cfg.GeoIP.Provider != "none" || cfg.Velocity.Backend != "memory" {
		t.Errorf("unexpected providers: %+v %+v %+v", cfg.Gateway, cfg.GeoIP, cfg.Velocity)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies = %v, want none", cfg.TrustedProxies)
	}
}

func TestTrustedProxiesFromEnv(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" || cfg.TrustedProxies[1] != "192.168.1.10" {
		t.Errorf("TrustedProxies = %v", cfg.TrustedProxies)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("MAX_DAILY_AMOUNT", "2500.50")
	t.Setenv("VELOCITY_WINDOW", "15m")
	t.Setenv("VELOCITY_BACKEND", "REDIS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Limits.MaxDailyAmount.String(); got != "2500.5" {
		t.Errorf("MaxDailyAmount = %s, want 2500.5", got)
	}
	if cfg.Limits.VelocityWindow != 15*time.Minute {
		t.Errorf("VelocityWindow = %v, want 15m", cfg.Limits.VelocityWindow)
	}
	if cfg.Velocity.Backend != "redis" {
		t.Errorf("Backend = %q, want redis", cfg.Velocity.Backend)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payment.yaml")
	content := "max_failed_attempts: 7\ngateway_timeout: 3s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Limits.MaxFailedAttempts != 7 {
		t.Errorf("MaxFailedAttempts = %d, want 7", cfg.Limits.MaxFailedAttempts)
	}
	if cfg.Timeouts.Gateway != 3*time.Second {
		t.Errorf("Gateway timeout = %v, want 3s", cfg.Timeouts.Gateway)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("GATEWAY_PROVIDER", "paypal")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown gateway provider")
	}
}

func TestValidateStripeNeedsKey(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("GATEWAY_PROVIDER", "stripe")
	t.Setenv("STRIPE_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for stripe without key")
	}
}

func TestStaticGeoIPNetworks(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("GEOIP_PROVIDER", "static")
	t.Setenv("GEOIP_SUSPICIOUS_NETWORKS", "203.0.113.0/24, 198.51.100.0/24,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.GeoIP.SuspiciousNetworks) != 2 || cfg.GeoIP.SuspiciousNetworks[1] != "198.51.100.0/24" {
		t.Errorf("SuspiciousNetworks = %v", cfg.GeoIP.SuspiciousNetworks)
	}

	t.Setenv("GEOIP_SUSPICIOUS_NETWORKS", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for static provider without networks")
	}
}
