package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/api"
	"github.com/skillrise/payment-security/internal/audit"
	"github.com/skillrise/payment-security/internal/config"
	"github.com/skillrise/payment-security/internal/crypto"
	"github.com/skillrise/payment-security/internal/fraud"
	"github.com/skillrise/payment-security/internal/gateway"
	"github.com/skillrise/payment-security/internal/geoip"
	"github.com/skillrise/payment-security/internal/handlers"
	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/repository"
	"github.com/skillrise/payment-security/internal/service"
	"github.com/skillrise/payment-security/internal/telemetry"
	"github.com/skillrise/payment-security/internal/validation"
)

const (
	stateTopic  = "payment.state.changed"
	tokenTTL    = 90 * 24 * time.Hour
	mockLatency = 50 * time.Millisecond
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(api.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, api.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	logger.Info("Starting payment security service", zap.String("environment", cfg.Environment))

	// Payment states and audit events: PostgreSQL when configured, memory otherwise
	var (
		stateRepo interfaces.PaymentStateRepository
		counter   interfaces.EventCounter
		sinks     []interfaces.AuditSink
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repo := repository.NewPaymentStateRepository(db)
		if err := repo.InitDB(ctx); err != nil {
			logger.Fatal("Failed to initialize payment state table", zap.Error(err))
		}
		auditRepo := repository.NewAuditRepository(db)
		if err := auditRepo.InitDB(ctx); err != nil {
			logger.Fatal("Failed to initialize audit table", zap.Error(err))
		}
		stateRepo, counter = repo, auditRepo
		sinks = append(sinks, auditRepo)
	} else {
		logger.Warn("DATABASE_URL not set, payment states and audit events are kept in memory")
		memAudit := repository.NewMemoryAuditStore()
		stateRepo, counter = repository.NewMemoryPaymentStateRepository(), memAudit
		sinks = append(sinks, memAudit)
	}

	// Redis backs the token store and optionally the velocity windows
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	}

	var tokenStore interfaces.TokenStore = repository.NewMemoryTokenStore()
	if rdb != nil {
		tokenStore = repository.NewRedisTokenStore(rdb, tokenTTL)
	}

	var (
		velocity    interfaces.VelocityStore
		memVelocity *fraud.MemoryVelocityStore
	)
	switch cfg.Velocity.Backend {
	case "redis":
		if rdb == nil {
			logger.Fatal("VELOCITY_BACKEND=redis requires REDIS_URL")
		}
		velocity = fraud.NewRedisVelocityStore(rdb, cfg.Limits.HistoryRetention)
	default:
		memVelocity = fraud.NewMemoryVelocityStore(cfg.Limits.HistoryRetention)
		velocity = memVelocity
	}

	// Kafka carries audit events and payment state changes
	var stateWriter *kafka.Writer
	if cfg.KafkaBrokers != "" {
		auditWriter := audit.NewKafkaWriter(cfg.KafkaBrokers, cfg.Security.AuditTopic)
		defer auditWriter.Close()
		sinks = append(sinks, audit.NewKafkaSink(auditWriter))

		stateWriter = &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
			Topic:    stateTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer stateWriter.Close()
	}

	var geo interfaces.GeoIPLookup
	switch cfg.GeoIP.Provider {
	case "nats":
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()
		geo = geoip.NewNATSLookup(nc, cfg.GeoIP.Subject)
	default:
		static, err := geoip.NewStaticLookup(cfg.GeoIP.SuspiciousNetworks...)
		if err != nil {
			logger.Fatal("Invalid GEOIP_SUSPICIOUS_NETWORKS", zap.Error(err))
		}
		geo = static.WithLogger(logger)
	}

	keys, err := crypto.NewKeyManager(cfg.Security.EncryptionKey, cfg.Security.KeySalt)
	if err != nil {
		logger.Fatal("Failed to initialize encryption key", zap.Error(err))
	}
	cipher, err := crypto.NewCipher(keys)
	if err != nil {
		logger.Fatal("Failed to initialize cipher", zap.Error(err))
	}
	tokenizer := crypto.NewTokenizer(cipher, tokenStore)

	var paymentGateway interfaces.PaymentGateway = gateway.NewMockGateway(mockLatency)
	if cfg.Gateway.Provider == "stripe" {
		paymentGateway = gateway.NewStripeGateway(cfg.Gateway.StripeKey)
	}

	attempts := fraud.NewMemoryAttemptLimiter(cfg.Limits.MaxFailedAttempts, cfg.Limits.HistoryRetention)
	engine := fraud.NewEngine(velocity, geo, cfg.Limits, cfg.Timeouts.GeoLookup, logger)
	validator := validation.NewValidator(cfg.Limits.MaxTransactionAmount, nil)
	auditLogger := audit.NewLogger(logger, sinks...)
	reports := audit.NewReportGenerator(counter, audit.ReportFeatures{
		EncryptionEnabled:   true,
		TokenizationEnabled: true,
		AuditLogging:        true,
	}, logger)

	deps := service.Dependencies{
		Validator:      validator,
		Fraud:          engine,
		Gateway:        paymentGateway,
		Audit:          auditLogger,
		Repo:           stateRepo,
		Attempts:       attempts,
		GatewayTimeout: cfg.Timeouts.Gateway,
		Logger:         logger,
	}
	if stateWriter != nil {
		deps.StateEvents = stateWriter
	}
	orchestrator := service.NewOrchestrator(deps)

	scheduler, err := newScheduler(cfg.Schedule, memVelocity, attempts, reports, logger)
	if err != nil {
		logger.Fatal("Failed to configure scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := api.NewRouter(
		handlers.NewPaymentHandler(stateRepo, orchestrator, logger),
		handlers.NewSecurityHandler(validator, engine, tokenizer, reports, logger),
		cfg.TrustedProxies,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to configure router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Payment security service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newScheduler registers idle-window eviction and the periodic security
// report. memVelocity is nil when velocity windows live in Redis, where key
// expiry does the eviction.
func newScheduler(sched config.Schedule, memVelocity *fraud.MemoryVelocityStore, attempts *fraud.MemoryAttemptLimiter, reports *audit.ReportGenerator, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(sched.Eviction, func() {
		now := time.Now()
		users := 0
		if memVelocity != nil {
			users = memVelocity.EvictIdle(now)
		}
		limited := attempts.EvictIdle(now)
		logger.Debug("evicted idle fraud state",
			zap.Int("velocity_users", users),
			zap.Int("attempt_users", limited))
	})
	if err != nil {
		return nil, fmt.Errorf("eviction schedule %q: %w", sched.Eviction, err)
	}

	_, err = c.AddFunc(sched.Report, func() {
		if _, err := reports.GenerateSecurityReport(context.Background(), audit.DefaultReportDays); err != nil {
			logger.Error("scheduled security report failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("report schedule %q: %w", sched.Report, err)
	}

	return c, nil
}
