package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/audit"
	"github.com/skillrise/payment-security/internal/config"
	"github.com/skillrise/payment-security/internal/geoip"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/repository"
	"github.com/skillrise/payment-security/internal/telemetry"
)

const cliName = "paysecctl"

func reportCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a security report from the audit table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for reports")
			}

			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			gen := audit.NewReportGenerator(repository.NewAuditRepository(db), audit.ReportFeatures{
				EncryptionEnabled:   true,
				TokenizationEnabled: true,
				AuditLogging:        true,
			}, zap.NewNop())

			report, err := gen.GenerateSecurityReport(cmd.Context(), days)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", audit.DefaultReportDays, "Reporting window in days")
	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit event stream",
	}
	cmd.AddCommand(auditTailCmd())
	return cmd
}

func auditTailCmd() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print audit events from Kafka as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.KafkaBrokers == "" {
				return fmt.Errorf("KAFKA_BROKERS is required to tail audit events")
			}
			logger, err := telemetry.NewLogger(cliName, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			reader := audit.NewKafkaReader(cfg.KafkaBrokers, cfg.Security.AuditTopic, group)
			defer reader.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return audit.ConsumeEvents(ctx, reader, logger, func(e *models.AuditEvent) {
				if err := enc.Encode(e); err != nil {
					logger.Error("failed to print audit event", zap.String("id", e.ID), zap.Error(err))
				}
			})
		},
	}

	cmd.Flags().StringVar(&group, "group", cliName+"-tail", "Kafka consumer group")
	return cmd
}

func geoipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geoip",
		Short: "GeoIP lookup tooling",
	}
	cmd.AddCommand(geoipServeCmd())
	return cmd
}

func geoipServeCmd() *cobra.Command {
	var networks []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer NATS geoip lookups from a static list of suspicious networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := telemetry.NewLogger(cliName, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if !cmd.Flags().Changed("networks") {
				networks = cfg.GeoIP.SuspiciousNetworks
			}
			static, err := geoip.NewStaticLookup(networks...)
			if err != nil {
				return err
			}

			url := cfg.NatsURL
			if url == "" {
				url = nats.DefaultURL
			}
			nc, err := nats.Connect(url)
			if err != nil {
				return fmt.Errorf("connect to NATS: %w", err)
			}
			defer nc.Close()

			sub, err := geoip.Serve(nc, cfg.GeoIP.Subject, static.WithLogger(logger), logger)
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", cfg.GeoIP.Subject, err)
			}
			defer sub.Unsubscribe()

			logger.Info("serving geoip lookups",
				zap.String("subject", cfg.GeoIP.Subject),
				zap.Int("suspicious_networks", len(networks)))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&networks, "networks", nil, "Suspicious CIDRs (defaults to GEOIP_SUSPICIOUS_NETWORKS)")
	return cmd
}
