package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/handlers"
	"github.com/skillrise/payment-security/internal/telemetry"
)

const ServiceName = "payment-security"

// NewRouter builds the HTTP API. Forwarding headers such as X-Forwarded-For
// are honoured only when the peer is one of trustedProxies; with none, the
// client ip is always the connection's remote address.
func NewRouter(payments *handlers.PaymentHandler, security *handlers.SecurityHandler, trustedProxies []string, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware(ServiceName, logger))

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": ServiceName})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/payments", payments.ProcessPayment)
		v1.GET("/payments/:id/state", payments.GetPaymentState)

		v1.POST("/fraud/check", security.CheckFraud)
		v1.POST("/validate/card", security.ValidateCard)
		v1.POST("/validate/amount", security.ValidateAmount)
		v1.POST("/tokens", security.Tokenize)
		v1.GET("/security/report", security.SecurityReport)
	}

	return r, nil
}
