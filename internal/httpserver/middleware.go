package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/metrics"
	"storefront/internal/service/session"
)

type ctxKey string

const ownerCtxKey ctxKey = "owner"

// requireSession rejects the request with 401 unless an identity is signed in
// and stores its id for the handlers. Cart mutations made under the request
// context fail with 401 if that identity signs out before they run.
func requireSession(svc sessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := svc.CurrentID()
		if ownerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "sign in to use the cart"})
			return
		}
		ctx := context.WithValue(session.RequireCurrent(c.Request.Context()), ownerCtxKey, ownerID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func ownerFrom(c *gin.Context) string {
	id, _ := c.Request.Context().Value(ownerCtxKey).(string)
	return id
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http: request",
			zap.String("method", c.Request.Method),
			zap.String("route", routeOf(c)),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}

func requestMetrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := routeOf(c)
		collector.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		collector.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
