package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/middlewares"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
	"github.com/taptapmatrix/tap_backend/workflow"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("tap-backend")

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

type PubSubMessage struct {
	Message struct {
		Data []byte `json:"data,omitempty"`
		ID   string `json:"id"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func getRedisClient(redisAddress string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
}

func ledgerFeedPubSubHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg PubSubMessage
		logger := config.GetLogger()

		// Redis lock is a best-effort optimization.
		// Reliability must not depend on Redis: the consumer also holds a durable
		// idempotency key per message inside ProcessLedgerFeedMessage().
		redisLock := config.GetRedisLock()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server.go", "ledgerFeedPubSubHandler", "io.ReadAll", nil, err)
			// Malformed request body: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		if err := json.Unmarshal(body, &msg); err != nil {
			config.LogError(logger, "server.go", "ledgerFeedPubSubHandler", "Unmarshal body", body, err)
			// Malformed request: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		var m config.LedgerFeedMessage
		if err := json.Unmarshal(msg.Message.Data, &m); err != nil {
			config.LogError(logger, "server.go", "ledgerFeedPubSubHandler", "Unmarshal pubsub message", msg.Message.Data, err)
			// Malformed Pub/Sub payload: ack/drop to avoid infinite retries.
			c.Status(http.StatusNoContent)
			return
		}

		// Basic validation to avoid retry loops on poisoned messages.
		if m.ID <= 0 || m.ReferenceType == "" {
			config.LogError(logger, "server.go", "ledgerFeedPubSubHandler", "Invalid pubsub message (missing required fields)", m, fmt.Errorf("id/reference_type required"))
			c.Status(http.StatusNoContent)
			return
		}

		// Correlation ID propagation: prefer payload correlation_id; fall back to Pub/Sub message ID.
		correlationID := m.CorrelationId
		if correlationID == "" {
			correlationID = msg.Message.ID
		}

		// Best-effort: try to obtain a lock for the summary day to avoid long in-request blocking.
		// If Redis is unavailable / lock cannot be obtained, continue anyway; the upsert serializes safely.
		var lock *redislock.Lock
		lockKey := fmt.Sprintf("lock:summary:%s", models.SummaryDay(m.OccurredAt).Format("2006-01-02"))
		if redisLock == nil {
			logger.WithFields(logrus.Fields{
				"field":          "ledgerFeedPubSubHandler",
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.Message.ID,
			}).Warn("redis lock not ready; proceeding without redis lock")
		} else {
			lock, err = redisLock.Obtain(c.Request.Context(), lockKey, 30*time.Second, nil)
			if err == redislock.ErrNotObtained {
				logger.WithFields(logrus.Fields{
					"field":          "ledgerFeedPubSubHandler",
					"reference_type": m.ReferenceType,
					"reference_id":   m.ReferenceId,
					"message_id":     msg.Message.ID,
				}).Warn("could not obtain redis lock; proceeding without redis lock")
				lock = nil
			} else if err != nil {
				logger.WithFields(logrus.Fields{
					"field":          "ledgerFeedPubSubHandler",
					"reference_type": m.ReferenceType,
					"reference_id":   m.ReferenceId,
					"message_id":     msg.Message.ID,
				}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				logger.WithFields(logrus.Fields{
					"field":        "ledgerFeedPubSubHandler",
					"reference_id": m.ReferenceId,
					"message_id":   msg.Message.ID,
				}).Warn("failed to release redis lock: " + releaseErr.Error())
			}
		}()

		ctx := utils.SetUsernameInContext(c.Request.Context(), "System")
		ctx = utils.SetCorrelationIdInContext(ctx, correlationID)
		if err := workflow.ProcessLedgerFeedMessage(ctx, config.GetDB(), logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "ledgerFeedPubSubHandler",
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.Message.ID,
				"correlation_id": correlationID,
			}).Error("pubsub processing failed: " + err.Error())
			// Non-2xx tells Pub/Sub to retry (and potentially route to DLQ).
			c.Status(http.StatusInternalServerError)
			return
		}

		// Success: ack.
		c.Status(http.StatusNoContent)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/auth/login", loginHandler())
	r.POST("/auth/logout", logoutHandler())
	r.POST("/auth/register", registerHandler())

	r.GET("/tap/balance/:id", balanceHandler())
	r.GET("/tap/statements/:id", statementHandler())
	r.POST("/tap/transfer", transferHandler())
	r.POST("/tap/tax/preview", taxPreviewHandler())

	r.GET("/vesting/:id", vestingScheduleHandler())
	r.POST("/vesting/:id/claim", vestingClaimHandler())
	r.POST("/vesting/:id/revoke", vestingRevokeHandler())

	r.POST("/treasury/transactions", treasuryInitiateHandler())
	r.POST("/treasury/transactions/:id/sign", treasurySignHandler())
	r.POST("/treasury/transactions/:id/execute", treasuryExecuteHandler())
	r.POST("/treasury/transactions/:id/reject", treasuryRejectHandler())

	r.POST("/withdrawals", withdrawalHandler())

	r.POST("/pubsub", ledgerFeedPubSubHandler())
	// Ops tooling (admin only): replay outbox messages that were marked DEAD/FAILED.
	r.POST("/internal/ops/outbox/replay", outboxReplayHandler())
	r.POST("/internal/reports/ledger-export", ledgerExportHandler())

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Start outbox dispatcher (publishes AFTER commit).
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	defer cancelDispatcher()
	go workflow.NewOutboxDispatcher(db, logger).Run(dispatcherCtx)

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelDispatcher()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
