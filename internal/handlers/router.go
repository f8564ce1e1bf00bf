package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/content"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/logger"
	"github.com/imrishuroy/go-storefront/internal/metrics"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/reviews"
	"github.com/imrishuroy/go-storefront/internal/users"
)

// IdempotencyStore is satisfied by idempotency.Store.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*idempotency.Record, error)
	MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error
}

// Config groups dependencies for the router.
type Config struct {
	Orders      *orders.Service
	Reviews     *reviews.Service
	Catalog     *catalog.Service
	Users       *users.Service
	Content     *content.Service
	Idempotency IdempotencyStore
	Issuer      *auth.Issuer
	Metrics     *metrics.HTTP
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET("/metrics", cfg.Metrics.Handler())
	}
	r.Use(auth.Middleware(cfg.Issuer))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterOrdersRoutes(r, cfg)
	RegisterReviewRoutes(r, cfg)
	RegisterCatalogRoutes(r, cfg)
	RegisterUserRoutes(r, cfg)
	RegisterContentRoutes(r, cfg)
	return r
}

func claimsOf(c *gin.Context) *auth.Claims {
	return auth.FromContext(c.Request.Context())
}

// idParam reads a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(name+" must be a positive integer", name)
	}
	return id, nil
}

// bindJSON decodes the body without validating it; services validate their own input.
func bindJSON(c *gin.Context, out interface{}) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return apperr.Validation("invalid request body: " + err.Error())
	}
	return nil
}
