package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	"storefront/internal/service/directory"
)

type sessionService interface {
	Signup(ctx context.Context, in directory.SignupInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*domain.Identity, error)
	CurrentID() string
	AddItemQuantity(ctx context.Context, ownerID string, item domain.CartItem, quantity int) (*domain.CartLine, error)
	RemoveLine(ctx context.Context, ownerID, lineID string) error
	UpdateQuantity(ctx context.Context, ownerID, lineID string, quantity int) error
	Clear(ctx context.Context, ownerID string) error
	ViewFor(ctx context.Context, ownerID string) (domain.CartView, error)
	Checkout(ctx context.Context, ownerID string) (*domain.Receipt, error)
}

type productService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Deps are the services the handlers call. Metrics is optional.
type Deps struct {
	Session  sessionService
	Products productService
	Metrics  *metrics.Collector
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, store Pinger, deps Deps, allowedOrigins []string) (*gin.Engine, error) {
	if deps.Session == nil || deps.Products == nil {
		return nil, errors.New("httpserver: session and product services are required")
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(accessLog(logger), gin.Recovery())
	if deps.Metrics != nil {
		router.Use(requestMetrics(deps.Metrics))
	}
	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	h := &handlers{session: deps.Session, products: deps.Products, logger: logger}

	auth := router.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout)
	router.GET("/me", h.me)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)

	authed := router.Group("", requireSession(deps.Session))
	authed.GET("/cart", h.getCart)
	authed.POST("/cart/items", h.addItem)
	authed.PATCH("/cart/items/:lineId", h.updateItem)
	authed.DELETE("/cart/items/:lineId", h.removeItem)
	authed.DELETE("/cart", h.clearCart)
	authed.POST("/checkout", h.checkout)

	return router, nil
}

type handlers struct {
	session  sessionService
	products productService
	logger   *zap.Logger
}
