package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ovenworks/storefront/internal/auth"
	"github.com/ovenworks/storefront/internal/domain"
	"github.com/ovenworks/storefront/internal/service"
	"github.com/ovenworks/storefront/pkg/health"
	"github.com/ovenworks/storefront/pkg/middleware"
)

// catalogCacheMaxAge is the Cache-Control max-age for public catalog reads.
const catalogCacheMaxAge = 60

// RouterConfig bundles the dependencies of the HTTP router.
type RouterConfig struct {
	ProductService *service.ProductService
	ReviewService  *service.ReviewService
	OrderService   *service.OrderService
	UserService    *service.UserService
	JWTManager     *auth.JWTManager
	HealthHandler  *health.Handler
	Logger         *slog.Logger
	CORS           middleware.CORSConfig
	ServiceName    string

	// PprofAllowedCIDRs enables /debug/pprof endpoints for the listed
	// networks. Empty means pprof is not registered.
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health and metrics endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, cfg.Logger)
	}

	// Token validator that bridges to the internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWTManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
	requireAuth := middleware.Auth(tokenValidator)
	requireAdmin := middleware.RequireRole(domain.RoleAdmin)

	authHandler := NewAuthHandler(cfg.UserService, cfg.Logger)
	userHandler := NewUserHandler(cfg.UserService, cfg.Logger)
	productHandler := NewProductHandler(cfg.ProductService, cfg.Logger)
	reviewHandler := NewReviewHandler(cfg.ReviewService, cfg.Logger)
	orderHandler := NewOrderHandler(cfg.OrderService, cfg.Logger)

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.RefreshToken)
	})

	// Catalog endpoints: public reads, admin writes
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogCacheMaxAge))

			r.Get("/", productHandler.ListProducts)
			r.Get("/{id}", productHandler.GetProduct)
			r.Get("/{id}/reviews", reviewHandler.ListReviews)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)

			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	// Review endpoints (auth required)
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireAuth)

		r.Post("/", reviewHandler.CreateReview)
		r.Put("/{id}", reviewHandler.UpdateReview)
		r.Delete("/{id}", reviewHandler.DeleteReview)
	})

	// Order endpoints
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireAuth)

		r.Post("/", orderHandler.CreateOrder)
		r.Get("/my", orderHandler.ListMyOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		r.Get("/{id}/tracking", orderHandler.GetTracking)
		r.Get("/{id}/contact-link", orderHandler.ContactLink)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/", orderHandler.ListOrders)
			r.Put("/{id}/status", orderHandler.UpdateStatus)
			r.Put("/{id}/tracking", orderHandler.UpdateTracking)
			r.Delete("/{id}", orderHandler.DeleteOrder)
		})
	})

	// User endpoints
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireAuth)

		r.Get("/me", userHandler.GetProfile)
		r.Put("/me", userHandler.UpdateProfile)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
			r.Put("/{id}/active", userHandler.SetUserActive)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	return r
}
