// Package api wires the HTTP routes and middleware stack.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrofarm/market/internal/api/handler"
	"github.com/agrofarm/market/internal/api/middleware"
	"github.com/agrofarm/market/internal/config"
	"github.com/agrofarm/market/internal/security"
	"github.com/agrofarm/market/internal/service"
)

// Services groups everything the router needs to build its handlers.
type Services struct {
	Auth     service.AuthService
	Products service.ProductService
	Orders   service.OrderService
	Uploads  service.UploadService
}

// RouterConfig carries the router-level settings pulled from the
// application config.
type RouterConfig struct {
	Metrics     config.MetricsConfig
	Security    config.SecurityConfig
	UploadsDir  string
	BodyLimit   int64
	RateLimiter *security.RateLimiter
}

// NewRouter builds the chi router with the full middleware stack and
// all API routes mounted.
func NewRouter(logger *slog.Logger, services Services, cfg RouterConfig) http.Handler {
	if services.Auth == nil {
		panic("router requires AuthService")
	}
	if services.Products == nil {
		panic("router requires ProductService")
	}
	if services.Orders == nil {
		panic("router requires OrderService")
	}
	if services.Uploads == nil {
		panic("router requires UploadService")
	}

	r := chi.NewRouter()

	var metrics *middleware.Metrics
	mCfg := middleware.DefaultMetricsConfig()
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Namespace != "" {
			mCfg.Namespace = cfg.Metrics.Namespace
		}
		if cfg.Metrics.Subsystem != "" {
			mCfg.Subsystem = cfg.Metrics.Subsystem
		}
		if len(cfg.Metrics.Buckets) > 0 {
			mCfg.Buckets = cfg.Metrics.Buckets
		}
		metrics = middleware.NewMetrics(mCfg)
	}

	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	if metrics != nil {
		r.Use(metrics.Middleware(mCfg))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.Security.AllowedOrigins
	}

	r.Use(
		middleware.CORS(corsCfg),
		middleware.BodyLimit(middleware.BodyLimitConfig{
			MaxBytes: cfg.BodyLimit,
			Skip:     isProductImageUpload,
		}),
	)

	if cfg.RateLimiter != nil && cfg.Security.APIRateLimit > 0 {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:   cfg.RateLimiter,
			Limit:     cfg.Security.APIRateLimit,
			Window:    cfg.Security.APIRateWindow,
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
	}

	r.Use(
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     []string{"/healthz", "/metrics"},
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.UploadsDir != "" {
		fs := http.StripPrefix("/uploads/products/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Get("/uploads/products/*", fs.ServeHTTP)
	}

	registerAPIRoutes(r, services)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		http.NotFound(w, req)
	})

	return r
}

// isProductImageUpload matches POST /api/v1/admin/products/{id}/image,
// which carries multipart bodies larger than the global cap.
func isProductImageUpload(r *http.Request) bool {
	return r.Method == http.MethodPost &&
		strings.HasPrefix(r.URL.Path, "/api/v1/admin/products/") &&
		strings.HasSuffix(r.URL.Path, "/image")
}

func registerAPIRoutes(root chi.Router, services Services) {
	authHandler := handler.NewAuthHandler(services.Auth)
	productHandler := handler.NewProductHandler(services.Products, services.Uploads)
	orderHandler := handler.NewOrderHandler(services.Orders)

	root.Route("/api/v1", func(v1 chi.Router) {
		v1.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)

			auth.Group(func(protected chi.Router) {
				protected.Use(middleware.UserGuard(services.Auth))
				protected.Get("/me", authHandler.Me)
				protected.Patch("/me", authHandler.UpdateMe)
			})
		})

		v1.Route("/products", func(products chi.Router) {
			products.Get("/", productHandler.List)
			products.Get("/categories", productHandler.Categories)
			products.Get("/{id}", productHandler.Get)
		})

		v1.Route("/orders", func(orders chi.Router) {
			orders.Use(middleware.UserGuard(services.Auth))
			orders.Post("/", orderHandler.Create)
			orders.Get("/", orderHandler.List)
			orders.Get("/{id}", orderHandler.Get)
			orders.Post("/{id}/cancel", orderHandler.Cancel)
			orders.Get("/{id}/transitions", orderHandler.Transitions)
		})

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.UserGuard(services.Auth), middleware.AdminGuard())
			admin.Post("/products", productHandler.Create)
			admin.Patch("/products/{id}", productHandler.Update)
			admin.Delete("/products/{id}", productHandler.Delete)
			admin.Post("/products/{id}/image", productHandler.UploadImage)
			admin.Post("/orders/{id}/status", orderHandler.AdvanceStatus)
		})
	})
}
