package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agrofarm/market/internal/api"
	"github.com/agrofarm/market/internal/async"
	"github.com/agrofarm/market/internal/auth/token"
	"github.com/agrofarm/market/internal/bootstrap"
	"github.com/agrofarm/market/internal/cache"
	"github.com/agrofarm/market/internal/config"
	"github.com/agrofarm/market/internal/event"
	"github.com/agrofarm/market/internal/job"
	"github.com/agrofarm/market/internal/migrations"
	"github.com/agrofarm/market/internal/notifier"
	"github.com/agrofarm/market/internal/repository/sqlite"
	"github.com/agrofarm/market/internal/security"
	"github.com/agrofarm/market/internal/service"
	"github.com/agrofarm/market/internal/support/hash"
	"github.com/agrofarm/market/internal/support/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AgroMarket server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})

	db, err := bootstrap.OpenSQLite(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return err
	}

	store := sqlite.NewStore(db)

	cacheStore := cache.NewStore(cache.Options{
		DefaultTTL:      cfg.Cache.DefaultTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	limiter, err := security.NewRateLimiter(cacheStore)
	if err != nil {
		return err
	}
	hasher, err := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	tokenManager, err := token.NewManager(token.Options{
		SigningKey: []byte(cfg.Auth.SigningKey),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		TTL:        cfg.Auth.TokenTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		return err
	}

	notificationQueue := async.NewNotificationQueue()
	sinks := event.Sinks{event.NewLogSink(logger)}
	if cfg.Notify.Enabled {
		sinks = append(sinks, async.NewMailSink(notificationQueue, store.Users(), cfg.Notify.AdminEmail))
	}

	authService := service.NewAuthService(store.Users(), hasher, tokenManager, limiter)
	productService := service.NewProductService(store.Products(), cacheStore)
	orderService := service.NewOrderService(store.Orders(), sinks, logger)
	uploadService := service.NewUploadService(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes, productService)

	scheduler := job.NewScheduler(logger)
	if cfg.Jobs.Enabled {
		emailJob := job.NewSendEmailJob(notificationQueue, notifier.NewLoggerService(logger), logger)
		if _, err := scheduler.Register("@every 30s", emailJob); err != nil {
			return err
		}
		lowStockJob := job.NewLowStockJob(store.Products(), cfg.Jobs.LowStockThreshold, logger)
		if _, err := scheduler.Register(fmt.Sprintf("@every %s", cfg.Jobs.LowStockEvery), lowStockJob); err != nil {
			return err
		}
		stalledJob := job.NewStalledOrdersJob(store.Orders(), cfg.Jobs.StalledPendingAfter, cfg.Jobs.StalledProcessingAfter, logger)
		if _, err := scheduler.Register(fmt.Sprintf("@every %s", cfg.Jobs.StalledSweepEvery), stalledJob); err != nil {
			return err
		}
		cleanupJob := job.NewUploadsCleanupJob(store.Products(), cfg.Uploads.Dir, cfg.Uploads.RetainUnused, logger)
		if _, err := scheduler.Register(cfg.Jobs.UploadsCleanupCron, cleanupJob); err != nil {
			return err
		}
	}
	scheduler.Start()

	router := api.NewRouter(logger, api.Services{
		Auth:     authService,
		Products: productService,
		Orders:   orderService,
		Uploads:  uploadService,
	}, api.RouterConfig{
		Metrics:     cfg.Metrics,
		Security:    cfg.Security,
		UploadsDir:  cfg.Uploads.Dir,
		BodyLimit:   cfg.HTTP.BodyLimitBytes,
		RateLimiter: limiter,
	})

	server := bootstrap.NewHTTPServer(cfg, router)

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "env", cfg.Log.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server exited cleanly")
	return nil
}
