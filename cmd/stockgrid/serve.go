package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockgrid/stockgrid/internal/app"
	"github.com/stockgrid/stockgrid/internal/auth"
	"github.com/stockgrid/stockgrid/internal/inventory"
	"github.com/stockgrid/stockgrid/internal/locations"
	"github.com/stockgrid/stockgrid/internal/observability"
	"github.com/stockgrid/stockgrid/internal/platform/cache"
	"github.com/stockgrid/stockgrid/internal/platform/db"
	"github.com/stockgrid/stockgrid/internal/products"
	"github.com/stockgrid/stockgrid/internal/rbac"
	"github.com/stockgrid/stockgrid/internal/shared"
	"github.com/stockgrid/stockgrid/internal/view"
	"github.com/stockgrid/stockgrid/jobs"
)

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "stockgrid_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	metrics := observability.NewMetrics()
	services := app.NewServices(cfg, dbpool, redisClient, metrics, logger)

	admin, err := auth.AdminAccount(cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword, cfg.AdminPasswordHash)
	if err != nil {
		return fmt.Errorf("admin account: %w", err)
	}
	authService := auth.NewService(auth.NewStaticRepository(admin), services.Audit)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	rbacService := rbac.NewService()
	if err := rbacService.AssignRole(ctx, admin.ID, rbac.RoleAdmin.Name); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return fmt.Errorf("jobs client: %w", err)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        authHandler,
		ProductsHandler:    products.NewHandler(logger, services.Products, services.Inventory, templates, csrfManager, rbacMiddleware),
		ProductsAPI:        products.NewAPIHandler(logger, services.Products, rbacMiddleware),
		LocationsHandler:   locations.NewHandler(logger, services.Locations, jobClient, templates, csrfManager, rbacMiddleware),
		InventoryHandler:   inventory.NewHandler(logger, services.Inventory, services.Locations, rbacMiddleware),
		InventoryAPI:       inventory.NewAPIHandler(logger, services.Inventory, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService),
		Dashboard: &app.Dashboard{
			Logger:    logger,
			Templates: templates,
			CSRF:      csrfManager,
			Catalog:   services.Products,
			Registry:  services.Locations,
			Ledger:    services.Inventory,
		},
		JobHandler: jobs.NewHandler(inspector, logger),
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
