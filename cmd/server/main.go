package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/invoiceflow/invoiceflow/internal/api"
	v1 "github.com/invoiceflow/invoiceflow/internal/api/v1"
	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/config"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/remote"
	"github.com/invoiceflow/invoiceflow/internal/service"
	"github.com/invoiceflow/invoiceflow/internal/types"
	"github.com/invoiceflow/invoiceflow/internal/validator"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInvoiceCache,

			// Backend client
			remote.NewClient,

			// Services
			provideServiceParams,
			service.NewInvoiceService,
			service.NewBulkService,

			// Handlers
			v1.NewInvoiceHandler,
			v1.NewHealthHandler,
			provideHandlers,

			// Router
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func provideServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	backend remote.Client,
	invoiceCache *cache.InvoiceCache,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:  log,
		Config:  cfg,
		Backend: backend,
		Cache:   invoiceCache,
	}
}

func provideHandlers(
	invoiceHandler *v1.InvoiceHandler,
	healthHandler *v1.HealthHandler,
) api.Handlers {
	return api.Handlers{
		Invoice: invoiceHandler,
		Health:  healthHandler,
	}
}

func provideRouter(cfg *config.Configuration, handlers api.Handlers) *gin.Engine {
	if cfg.Deployment.Mode == types.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address, "backend", cfg.Backend.BaseURL)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
