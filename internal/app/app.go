package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crashdesk/ondemand/internal/domain/ondemand"
	"github.com/crashdesk/ondemand/internal/infra/config"
)

// App holds the assembled service.
type App struct {
	router  *gin.Engine
	logger  *zap.Logger
	model   *ondemand.Model
	cleanup func()
}

func newApp(
	router *gin.Engine,
	log *zap.Logger,
	model *ondemand.Model,
) *App {
	return &App{
		router: router,
		logger: log,
		model:  model,
	}
}

// New creates a new application instance from configuration.
func New(cfg *config.Config) (*App, error) {
	app, cleanup, err := initializeApp(cfg)
	if err != nil {
		return nil, err
	}
	app.cleanup = cleanup

	app.logger.Info("application initialized",
		zap.String("address", cfg.Server.Address),
		zap.Bool("data_collection", cfg.DataCollection.Enabled),
		zap.Int("max_queue_size", cfg.OnDemand.MaxQueueSize),
	)
	return app, nil
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Stop drains the on-demand queue and releases resources.
func (a *App) Stop() {
	a.logger.Info("stopping application",
		zap.Int64("queued", a.model.QueuedCount()),
		zap.Int("stored_reports", len(a.model.StoredActiveReportPaths())),
	)
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}
