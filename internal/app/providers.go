package app

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/crashdesk/ondemand/cmd/server/docs" // swagger docs

	s3adapter "github.com/crashdesk/ondemand/internal/adapter/outbound/s3"
	"github.com/crashdesk/ondemand/internal/adapter/outbound/uploader"
	"github.com/crashdesk/ondemand/internal/domain/datacollection"
	"github.com/crashdesk/ondemand/internal/domain/ondemand"
	"github.com/crashdesk/ondemand/internal/domain/report"
	"github.com/crashdesk/ondemand/internal/infra/config"
	"github.com/crashdesk/ondemand/internal/infra/events"
	"github.com/crashdesk/ondemand/internal/infra/httpclient"
	"github.com/crashdesk/ondemand/internal/infra/reportstore"
	"github.com/crashdesk/ondemand/internal/port/outbound"
	portshttp "github.com/crashdesk/ondemand/internal/ports/http"
	"github.com/crashdesk/ondemand/internal/shared/cache"
	"github.com/crashdesk/ondemand/internal/shared/database"
	"github.com/crashdesk/ondemand/internal/shared/logger"
	"github.com/crashdesk/ondemand/internal/utils/metrics"
)

// provideLogger creates the zap logger from the log section.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.NewZapLogger(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     os.Stdout,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init zap logger: %w", err)
	}
	return log, func() { _ = log.Sync() }, nil
}

// provideDatabase opens the report metadata database.
func provideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}, nil
}

// provideRedis connects to redis for daily stats and rate limiting.
func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := cache.NewRedisClient(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	return client, func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
	}, nil
}

// provideS3Client creates the object storage client for report payloads.
func provideS3Client(cfg *config.Config) (*s3.Client, error) {
	client, err := s3adapter.NewClient(context.Background(), &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	return client, nil
}

func provideReportStorage(client *s3.Client, cfg *config.Config) outbound.StoragePort {
	return s3adapter.NewReportStorageAdapter(client, cfg.Storage.Bucket)
}

func provideReportStore(db outbound.ReportDatabasePort, storage outbound.StoragePort, cfg *config.Config, log *zap.Logger) *reportstore.Store {
	return reportstore.NewStore(db, storage, cfg.Storage.Prefix, log)
}

// provideRegistry creates the prometheus registry served on /metrics.
func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.NewWithRegistry("ondemand", reg)
}

// provideUploader creates the crash backend client, reporting every upload to metrics.
func provideUploader(cfg *config.Config, m *metrics.Metrics, log *zap.Logger) *uploader.Uploader {
	return uploader.New(cfg.Upload, httpclient.NewTransport(cfg.HTTPClient), log, uploader.WithObserver(m.RecordUpload))
}

// provideEventBus creates the event bus with metrics and daily stats handlers registered.
func provideEventBus(m *metrics.Metrics, stats outbound.OnDemandStatsPort, log *zap.Logger) *events.Bus {
	bus := events.NewBus(log)
	bus.Register(m.EventHandler())
	bus.Register(ondemand.NewStatsEventHandler(stats, log))
	return bus
}

// provideSettings converts the on_demand section into quota settings.
func provideSettings(cfg *config.Config) *ondemand.Settings {
	return &ondemand.Settings{
		UploadRate:          cfg.OnDemand.UploadRate,
		BackoffBase:         cfg.OnDemand.BackoffBase,
		BackoffStepDuration: cfg.OnDemand.BackoffStepDuration,
		MaxQueueSize:        cfg.OnDemand.MaxQueueSize,
		MaxUnsentReports:    cfg.OnDemand.MaxUnsentReports,
		MaxUploadDelay:      cfg.OnDemand.MaxUploadDelay,
	}
}

// provideOnDemandModel creates the quota gate. The cleanup drains its queue.
func provideOnDemandModel(
	settings *ondemand.Settings,
	store outbound.ReportStorePort,
	bus *events.Bus,
	m *metrics.Metrics,
	log *zap.Logger,
) (*ondemand.Model, func(), error) {
	model, err := ondemand.NewModel(settings, store, log, ondemand.WithPublisher(bus))
	if err != nil {
		return nil, nil, fmt.Errorf("init on-demand model: %w", err)
	}
	m.RegisterQueueDepth(model.QueuedCount)
	return model, model.Stop, nil
}

func provideReportManager(
	store outbound.ReportStorePort,
	up outbound.ReportUploaderPort,
	model *ondemand.Model,
	bus *events.Bus,
	cfg *config.Config,
	log *zap.Logger,
) *report.Manager {
	return report.NewManager(store, up, model, bus, &report.Config{
		SendConcurrency: cfg.Upload.SendConcurrency,
	}, log)
}

func provideArbiter(cfg *config.Config, log *zap.Logger) *datacollection.Arbiter {
	return datacollection.NewArbiter(cfg.DataCollection.Enabled, log)
}

func provideOnDemandHandler(
	model *ondemand.Model,
	manager *report.Manager,
	arbiter *datacollection.Arbiter,
	stats outbound.OnDemandStatsPort,
	log *zap.Logger,
) *portshttp.OnDemandHandler {
	return portshttp.NewOnDemandHandler(model, model, manager, arbiter, stats, log)
}

func provideReportHandler(manager *report.Manager, log *zap.Logger) *portshttp.ReportHandler {
	return portshttp.NewReportHandler(manager, log)
}

func provideDataCollectionHandler(arbiter *datacollection.Arbiter) *portshttp.DataCollectionHandler {
	return portshttp.NewDataCollectionHandler(arbiter)
}

// provideHealthHandler checks the database and redis.
func provideHealthHandler(db *gorm.DB, client *goredis.Client) *portshttp.HealthHandler {
	return portshttp.NewHealthHandler(map[string]portshttp.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	})
}

func provideRouter(
	cfg *config.Config,
	limiter outbound.RateLimiterPort,
	m *metrics.Metrics,
	reg *prometheus.Registry,
	log *zap.Logger,
	onDemand *portshttp.OnDemandHandler,
	reports *portshttp.ReportHandler,
	dataCollection *portshttp.DataCollectionHandler,
	health *portshttp.HealthHandler,
) *gin.Engine {
	routerCfg := portshttp.RouterConfig{
		Debug:           cfg.Log.Level == "debug",
		CORSOrigins:     cfg.Server.CORSOrigins,
		Swagger:         cfg.Server.Swagger,
		Metrics:         m,
		MetricsGatherer: reg,
		Logger:          log,
		OnDemand:        onDemand,
		Reports:         reports,
		DataCollection:  dataCollection,
		Health:          health,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimiter = limiter
		routerCfg.ExceptionLimit = cfg.RateLimit.ExceptionLimit
		routerCfg.ExceptionWindow = cfg.RateLimit.ExceptionWindow
	}
	return portshttp.NewRouter(routerCfg)
}
