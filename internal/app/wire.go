//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/crashdesk/ondemand/internal/adapter/outbound/postgres"
	redisadapter "github.com/crashdesk/ondemand/internal/adapter/outbound/redis"
	"github.com/crashdesk/ondemand/internal/adapter/outbound/uploader"
	"github.com/crashdesk/ondemand/internal/infra/config"
	"github.com/crashdesk/ondemand/internal/infra/reportstore"
	"github.com/crashdesk/ondemand/internal/port/outbound"
)

// InfraSet provides connections to external systems.
var InfraSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	provideRedis,
	provideS3Client,
	provideRegistry,
	provideMetrics,
)

// AdapterSet provides outbound adapters.
var AdapterSet = wire.NewSet(
	postgres.NewReportAdapter,
	provideReportStorage,
	redisadapter.NewOnDemandStats,
	redisadapter.NewRateLimiter,
	provideUploader,
	wire.Bind(new(outbound.ReportUploaderPort), new(*uploader.Uploader)),
	provideReportStore,
	wire.Bind(new(outbound.ReportStorePort), new(*reportstore.Store)),
	provideEventBus,
)

// DomainSet provides the on-demand domain.
var DomainSet = wire.NewSet(
	provideSettings,
	provideOnDemandModel,
	provideReportManager,
	provideArbiter,
)

// HTTPSet provides handlers and the router.
var HTTPSet = wire.NewSet(
	provideOnDemandHandler,
	provideReportHandler,
	provideDataCollectionHandler,
	provideHealthHandler,
	provideRouter,
)

func initializeApp(cfg *config.Config) (*App, func(), error) {
	wire.Build(InfraSet, AdapterSet, DomainSet, HTTPSet, newApp)
	return nil, nil, nil
}
