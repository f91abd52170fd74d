//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"icd/internal"
	"icd/internal/controllers"
	"icd/internal/detection"
	"icd/internal/providers"
	"icd/internal/services"
	"icd/internal/snapshot"
	"icd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.ProvideLogger,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		snapshot.NewZstdCompressor,
		snapshot.NewStore,
		detection.NewHTTPDetector,
		services.NewSnapshotService,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
