//go:build wireinject
// +build wireinject

package di

import (
	"SentiMatch/internal/usecase"
	"SentiMatch/pkg/config"
	"SentiMatch/pkg/logger"
	"SentiMatch/pkg/server"

	"github.com/google/wire"
)

var inputSet = wire.NewSet(
	ProvideClickHouseClient,
	ProvideEventSource,
	ProvidePriceSource,
	ProvideInputLoader,
)

var sinkSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideReportStore,
	ProvideReportSink,
)

// InitializeSweep wires a local sweep writing to every configured output.
func InitializeSweep(cfg *config.Config, l *logger.Logger) (*usecase.SweepUseCase, func(), error) {
	wire.Build(
		ProvideMetrics,
		ProvideSweepConfig,
		ProvideOptionalRedisClient,
		inputSet,
		sinkSet,
		ProvideSweepUseCase,
	)
	return nil, nil, nil
}

// InitializeDispatch wires the scenario job publisher.
func InitializeDispatch(cfg *config.Config, l *logger.Logger) (*usecase.DispatchUseCase, func(), error) {
	wire.Build(
		ProvideSweepConfig,
		ProvideRedisClient,
		ProvideReportStore,
		ProvideQueuePublisher,
		ProvideScenarioPublisher,
		ProvideDispatchUseCase,
	)
	return nil, nil, nil
}

// InitializeWorker wires the queue consumer evaluating scenario jobs.
func InitializeWorker(cfg *config.Config, l *logger.Logger) (*server.App, func(), error) {
	wire.Build(
		ProvideMetrics,
		ProvideRedisClient,
		inputSet,
		sinkSet,
		ProvideScenarioJob,
		ProvideQueueConsumer,
		ProvideWorkerApp,
	)
	return nil, nil, nil
}

// InitializeServer wires the report API.
func InitializeServer(cfg *config.Config, l *logger.Logger) (*ServeApp, func(), error) {
	wire.Build(
		ProvideMetrics,
		ProvideSweepConfig,
		ProvideOptionalRedisClient,
		inputSet,
		sinkSet,
		ProvideSweepUseCase,
		ProvideReportsUseCase,
		ProvideScenariosHandler,
		ProvideHTTPServer,
		ProvideServeApp,
	)
	return nil, nil, nil
}

// InitializeFetcher wires the kline download.
func InitializeFetcher(cfg *config.Config, l *logger.Logger) (*usecase.PriceFetchUseCase, func(), error) {
	wire.Build(
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideKlineFetcher,
		ProvidePriceWriters,
		ProvidePriceFetchUseCase,
	)
	return nil, nil, nil
}
