package di

import (
	"context"
	"fmt"
	"io"
	"time"

	domrepo "SentiMatch/internal/domain/repository"
	"SentiMatch/internal/handler/api"
	internalrepo "SentiMatch/internal/repository"
	"SentiMatch/internal/service/binance"
	"SentiMatch/internal/service/ratelimit"
	"SentiMatch/internal/services/matchrate"
	"SentiMatch/internal/usecase"
	"SentiMatch/pkg/cache"
	pkgch "SentiMatch/pkg/clickhouse"
	"SentiMatch/pkg/config"
	apphttp "SentiMatch/pkg/http"
	pkgkafka "SentiMatch/pkg/kafka"
	"SentiMatch/pkg/logger"
	"SentiMatch/pkg/metrics"
	"SentiMatch/pkg/queue"
	"SentiMatch/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ServeApp is the API process plus the optional sweep it can run at startup.
type ServeApp struct {
	App   *server.App
	Sweep *usecase.SweepUseCase
}

// ProvideMetrics registers collectors on the default registry served at /metrics.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

func ProvideSweepConfig(cfg *config.Config) matchrate.SweepConfig {
	return cfg.SweepConfig()
}

// ProvideClickHouseClient connects only when a source or sink needs ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *logger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.UsesClickHouse() {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx, pkgch.Config{
		Host:             cfg.ClickHouse.Host,
		Port:             cfg.ClickHouse.Port,
		Database:         cfg.ClickHouse.Database,
		User:             cfg.ClickHouse.User,
		Password:         cfg.ClickHouse.Password,
		UseHTTP:          cfg.ClickHouse.UseHTTP,
		AsyncInsert:      cfg.ClickHouse.AsyncInsert,
		WaitForAsync:     cfg.ClickHouse.WaitForAsync,
		DialTimeout:      cfg.ClickHouse.DialTimeout,
		ReadTimeout:      cfg.ClickHouse.ReadTimeout,
		MaxExecutionTime: cfg.ClickHouse.MaxExecutionTime,
		MaxOpenConns:     10,
		MaxIdleConns:     5,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, pkgch.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", logger.String("host", cfg.ClickHouse.Host), logger.String("database", cfg.ClickHouse.Database))

	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer is nil unless scenario summaries go to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Output.Kafka {
		return nil, func() {}, nil
	}
	producer, err := newKafkaProducer(cfg)
	if err != nil {
		return nil, nil, err
	}
	return producer, func() { _ = producer.Close() }, nil
}

func newKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		Linger:       cfg.Kafka.Producer.Linger,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisClient dials and pings Redis. The queue commands cannot run without it.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideOptionalRedisClient connects only when reports are cached in Redis.
func ProvideOptionalRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Output.Cache {
		return nil, func() {}, nil
	}
	return ProvideRedisClient(cfg)
}

// ProvideReportStore keeps reports in Redis behind a short-lived memory layer,
// or in process memory when no Redis client is available.
func ProvideReportStore(cfg *config.Config, rdb *redis.Client) domrepo.ReportStore {
	if rdb == nil {
		return internalrepo.NewCacheReportStore(cache.NewMemoryCache(10000), cfg.Output.CacheTTL)
	}
	lc := cache.NewLayeredCache(cache.NewRedisCache(rdb, cfg.Redis.Prefix), 1000, 15*time.Second)
	return internalrepo.NewCacheReportStore(lc, cfg.Output.CacheTTL)
}

func ProvideEventSource(cfg *config.Config, l *logger.Logger, ch *pkgch.Client) domrepo.EventSource {
	if cfg.Events.Source == "clickhouse" {
		s := internalrepo.NewCHEventStore(ch.DB(), cfg.ClickHouse.Database)
		s.SetLogger(l)
		return s
	}
	return internalrepo.NewFileEventSource(cfg.Events.BaseDir, cfg.Events.Dirs, l)
}

func ProvidePriceSource(cfg *config.Config, l *logger.Logger, ch *pkgch.Client) (domrepo.PriceSource, error) {
	if cfg.Prices.Source == "clickhouse" {
		interval, err := domrepo.ParseInterval(cfg.Prices.Interval)
		if err != nil {
			return nil, err
		}
		s := internalrepo.NewCHPriceStore(ch.DB(), cfg.ClickHouse.Database, cfg.Prices.Symbol, interval)
		s.SetLogger(l)
		return s, nil
	}
	return internalrepo.NewCSVPriceSource(cfg.Prices.CSVPath), nil
}

func ProvideInputLoader(cfg *config.Config, events domrepo.EventSource, prices domrepo.PriceSource, l *logger.Logger) *usecase.InputLoader {
	return usecase.NewInputLoader(events, prices, cfg.Analysis.PriceResolution, l)
}

// ProvideReportSink fans out to every enabled output plus the report store.
func ProvideReportSink(
	cfg *config.Config,
	l *logger.Logger,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	store domrepo.ReportStore,
) domrepo.ReportSink {
	sinks := []domrepo.ReportSink{store}
	if cfg.Output.Files {
		sinks = append(sinks, internalrepo.NewFileReportSink(cfg.Output.Dir, l))
	}
	if cfg.Output.ClickHouse && ch != nil {
		s := internalrepo.NewCHResultSink(ch.DB(), cfg.ClickHouse.Database)
		s.SetLogger(l)
		sinks = append(sinks, s)
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaSummarySink(producer, cfg.Output.KafkaTopic))
	}
	return internalrepo.NewMultiSink(sinks...)
}

func ProvideSweepUseCase(
	loader *usecase.InputLoader,
	sweepCfg matchrate.SweepConfig,
	sink domrepo.ReportSink,
	m domrepo.Metrics,
	l *logger.Logger,
) *usecase.SweepUseCase {
	return usecase.NewSweepUseCase(loader, sweepCfg, sink, m, l)
}

// ProvideQueuePublisher pushes scenario jobs onto the shared Redis list.
func ProvideQueuePublisher(cfg *config.Config, rdb *redis.Client) queue.Publisher {
	return queue.NewRedisPublisher(rdb, cfg.Queue.KeyPrefix)
}

func ProvideScenarioPublisher(q queue.Publisher) domrepo.ScenarioPublisher {
	return internalrepo.NewQueueScenarioPublisher(q)
}

func ProvideDispatchUseCase(
	pub domrepo.ScenarioPublisher,
	store domrepo.ReportStore,
	sweepCfg matchrate.SweepConfig,
	l *logger.Logger,
) *usecase.DispatchUseCase {
	return usecase.NewDispatchUseCase(pub, store, sweepCfg, l)
}

func ProvideScenarioJob(loader *usecase.InputLoader, sink domrepo.ReportSink, m domrepo.Metrics, l *logger.Logger) *usecase.ScenarioJob {
	return usecase.NewScenarioJob(loader, sink, m, l)
}

// ProvideQueueConsumer registers the scenario job; it is started by the App.
func ProvideQueueConsumer(cfg *config.Config, l *logger.Logger, rdb *redis.Client, job *usecase.ScenarioJob, m domrepo.Metrics) *queue.Consumer {
	return queue.NewConsumer(rdb, queue.Config{
		Prefix:     cfg.Queue.KeyPrefix,
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, l).
		Register(job).
		Observe(func(msgType string, _ int, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			m.RecordJob(msgType, result)
		})
}

func ProvideWorkerApp(cfg *config.Config, l *logger.Logger, consumer *queue.Consumer) *server.App {
	return server.New(l, cfg.Server.ShutdownTimeout).AddService("scenario-queue", consumer)
}

func ProvideReportsUseCase(cfg *config.Config, store domrepo.ReportStore, loader *usecase.InputLoader, m domrepo.Metrics) *usecase.ReportsUseCase {
	return usecase.NewReportsUseCase(store, loader, cfg.Analysis.ThresholdPct, m)
}

func ProvideScenariosHandler(cfg *config.Config, l *logger.Logger, reports *usecase.ReportsUseCase) *api.ScenariosHandler {
	limiter := ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec)
	return api.NewScenariosHandler(l, reports, ratelimit.Middleware(limiter))
}

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, h *api.ScenariosHandler) *apphttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return apphttp.NewServer([]apphttp.Handler{h},
		apphttp.WithPort(cfg.Server.Port),
		apphttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		apphttp.WithMetricsPath(metricsPath),
		apphttp.WithCORS(cfg.Server.CORSOrigins...),
		apphttp.WithLogger(l),
	)
}

func ProvideServeApp(cfg *config.Config, l *logger.Logger, srv *apphttp.Server, sweep *usecase.SweepUseCase) *ServeApp {
	app := server.New(l, cfg.Server.ShutdownTimeout).AddService("http", srv)
	return &ServeApp{App: app, Sweep: sweep}
}

func ProvideKlineFetcher(cfg *config.Config, l *logger.Logger) domrepo.KlineFetcher {
	return binance.New(cfg.Binance.BaseURL,
		binance.WithLimit(cfg.Binance.Limit),
		binance.WithRequestsPerSecond(cfg.Binance.RequestsPerSecond),
		binance.WithHTTPClient(apphttp.NewClient(
			apphttp.WithTimeout(cfg.Binance.Timeout),
			apphttp.WithRetry(cfg.Binance.MaxRetries, time.Second),
		)),
		binance.WithLogger(l),
	)
}

// ProvidePriceWriters always writes CSV and mirrors into ClickHouse when connected.
func ProvidePriceWriters(cfg *config.Config, l *logger.Logger, ch *pkgch.Client) []domrepo.PriceWriter {
	writers := []domrepo.PriceWriter{internalrepo.NewCSVPriceWriter(cfg.Binance.OutputDir, cfg.Binance.FilePrefix)}
	if ch != nil {
		interval, _ := domrepo.ParseInterval(cfg.Prices.Interval)
		s := internalrepo.NewCHPriceStore(ch.DB(), cfg.ClickHouse.Database, cfg.Prices.Symbol, interval)
		s.SetLogger(l)
		writers = append(writers, s)
	}
	return writers
}

func ProvidePriceFetchUseCase(fetcher domrepo.KlineFetcher, m domrepo.Metrics, l *logger.Logger, writers []domrepo.PriceWriter) *usecase.PriceFetchUseCase {
	return usecase.NewPriceFetchUseCase(fetcher, m, l, writers...)
}

type logShipping struct {
	l        *logger.Logger
	producer *pkgkafka.Producer
}

func (s *logShipping) Close() error {
	s.l.RemoveCollector()
	return s.producer.Close()
}

// StartLogShipping attaches the aggregated error-log collector when enabled.
// The returned closer detaches it and closes its producer.
func StartLogShipping(cfg *config.Config, l *logger.Logger) (io.Closer, error) {
	if !cfg.Log.Collect.Enabled {
		return nil, nil
	}
	producer, err := newKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	l.AddCollector(&logger.CollectionConfig{
		TimeInterval:   cfg.Log.Collect.Interval,
		CountThreshold: cfg.Log.Collect.CountThreshold,
		Topic:          cfg.Log.Collect.Topic,
		Publisher:      producer,
	})
	return &logShipping{l: l, producer: producer}, nil
}
