package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"google.golang.org/grpc"

	"github.com/bibbank/guarantee-messaging/internal/application/dto"
	"github.com/bibbank/guarantee-messaging/internal/application/usecase"
	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/service"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/config"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/memory"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/messaging"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/notify"
	infraPG "github.com/bibbank/guarantee-messaging/internal/infrastructure/postgres"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/scheduler"
	"github.com/bibbank/guarantee-messaging/internal/infrastructure/telemetry"
	grpcPresentation "github.com/bibbank/guarantee-messaging/internal/presentation/grpc"
	"github.com/bibbank/guarantee-messaging/internal/presentation/rest"
	kafkapkg "github.com/bibbank/guarantee-messaging/pkg/kafka"
	"github.com/bibbank/guarantee-messaging/pkg/observability"
	pgpkg "github.com/bibbank/guarantee-messaging/pkg/postgres"
	"github.com/bibbank/guarantee-messaging/pkg/tlsutil"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.Telemetry.ServiceName,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting guarantee-messaging",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"archive", cfg.Archive.Enabled,
		"kafka", cfg.Kafka.Enabled,
	)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("guarantee-messaging failed", "error", err)
		os.Exit(1)
	}
	logger.Info("guarantee-messaging stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// Initialize tracing
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = shutdownTracer(shutdownCtx)
		}()
	}

	// Initialize metrics
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer meterProvider.Shutdown(context.Background()) //nolint:errcheck
	meter := meterProvider.Meter(telemetry.MeterName)
	recorder, err := telemetry.NewRecorder(meter)
	if err != nil {
		return fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	// Core: broker, store and scheduler
	clock := clockwork.NewRealClock()
	broker := notify.NewBroker(cfg.Notify.SubscriberBuffer, logger)
	defer broker.Close()
	if err := telemetry.ObserveBroker(meter, broker); err != nil {
		return fmt.Errorf("failed to observe broker: %w", err)
	}

	store := memory.NewMessageStore(logger,
		memory.WithHistoryCapacity(cfg.Store.HistoryCapacity),
		memory.WithLatencyWindow(cfg.Store.LatencyWindow),
		memory.WithClock(clock),
		memory.WithPublisher(broker),
	)
	sched := scheduler.New(clock, logger)

	// Domain services
	validator := service.NewValidator()
	builder := service.NewMessageBuilder(validator)
	responses := service.NewResponseGenerator(builder)
	correlation := service.NewCorrelationEngine(store)
	scenarios := service.NewScenarioEngine(builder, responses, store, sched, logger)

	// Use cases
	uc := grpcPresentation.UseCases{
		Submit:       usecase.NewSubmitMessage(builder, responses, store, sched, recorder, logger),
		Receive:      usecase.NewReceiveMessage(validator, store, sched, recorder, logger),
		Validate:     usecase.NewValidateMessage(validator, recorder),
		Get:          usecase.NewGetMessage(store),
		Query:        usecase.NewQueryMessages(store),
		Search:       usecase.NewSearchMessages(store),
		DateRange:    usecase.NewListMessagesByDateRange(store),
		Thread:       usecase.NewGetThread(correlation),
		Related:      usecase.NewGetRelatedMessages(correlation),
		UpdateStatus: usecase.NewUpdateMessageStatus(store, logger),
		RunScenario:  usecase.NewRunScenario(scenarios, recorder, logger),
		Clear:        usecase.NewClearMessages(store, logger),
		Statistics:   usecase.NewGetStatistics(store),
		Recent:       usecase.NewListRecent(store),
	}

	// Components report only failures; a clean return on cancellation is silent.
	errCh := make(chan error, 6)
	spawn := func(name string, fn func(context.Context) error) {
		go func() {
			if err := fn(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}
	healthOpts := []rest.HealthOption{rest.WithMetrics(metricsHandler)}

	spawn("scheduler", sched.Start)

	// Optional Postgres archive
	if cfg.Archive.Enabled {
		archive, closeArchive, err := startArchive(ctx, cfg.Archive, logger)
		if err != nil {
			return err
		}
		defer closeArchive()
		sub := broker.Subscribe(event.TopicMessages)
		defer sub.Unsubscribe()
		spawn("archive", func(ctx context.Context) error { return archive.Run(ctx, sub.C()) })
		healthOpts = append(healthOpts, rest.WithCheck("archive", archive.HealthCheck))
	}

	// Optional Kafka relay and inbound consumer
	if cfg.Kafka.Enabled {
		kcfg := kafkapkg.Config{
			Brokers:       cfg.Kafka.Brokers,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			TLS:           cfg.Kafka.TLS,
			SASLEnabled:   cfg.Kafka.SASLEnabled,
			SASLMechanism: cfg.Kafka.SASLMechanism,
			SASLUsername:  cfg.Kafka.SASLUsername,
			SASLPassword:  cfg.Kafka.SASLPassword,
		}
		producer, err := kafkapkg.NewProducer(kcfg)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		defer producer.Close()

		relay := messaging.NewRelay(producer, cfg.Kafka.EventsTopic, logger)
		sub := broker.Subscribe(event.TopicMessages)
		defer sub.Unsubscribe()
		spawn("relay", func(ctx context.Context) error { return relay.Run(ctx, sub.C()) })

		receive := func(ctx context.Context, raw, senderID string) error {
			_, err := uc.Receive.Execute(ctx, dto.ReceiveMessageRequest{RawMessage: raw, SenderID: senderID})
			return err
		}
		consumer, err := kafkapkg.NewConsumer(kcfg, cfg.Kafka.InboundTopic,
			messaging.InboundHandler(receive, logger), logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		defer consumer.Close()
		spawn("consumer", consumer.Start)
	}

	// gRPC server
	serverOpts := []grpcPresentation.ServerOption{grpcPresentation.WithReflection(cfg.GRPCReflection)}
	if cfg.TLS.Enabled() {
		creds, err := tlsutil.ServerCredentials(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		serverOpts = append(serverOpts, grpcPresentation.WithGRPCOptions(grpc.Creds(creds)))
		logger.Info("gRPC TLS enabled", "cert", cfg.TLS.CertFile, "mutual", cfg.TLS.CAFile != "")
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}
	handler := grpcPresentation.NewMessagingHandler(uc, broker, logger)
	grpcServer := grpcPresentation.NewServer(handler, cfg.GRPCPort, logger, serverOpts...)

	// HTTP server (health checks + metrics)
	mux := http.NewServeMux()
	rest.NewHealthHandler(logger, healthOpts...).RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ShutdownTimeout,
	}

	spawn("grpc", grpcServer.Start)
	spawn("http", func(context.Context) error {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Wait for shutdown
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("component failed", "error", runErr)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	grpcServer.Stop()
	return runErr
}

// startArchive connects to Postgres, applies migrations and returns the archive.
func startArchive(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) (*infraPG.Archive, func(), error) {
	pgCfg := pgpkg.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Name,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
	}
	pool, err := pgpkg.NewPool(ctx, pgCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}
	if err := pgpkg.RunMigrations(pgCfg.DSN(), cfg.MigrationsDir); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate archive database: %w", err)
	}
	logger.Info("archive enabled", "host", cfg.Host, "database", cfg.Name)
	return infraPG.NewArchive(pool, logger), pool.Close, nil
}
