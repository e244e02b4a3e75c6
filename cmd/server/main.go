package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/natpio/nasz-budzet/internal/adapter/amqp"
	grpcadapter "github.com/natpio/nasz-budzet/internal/adapter/grpc"
	"github.com/natpio/nasz-budzet/internal/adapter/repository"
	"github.com/natpio/nasz-budzet/internal/config"
	"github.com/natpio/nasz-budzet/internal/log"
	"github.com/natpio/nasz-budzet/internal/usecase/budget"
	"github.com/natpio/nasz-budzet/internal/usecase/seeder"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	root := newLogger(cfg)
	logger := log.WithComponent(root, log.ComponentApp)

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Configuration validation failed")
		os.Exit(1)
	}

	if err := run(cfg, root); err != nil {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, root zerolog.Logger) error {
	logger := log.WithComponent(root, log.ComponentApp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Setup Record Store
	store, err := repository.Open(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	// Seed the opening savings balance into an empty log
	seeded, err := seeder.NewSavingsSeeder(store, cfg.OpeningBalance(), time.Now).Seed(ctx)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info().Str(log.FieldSavings, cfg.OpeningSavings).Msg("Opening savings balance seeded")
	}

	// 2. Optional settlement event publisher
	var publisher budget.EventPublisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, root)
		if err != nil {
			return err
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("Settlement events enabled")
	} else {
		logger.Info().Msg("Settlement events disabled - no AMQP_URL provided")
	}

	// 3. Initialize Services (Use Cases)
	budgetService := budget.NewService(store, publisher, time.Now, root)

	// 4. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.UnaryInterceptor(grpcadapter.LoggingInterceptor(root)),
	)
	grpcadapter.RegisterLedgerServiceServer(grpcServer, grpcadapter.NewServer(budgetService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str(log.FieldOperation, log.OpStartup).Str("addr", lis.Addr().String()).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Str(log.FieldOperation, log.OpShutdown).Msg("Shutting down gracefully...")
		gracefulStop(grpcServer, cfg.ShutdownTimeout, logger)
		return nil
	})

	return g.Wait()
}

// gracefulStop drains in-flight calls, forcing a stop after timeout
func gracefulStop(grpcServer *grpclib.Server, timeout time.Duration, logger zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("gRPC server stopped")
	case <-time.After(timeout):
		logger.Warn().Msg("Shutdown timeout reached, forcing stop")
		grpcServer.Stop()
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logCfg := log.DefaultConfig()
	if err == nil {
		logCfg.Level = level
	}
	logCfg.Format = cfg.LogFormat
	return log.New(logCfg)
}
