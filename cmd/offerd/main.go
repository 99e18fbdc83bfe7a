package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/offer-generator/internal/app"
	"github.com/joseph-ayodele/offer-generator/internal/common"
	"github.com/joseph-ayodele/offer-generator/internal/server"
)

func main() {
	common.LoadDotEnv(nil)
	cfg := common.LoadConfig()

	logger, err := common.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config.invalid", zap.Error(err))
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("app.init.failed", zap.Error(err))
	}
	defer a.Close()

	// Healthcheck DB on startup
	if err := server.PingDB(ctx, a.DB, logger, cfg.Database.DialTimeout); err != nil {
		logger.Fatal("db.health.failed", zap.Error(err))
	}
	counts, err := a.DB.TableCounts(ctx)
	if err != nil {
		logger.Fatal("db.counts.failed", zap.Error(err))
	}
	if counts["vehicles"] == 0 {
		logger.Warn("catalog.empty", zap.String("hint", "run `offergen catalog seed` or `offergen catalog import <file>`"))
	}

	grpcServer, hs := server.NewGRPCServer(a.Service, logger)
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewHTTPServer(a.Service, cfg.Document.OutputDir, cfg.Pricing.Currency, func(ctx context.Context) error {
			return server.PingDB(ctx, a.DB, logger, time.Second)
		}, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// generation waits on the completion call
		WriteTimeout: cfg.LLM.Timeout*time.Duration(cfg.LLM.MaxRetries+1) + 30*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		logger.Info("grpc.serving", zap.String("addr", cfg.Server.GRPCAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("http.serving", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown.start")
		hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("offerd.stopped", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	logger.Info("offerd.stopped")
}
