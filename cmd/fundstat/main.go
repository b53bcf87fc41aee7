package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundStatApp/config"
	"fundStatApp/internal/app"
	"fundStatApp/internal/app/dto"
	httpserver "fundStatApp/internal/handlers/http"
	"fundStatApp/internal/lib/logger/handlers/slogpretty"
	"fundStatApp/pkg/utils"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutting down...")
		cancel()
	}()

	log.Info("Initializing app...")
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to initialize app: %v", err))
		os.Exit(1)
	}

	log.Info("Starting event processor...")
	go application.EventProcessor.Run(ctx)

	if cfg.Debug {
		// Generate demo payment traffic. Not for production use.
		generator := utils.NewPayEventGenerator()
		go func() {
			log.Info("Starting demo pay event generator...")
			for ctx.Err() == nil {
				events := generator.GenerateRandomPayEvents(100)
				for _, ev := range events {
					evDto := dto.FromModel(utils.NewFeedID(), ev)
					if application.KafkaProducer != nil {
						application.KafkaProducer.PublishPayEvent(ctx, evDto)
					} else {
						application.EventCh <- evDto
					}
				}
				time.Sleep(100 * time.Millisecond)
			}
			log.Info("Demo generator stopped")
		}()
	}

	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	httpServer := httpserver.NewServer(
		httpAddr,
		application.TrendingService,
		application.HoldingsService,
		application.StatsService,
		application.Broadcaster,
	)

	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", httpAddr))
		if err := httpServer.Start(); err != nil {
			log.Info(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()

	log.Info("Cleaning up app resources...")
	application.Cleanup(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Info(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	log.Info("Service stopped.")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
