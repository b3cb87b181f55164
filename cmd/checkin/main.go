package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/api"
	"github.com/fossasia/eventyay-checkin/internal/checkin"
	"github.com/fossasia/eventyay-checkin/internal/config"
	"github.com/fossasia/eventyay-checkin/internal/eventyay"
	"github.com/fossasia/eventyay-checkin/internal/printer"
	"github.com/fossasia/eventyay-checkin/internal/statebus"
)

func main() {
	flags := pflag.NewFlagSet("checkin", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a YAML config file (default: ./config.yaml or /app/config.yaml)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── eventyay client ───────────────────────────────────────────────────────
	client := eventyay.NewClient(
		cfg.Eventyay.APIURL,
		cfg.Eventyay.DeviceToken,
		cfg.Eventyay.Organizer,
		cfg.Eventyay.EventSlug,
		cfg.Eventyay.Timeout(),
	)

	// ── Printer ───────────────────────────────────────────────────────────────
	prn := printer.New(newPrinterBackend(cfg.Printer), cfg.Printer.WorkDir, log)

	// ── Orchestrator ──────────────────────────────────────────────────────────
	kiosk := checkin.NewOrchestrator(client, prn, checkin.Options{
		PollAttempts: cfg.Badge.PollAttempts,
		PollInterval: cfg.Badge.PollInterval(),
	}, log)

	// ── Redis state publisher (optional) ──────────────────────────────────────
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis ping failed", zap.Error(err))
		}
		pub := statebus.NewPublisher(rdb, cfg.Redis.Channel, log)
		kiosk.Session().Subscribe(pub)
		log.Info("publishing session state", zap.String("channel", pub.Channel()))
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	group := r.Group("/api")
	if cfg.Server.APIKey != "" {
		group.Use(api.KeyMiddleware(cfg.Server.APIKey))
	} else {
		log.Warn("KIOSK_API_KEY not set: binding API is unauthenticated")
	}
	handler := api.NewHandler(kiosk, log)
	handler.Register(group)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}
	srv.RegisterOnShutdown(handler.Close)

	go func() {
		log.Info("HTTP server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("organizer", cfg.Eventyay.Organizer),
			zap.String("event", cfg.Eventyay.EventSlug),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	// Long enough for a running badge poll sequence to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func newPrinterBackend(cfg config.PrinterConfig) printer.Backend {
	if cfg.Mode == config.PrinterModeSpool {
		return printer.Spool{Dir: cfg.SpoolDir}
	}
	return printer.Command{Name: cfg.Command, Args: cfg.Args}
}
