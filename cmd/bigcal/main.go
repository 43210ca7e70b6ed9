package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bigcal/internal/capture"
	"bigcal/internal/config"
	"bigcal/internal/feed"
	appLog "bigcal/internal/log"
	"bigcal/internal/web"
)

type flagConfig struct {
	configPath  string
	listen      string
	cacheDir    string
	once        bool
	capturePath string
}

func main() {
	appLog.Info("bigcal starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh_cron", conf.RefreshCron,
		"horizon_years", conf.HorizonYears,
		"max_visible_events", conf.MaxVisibleEvents,
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	feedSvc := feed.NewService(conf, flags.cacheDir)

	if flags.once {
		// Single fetch+expand cycle, no server.
		if err := feedSvc.Refresh(ctx); err != nil {
			appLog.Error("refresh failed", err)
			os.Exit(1)
		}
		appLog.Info("bigcal exiting")
		return
	}

	if err := feedSvc.Start(ctx); err != nil {
		appLog.Error("failed to start feed refresh schedule", err)
		os.Exit(1)
	}
	defer feedSvc.Stop()

	srv := web.NewServer(conf, feedSvc)

	if flags.capturePath != "" {
		go func() {
			// Give the listener a moment to come up.
			time.Sleep(1 * time.Second)
			err := capture.CalendarPNG(ctx, capture.Options{
				URL:        "http://" + conf.Listen + "/",
				OutputPath: flags.capturePath,
			})
			if err != nil {
				appLog.Error("calendar capture failed", err, "output", flags.capturePath)
				return
			}
			appLog.Info("calendar captured", "output", flags.capturePath)
		}()
	}

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("bigcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/bigcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.cacheDir, "cache-dir", filepath.Join(os.TempDir(), "bigcal-ics"), "Directory for cached ICS feed bodies")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+expand cycle and exit")
	flag.StringVar(&cfg.capturePath, "capture", "", "Capture the rendered calendar to this PNG path after startup")

	flag.Parse()

	return cfg
}
