package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lkadar/menucollect/app/api"
	"github.com/lkadar/menucollect/app/cfg"
	"github.com/lkadar/menucollect/app/database"
	"github.com/lkadar/menucollect/app/jobs"
	"github.com/lkadar/menucollect/app/vendors"
	"github.com/lkadar/menucollect/app/vendors/teletal"
	"golang.org/x/time/rate"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting MenuCollect", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	settings, err := vendors.LoadSettings(appCfg.VendorsFile)
	if err != nil {
		slog.Error("Failed to load vendor settings", "error", err)
		os.Exit(1)
	}

	registry := buildRegistry(appCfg, settings)
	for _, vendor := range registry.All() {
		slog.Info("Registered vendor",
			"vendor", string(vendor.Type), "name", vendor.Name, "enabled", vendor.Settings.Enabled)
	}

	foodRepo := database.NewFoodRepo(db)
	jobRunRepo := database.NewJobRunRepo(db)

	var images *jobs.ImageDownloader
	if appCfg.FetchImages {
		images = jobs.NewImageDownloader(&http.Client{}, appCfg.ImageDir, appCfg.BrowserUserAgent,
			time.Duration(appCfg.FetchTimeout)*time.Second)
	}

	orchestrator := jobs.NewOrchestrator(registry, foodRepo, jobRunRepo, images,
		appCfg.DataDir, appCfg.ImageDir, appCfg.WeeksToFetch, fetchDelay(appCfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if appCfg.RunOnce {
		if err := orchestrator.Run(ctx); err != nil {
			slog.Error("Collection run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(appCfg.CronSchedule, func() {
		if err := orchestrator.Run(ctx); err != nil {
			slog.Error("Scheduled collection run failed", "error", err)
		}
	}); err != nil {
		slog.Error("Invalid cron schedule", "schedule", appCfg.CronSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Collection schedule registered", "schedule", appCfg.CronSchedule)

	// One collection pass at startup so a fresh deployment has data before
	// the first scheduled run
	go func() {
		if err := orchestrator.Run(ctx); err != nil {
			slog.Error("Startup collection run failed", "error", err)
		}
	}()

	handler := api.NewHandler(foodRepo, jobRunRepo, registry, appCfg.Version)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func buildRegistry(appCfg *cfg.Cfg, settings map[vendors.VendorType]vendors.Settings) *vendors.Registry {
	httpClient := &http.Client{}
	timeout := time.Duration(appCfg.FetchTimeout) * time.Second

	// Raw JSON payloads barely change within a day; the cache keeps
	// repeated runs from hammering the vendor APIs. It is owned here, not
	// by any strategy.
	cache := vendors.NewResponseCache(24*time.Hour, 50)

	teletalClient := teletal.NewClient(appCfg.TeletalMenuURL, appCfg.TeletalAjaxURL,
		httpClient, appCfg.BrowserUserAgent, rate.NewLimiter(rate.Every(fetchDelay(appCfg)), 1))

	return vendors.NewRegistry(
		vendors.Vendor{
			Type:    vendors.VendorCityFood,
			Name:    "Cityfood",
			MenuURL: appCfg.CityFoodAPIURL,
			Strategy: vendors.NewJSONAPIStrategy(vendors.VendorCityFood, appCfg.CityFoodAPIURL,
				appCfg.CityFoodImageURL, httpClient, cache, appCfg.UserAgent, timeout),
			Settings: settings[vendors.VendorCityFood],
		},
		vendors.Vendor{
			Type:    vendors.VendorInterFood,
			Name:    "Interfood",
			MenuURL: appCfg.InterFoodAPIURL,
			Strategy: vendors.NewJSONAPIStrategy(vendors.VendorInterFood, appCfg.InterFoodAPIURL,
				appCfg.InterFoodImageURL, httpClient, cache, appCfg.UserAgent, timeout),
			Settings: settings[vendors.VendorInterFood],
		},
		vendors.Vendor{
			Type:    vendors.VendorEfood,
			Name:    "Efood",
			MenuURL: appCfg.EfoodAPIURL,
			Strategy: vendors.NewJSONAPIStrategy(vendors.VendorEfood, appCfg.EfoodAPIURL,
				appCfg.EfoodImageURL, httpClient, cache, appCfg.UserAgent, timeout),
			Settings: settings[vendors.VendorEfood],
		},
		vendors.Vendor{
			Type:     vendors.VendorTeletal,
			Name:     "Teletál",
			MenuURL:  appCfg.TeletalMenuURL,
			Strategy: teletal.NewStrategy(teletalClient, appCfg.DataDir),
			Settings: settings[vendors.VendorTeletal],
		},
	)
}

func fetchDelay(appCfg *cfg.Cfg) time.Duration {
	return time.Duration(appCfg.FetchDelay * float64(time.Second))
}
