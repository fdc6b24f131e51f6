package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/mordonez/healthdash/internal/api/http"
	"github.com/mordonez/healthdash/internal/config"
	"github.com/mordonez/healthdash/internal/export"
	"github.com/mordonez/healthdash/internal/health"
	"github.com/mordonez/healthdash/internal/health/connectors"
	"github.com/mordonez/healthdash/internal/observability"
	"github.com/mordonez/healthdash/internal/scheduler"
	"github.com/mordonez/healthdash/internal/secrets"
	"github.com/mordonez/healthdash/internal/store"
)

var CLI struct {
	Secrets string `help:"Path to the JSON secrets file" default:".secrets.json"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Sync struct {
		PastDays int    `name:"past_days" help:"Number of past days to fetch (window always ends yesterday)" default:"7"`
		Apps     string `help:"Comma-separated list of app names to fetch from (e.g. oura,garmin); default all"`
		Online   bool   `help:"Download the remote dataset before merging and upload the results after"`
	} `cmd:"" help:"Run one fetch-merge-persist cycle"`

	Serve struct {
		Online bool `help:"Make the scheduled background syncs talk to the remote bucket"`
	} `cmd:"" help:"Serve the dashboard API with periodic background syncs"`

	Export struct{} `cmd:"" help:"Rewrite the CSV export from the stored dataset without fetching"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// .env is optional; everything has defaults.
	_ = godotenv.Load()

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sec, err := secrets.Load(CLI.Secrets)
	if err != nil {
		log.Error("failed to load secrets", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "sync":
		service, err := buildService(cfg, sec, CLI.Sync.Online, log)
		if err != nil {
			log.Error("failed to set up service", "error", err)
			os.Exit(1)
		}
		opts := health.RunOptions{
			PastDays: CLI.Sync.PastDays,
			Apps:     splitApps(CLI.Sync.Apps),
			Online:   CLI.Sync.Online,
		}
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		report, err := service.Run(runCtx, opts)
		observability.RecordRun(report, err)
		if err != nil {
			log.Error("sync failed", "error", err)
			os.Exit(1)
		}

	case "serve":
		service, err := buildService(cfg, sec, CLI.Serve.Online, log)
		if err != nil {
			log.Error("failed to set up service", "error", err)
			os.Exit(1)
		}
		if err := runServe(cfg, service, log); err != nil {
			log.Error("serve failed", "error", err)
			os.Exit(1)
		}

	case "export":
		local := store.NewFileStore(filepath.Join(cfg.DataDir, cfg.DatasetFile))
		records, err := local.Load()
		if err != nil {
			log.Error("failed to load dataset", "error", err)
			os.Exit(1)
		}
		exporter := export.NewCSVExporter(filepath.Join(cfg.DataDir, cfg.CSVFile))
		if err := exporter.Export(records); err != nil {
			log.Error("failed to export csv", "error", err)
			os.Exit(1)
		}
		log.Info("csv exported", "path", exporter.Path(), "days", len(records))
	}
}

// buildService wires connectors, stores and the exporter into a Service.
// The remote store exists only when online mode was requested, so offline
// runs hold no handle that could touch the bucket.
func buildService(cfg *config.AppConfig, sec *secrets.Secrets, online bool, log *slog.Logger) (*health.Service, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	registry := health.NewRegistry(
		connectors.NewOuraConnector(httpClient, sec.OuraAccessToken),
		connectors.NewGarminConnector(httpClient, sec.GarminAccessToken),
		connectors.NewStravaConnector(httpClient, sec.StravaClientID, sec.StravaClientSecret,
			filepath.Join(cfg.DataDir, "strava_access_token.json")),
		connectors.NewCronometerConnector(httpClient, sec.CronometerSessionNonce),
		connectors.NewGSheetConnector(httpClient, sec.GSheetCSVURL),
	)

	local := store.NewFileStore(filepath.Join(cfg.DataDir, cfg.DatasetFile))
	exporter := export.NewCSVExporter(filepath.Join(cfg.DataDir, cfg.CSVFile))

	var remote health.RemoteStore
	if online {
		if err := sec.ValidateOnline(); err != nil {
			return nil, err
		}
		s3, err := store.NewS3Store(store.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: sec.AWSAccessKeyID,
			SecretKey: sec.AWSSecretAccessKey,
			Bucket:    sec.AWSS3BucketName,
			UseSSL:    cfg.S3UseSSL,
		}, cfg.DataDir, sec.EncryptionKey, log)
		if err != nil {
			return nil, err
		}
		remote = s3
	}

	files := health.SyncedFiles{Dataset: cfg.DatasetFile, CSV: cfg.CSVFile}
	return health.NewService(registry, local, remote, exporter, files, log), nil
}

func runServe(cfg *config.AppConfig, service *health.Service, log *slog.Logger) error {
	sched := scheduler.New(service, health.RunOptions{
		PastDays: cfg.SyncPastDays,
		Online:   CLI.Serve.Online,
	}, cfg.SyncInterval, log)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "healthdash",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "healthdash",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("dashboard API listening", "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func splitApps(apps string) []string {
	if apps == "" {
		return nil
	}
	var out []string
	for _, a := range strings.Split(apps, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
