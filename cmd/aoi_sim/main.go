// Command aoi_sim drives an AOI scene with a random walk and journals every
// visibility change through the configured storage backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/OCAP2/aoi/internal/cache"
	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/internal/dispatcher"
	"github.com/OCAP2/aoi/internal/handlers"
	"github.com/OCAP2/aoi/internal/influx"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/monitor"
	intOtel "github.com/OCAP2/aoi/internal/otel"
	"github.com/OCAP2/aoi/internal/parser"
	"github.com/OCAP2/aoi/internal/session"
	"github.com/OCAP2/aoi/internal/storage"
	"github.com/OCAP2/aoi/internal/worker"

	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ServiceName string = "aoi_sim"
)

type options struct {
	ConfigDir string
	Session   string
	Ticks     int
	Seed      int64
}

func main() {
	var opts options
	flag.StringVar(&opts.ConfigDir, "config", ".", "directory containing "+config.ConfigFileName)
	flag.StringVar(&opts.Session, "session", "random_walk", "session name")
	flag.IntVar(&opts.Ticks, "ticks", -1, "override sim.ticks")
	flag.Int64Var(&opts.Seed, "seed", 0, "random seed, 0 seeds from the clock")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	startTime := time.Now()

	logManager := logging.NewSlogManager()
	logManager.Setup(nil, "info", nil)
	logger := logManager.Logger()

	if err := config.Load(opts.ConfigDir); err != nil {
		logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		logger.Info("Loaded config")
	}
	logLevel := config.GetString("logLevel")

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, ServiceName, startTime)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	provider, err := intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), logFile))
	if err != nil {
		logger.Error("Failed to initialize OTel provider", "error", err)
		provider, _ = intOtel.New(intOtel.Config{})
	}
	var otelLogProvider *sdklog.LoggerProvider
	if provider.Enabled() {
		otelLogProvider = provider.LoggerProvider()
	}

	sessions := session.NewContext()
	logManager.WithContext(func() []slog.Attr {
		s := sessions.Session()
		if s == nil {
			return nil
		}
		return []slog.Attr{slog.String("session", s.Name), slog.Uint64("sessionId", uint64(s.ID))}
	})
	logManager.Setup(io.MultiWriter(os.Stdout, logFile), logLevel, otelLogProvider)
	logger = logManager.Logger()
	logger.Info("Logging to file", "path", logPath, "version", CurrentExtensionVersion, "buildDate", BuildDate)

	var graylogAddr string
	if config.GetBool("graylog.enabled") {
		graylogAddr = config.GetString("graylog.address")
	}
	dbLogger, gelfWriter, err := logging.NewZerolog(logging.ZerologOptions{
		Level:          logLevel,
		File:           logFile,
		GraylogAddress: graylogAddr,
	})
	if err != nil {
		logger.Error("Failed to set up Graylog, continuing without it", "error", err)
		dbLogger, _, _ = logging.NewZerolog(logging.ZerologOptions{Level: logLevel, File: logFile})
	}
	if gelfWriter != nil {
		defer gelfWriter.Close()
	}

	influxManager := influx.NewManager(dbLogger, filepath.Join(logsDir, "influx_backup.log.gzip"))
	if err := influxManager.Connect(); err != nil && !errors.Is(err, influx.ErrDisabled) {
		logger.Error("Failed to connect to InfluxDB", "error", err)
	}
	defer influxManager.Close()

	backend, err := createStorageBackend(config.GetStorageConfig(), logManager, dbLogger, startTime)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer backend.Close()

	a, err := newApp(appDeps{
		LogManager: logManager,
		DBLogger:   dbLogger,
		Sessions:   sessions,
		Backend:    backend,
		Influx:     influxManager,
		Scene:      config.GetSceneConfig(),
		StatusFile: filepath.Join(logsDir, config.GetString("monitor.statusFile")),
		Interval:   config.GetDuration("monitor.interval"),
	})
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.monitor.Start(a.dispatcher); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	simCfg := config.GetSimConfig()
	if opts.Ticks >= 0 {
		simCfg.Ticks = opts.Ticks
	}
	seed := opts.Seed
	if seed == 0 {
		seed = startTime.UnixNano()
	}

	w := newWalker(a.dispatcher, simCfg, seed, logger)
	if err := w.run(ctx, opts.Session); err != nil {
		return err
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		logger.Warn("Failed to shut down OTel provider", "error", err)
	}
	return nil
}

type appDeps struct {
	LogManager *logging.SlogManager
	DBLogger   zerolog.Logger
	Sessions   *session.Context
	Backend    storage.Backend
	Influx     *influx.Manager
	Scene      config.SceneConfig
	StatusFile string
	Interval   time.Duration
}

// app is the wired command surface: one dispatcher with the session,
// scene and monitor handlers registered on it.
type app struct {
	dispatcher *dispatcher.Dispatcher
	handlers   *handlers.Service
	worker     *worker.Manager
	monitor    *monitor.Service
	registry   *cache.EntityRegistry
}

func newApp(deps appDeps) (*app, error) {
	if deps.Sessions == nil {
		deps.Sessions = session.NewContext()
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(deps.DBLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	registry := cache.NewEntityRegistry()
	seq := &cache.SafeCounter{}
	p := parser.NewParser(deps.LogManager.Logger(), CurrentExtensionVersion, deps.Scene.MaxRange, deps.Scene.Projection)

	hs := handlers.NewService(handlers.Dependencies{
		Session:          deps.Sessions,
		Registry:         registry,
		Parser:           p,
		LogManager:       deps.LogManager,
		Influx:           deps.Influx,
		Seq:              seq,
		ExtensionName:    ServiceName,
		ExtensionVersion: CurrentExtensionVersion,
	})
	hs.SetBackend(deps.Backend)
	hs.RegisterHandlers(d)

	wm, err := worker.NewManager(worker.Dependencies{
		Session:    deps.Sessions,
		Registry:   registry,
		Parser:     p,
		LogManager: deps.LogManager,
		Influx:     deps.Influx,
		Seq:        seq,
	}, deps.Backend)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create worker manager: %w", err)
	}
	wm.RegisterHandlers(d)

	mon := monitor.NewService(monitor.Dependencies{
		Session:    deps.Sessions,
		Registry:   registry,
		Backend:    deps.Backend,
		Influx:     deps.Influx,
		LogManager: deps.LogManager,
		StatusFile: deps.StatusFile,
		Interval:   deps.Interval,
	})
	mon.RegisterHandlers(d)

	return &app{
		dispatcher: d,
		handlers:   hs,
		worker:     wm,
		monitor:    mon,
		registry:   registry,
	}, nil
}

func (a *app) close() {
	a.monitor.Stop()
	a.dispatcher.Close()
}
