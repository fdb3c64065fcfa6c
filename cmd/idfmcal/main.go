package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"idfmcal/internal/cache"
	"idfmcal/internal/config"
	"idfmcal/internal/generate"
	appLog "idfmcal/internal/log"
	"idfmcal/internal/mapping"
	"idfmcal/internal/navitia"
)

type flagConfig struct {
	configPath string
	outputDir  string
	once       bool
}

func main() {
	appLog.Info("idfmcal starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI -output overrides the config file if provided.
	if flags.outputDir != "" {
		conf.OutputDir = flags.outputDir
	}
	if conf.APIKey == "" {
		appLog.Error("no API key configured",
			errors.New("api_key is empty"),
			"hint", "set api_key in the config or the IDFM_API_KEY environment variable")
		os.Exit(1)
	}

	appLog.Info("effective config",
		"base_url", conf.BaseURL,
		"output_dir", conf.OutputDir,
		"mapping_path", conf.MappingPath,
		"refresh", conf.RefreshCron,
		"cache_backend", conf.Cache.Backend,
		"once", flags.once,
	)

	store, err := newCacheStore(conf)
	if err != nil {
		appLog.Error("failed to initialize cache backend", err, "backend", conf.Cache.Backend)
		os.Exit(1)
	}

	relations, err := mapping.LoadOptional(conf.MappingPath)
	if err != nil {
		appLog.Error("failed to load line-station mapping", err, "path", conf.MappingPath)
		os.Exit(1)
	}

	opts := generate.Options{
		Client:    navitia.NewClient(conf.BaseURL, conf.APIKey, store, nil),
		Mapping:   relations,
		OutputDir: conf.OutputDir,
	}

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

	if flags.once {
		if err := generate.Run(ctx, opts); err != nil {
			appLog.Error("generation failed", err)
			os.Exit(1)
		}
		appLog.Info("idfmcal exiting")
		return
	}

	// Scheduled mode: run immediately, then on the cron schedule until
	// a signal arrives. Overlapping runs are skipped rather than queued.
	if err := generate.Run(ctx, opts); err != nil {
		appLog.Error("initial generation failed", err)
	}

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = sched.AddFunc(conf.RefreshCron, func() {
		if err := generate.Run(ctx, opts); err != nil {
			appLog.Error("scheduled generation failed", err)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()

	<-ctx.Done()
	stopCtx := sched.Stop()
	<-stopCtx.Done()
	appLog.Info("idfmcal exiting")
}

func newCacheStore(conf *config.Config) (cache.Store, error) {
	switch conf.Cache.Backend {
	case "redis":
		pool := cache.NewRedisPool(conf.Cache.Addr)
		return cache.NewRedis(pool, conf.Cache.KeyPrefix), nil
	default:
		return cache.NewMemory(0), nil
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.outputDir, "output", "", "Output directory (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one generation cycle and exit")

	flag.Parse()

	return cfg
}
