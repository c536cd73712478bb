package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calproxy/internal/config"
	"calproxy/internal/fetch"
	appLog "calproxy/internal/log"
	"calproxy/internal/scheduler"
	"calproxy/internal/server"
	"calproxy/internal/store"
	"calproxy/internal/tenant"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func main() {
	appLog.Info("calproxy starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"default_timezone", conf.DefaultTimezone,
		"store_dir", conf.StoreDir,
		"refresh", conf.RefreshCron,
		"tenant_count", len(conf.Tenants),
		"once", flags.once,
	)

	st, err := store.NewFileStore(conf.StoreDir)
	if err != nil {
		appLog.Error("failed to initialize state store", err, "store_dir", conf.StoreDir)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bootstrapTenants(ctx, st, conf.Tenants); err != nil {
		appLog.Error("failed to bootstrap tenants", err)
		os.Exit(1)
	}

	fetcher := fetch.New(time.Duration(conf.FetchTimeoutSeconds) * time.Second)

	sched, err := scheduler.New(st, fetcher, conf.DefaultTimezone, conf.RefreshCron)
	if err != nil {
		appLog.Error("failed to construct scheduler", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}

	if flags.once {
		sched.RunOnce(ctx)
		appLog.Info("calproxy: single run complete, exiting")
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	sched.Start(ctx)

	if err := server.StartServer(ctx, conf, st); err != nil {
		appLog.Error("http server exited with error", err)
		os.Exit(1)
	}

	appLog.Info("calproxy exiting")
}

// bootstrapTenants registers every tenant from the config's bootstrap list,
// skipping entries with an empty id or source URL. An already registered
// tenant is registered again: Register overwrites its record with the
// configured values and a fresh CreatedAt.
func bootstrapTenants(ctx context.Context, st store.Store, tenants []config.TenantConfig) error {
	for _, tc := range tenants {
		if tc.ID == "" || tc.SourceURL == "" {
			continue
		}
		t := tenant.Tenant{ID: tc.ID, SourceURL: tc.SourceURL, Timezone: tc.Timezone}
		if err := tenant.Register(ctx, st, t); err != nil {
			return err
		}
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/calproxy/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one reconciliation pass for all tenants and exit")

	flag.Parse()

	return cfg
}
