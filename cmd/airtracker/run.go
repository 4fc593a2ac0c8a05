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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"airtracker/panel/internal/api"
	"airtracker/panel/internal/assets"
	"airtracker/panel/internal/config"
	"airtracker/panel/internal/display"
	"airtracker/panel/internal/flight"
	"airtracker/panel/internal/logging"
	"airtracker/panel/internal/metrics"
	"airtracker/panel/internal/routes"
	"airtracker/panel/internal/scheduler"
	"airtracker/panel/internal/transport"
	"airtracker/panel/internal/workers"
)

const shutdownTimeout = 5 * time.Second

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the panel until interrupted",
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults and env apply without one)")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Env, cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upSince := time.Now()
	logging.Info("Airtracker starting up",
		"environment", cfg.Env,
		"timezone", cfg.Timezone,
		"display", fmt.Sprintf("%dx%d", cfg.Display.Width, cfg.Display.Height),
		"rotation", cfg.Display.Rotation,
	)

	metricsReg := metrics.NewMetricsRegistry()
	dirty := scheduler.NewDirty()
	store := flight.NewStore(cfg.Location(), dirty)
	checks := map[string]api.Checker{}

	cache, err := newBlobCache(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer cache.Close()

	mgr := assets.NewManager(assetOptions(cfg, cache, dirty))
	if err := mgr.Restore(ctx); err != nil {
		logging.Warn("Asset restore incomplete", "error", err)
	}

	fb := display.NewFramebuffer(cfg.Display.Width, cfg.Display.Height)
	renderer := display.NewRenderer(fb)
	sched := scheduler.New(dirty, cfg.Heartbeat(), func(context.Context) error {
		return renderer.Render(store.Snapshot(), mgr.Snapshot())
	})
	sched.OnDraw = func(reason string, took time.Duration) {
		metricsReg.RedrawsTotal.WithLabelValues(reason).Inc()
		metricsReg.RedrawDuration.Observe(took.Seconds())
	}

	inbox := transport.NewInbox()
	worker := workers.NewIngestWorker(inbox, store, mgr, sched, metricsReg)
	registerCounters(metricsReg, inbox, mgr)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MQTT.Enabled {
		sub := transport.NewSubscriber(transport.MQTTOptions{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Prefix:   cfg.MQTT.Prefix,
		}, inbox)
		checks["mqtt"] = func(context.Context) (string, error) {
			if !sub.Connected() {
				return "", errors.New("not connected to broker")
			}
			return fmt.Sprintf("subscribed to %s, %d messages", sub.Topic(), sub.Messages()), nil
		}
		g.Go(func() error { return sub.Run(gctx) })
	}
	if cfg.Feed.Path != "" {
		feed := transport.NewFileFeed(cfg.Feed.Path, inbox)
		g.Go(func() error { return feed.Run(gctx) })
	}

	g.Go(func() error { return worker.Start(gctx) })
	g.Go(func() error { return sched.Run(gctx) })

	if cfg.HTTP.Addr != "" {
		deps := &api.Dependencies{
			State:     store,
			Assets:    mgr,
			Frame:     fb,
			Scheduler: sched,
			Inbox:     inbox,
			Checks:    checks,
		}
		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: routes.RegisterRoutes(deps, metricsReg, routes.Options{
				Debug:       cfg.Env != "production" && cfg.LogLevel == "debug",
				FrameRateHz: cfg.HTTP.FrameRateHz,
				FrameBurst:  cfg.HTTP.FrameBurst,
			}, upSince),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logging.Info("Status server starting", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if err != nil {
		logging.Error("Airtracker stopped", "error", err)
		return err
	}
	logging.Info("Airtracker stopped", "uptime", time.Since(upSince).Round(time.Second).String())
	return nil
}

// newBlobCache picks Redis when it is enabled and reachable, and the in-process
// cache otherwise.
func newBlobCache(ctx context.Context, cfg *config.Config, checks map[string]api.Checker) (assets.BlobCache, error) {
	if !cfg.Redis.Enabled {
		return assets.NewMemoryCache(cfg.CacheTTL(), 10*time.Minute), nil
	}
	rc, err := assets.NewRedisCache(ctx, assets.RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logging.Warn("Redis unavailable, using in-memory asset cache", "addr", cfg.Redis.Addr(), "error", err)
		return assets.NewMemoryCache(cfg.CacheTTL(), 10*time.Minute), nil
	}
	checks["redis"] = func(ctx context.Context) (string, error) {
		if err := rc.Ping(ctx); err != nil {
			return "", err
		}
		return "connected", nil
	}
	return rc, nil
}

func assetOptions(cfg *config.Config, cache assets.BlobCache, dirty assets.Invalidator) assets.Options {
	opts := assets.Options{
		Specs: map[assets.Kind]assets.Spec{
			assets.KindLogo:  {MaxBytes: cfg.Assets.Logo.MaxBytes, MaxW: cfg.Assets.Logo.MaxWidth, MaxH: cfg.Assets.Logo.MaxHeight},
			assets.KindPhoto: {MaxBytes: cfg.Assets.Photo.MaxBytes, MaxW: cfg.Assets.Photo.MaxWidth, MaxH: cfg.Assets.Photo.MaxHeight},
		},
		Fetcher:  assets.NewFetcher(cfg.AssetTimeout(), cfg.Assets.InsecureTLS),
		Cache:    cache,
		CacheTTL: cfg.CacheTTL(),
		Dirty:    dirty,
	}
	if cfg.Assets.Dir != "" {
		opts.Store = &assets.DiskStore{Dir: cfg.Assets.Dir}
	}
	if cfg.Assets.FetchRateHz > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Assets.FetchRateHz), max(cfg.Assets.FetchBurst, 1))
	}
	return opts
}

func registerCounters(m *metrics.MetricsRegistry, inbox *transport.Inbox, mgr *assets.Manager) {
	m.CounterFunc("airtracker_inbox_received_total", "Payloads handed to the inbox by any transport",
		func() float64 { r, _ := inbox.Counts(); return float64(r) })
	m.CounterFunc("airtracker_inbox_dropped_total", "Payloads replaced by a newer one before being processed",
		func() float64 { _, d := inbox.Counts(); return float64(d) })
	m.CounterFunc("airtracker_asset_network_fetches_total", "Asset bodies downloaded",
		func() float64 { return float64(mgr.Stats().NetworkFetches) })
	m.CounterFunc("airtracker_asset_cache_hits_total", "Asset bodies served from the blob cache",
		func() float64 { return float64(mgr.Stats().CacheHits) })
}
