package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"earbridge/internal/alerts"
	"earbridge/internal/api"
	"earbridge/internal/classify"
	"earbridge/internal/config"
	"earbridge/internal/demo"
	"earbridge/internal/dispatch"
	"earbridge/internal/ingest"
	"earbridge/internal/logging"
	"earbridge/internal/model"
	"earbridge/internal/notify"
	"earbridge/internal/queue"
	"earbridge/internal/storage"
)

const version = "0.3.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("earbridge: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (JSON or YAML)")
	demoMode := flag.Bool("demo", false, "feed the built-in demo scenario instead of waiting for a device")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("earbridge", version)
		return nil
	}

	var cfgMgr *config.Manager
	if *configPath != "" {
		var err error
		cfgMgr, err = config.NewManager(config.ResolvePath(*configPath))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfgMgr = config.NewStatic(nil)
	}
	cfg := cfgMgr.Get()

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting earbridge", "version", version, "config", cfgMgr.Path())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table := classify.TableFromConfig(cfg.Classify)
	normalizer := classify.NewNormalizer(table, cfg.Link.Device.Source)

	bufCap := cfg.Link.ChannelBuffer
	if bufCap <= 0 {
		bufCap = 1024
	}
	out := make(chan model.Detection, bufCap)

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if store != nil {
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer store.Close()
		logger.Info("storage enabled", "driver", cfg.Storage.Driver)
	}

	var q *queue.Queue
	if cfg.Queue.Enabled {
		q, err = queue.Open(cfg.Queue.Path)
		if err != nil {
			return fmt.Errorf("open offline queue: %w", err)
		}
		logger.Info("offline queue enabled", "path", cfg.Queue.Path)
		if store != nil {
			prober := queue.DialProber{Addr: cfg.Queue.ProbeAddr, Timeout: cfg.Queue.ProbeTimeout}
			syncer := queue.NewSyncer(q, store, prober, cfg.Queue.SyncInterval, logging.Component(logger, "sync"))
			go syncer.Start(ctx)
		}
	}

	alertStore := alerts.NewStore(cfg.Alerts.StoreLimit)
	gate := dispatch.NewGate()
	notifier := notify.NewLogNotifier(logging.Component(logger, "notify"))
	disp := dispatch.NewDispatcher(cfg, logging.Component(logger, "dispatch"), gate, alertStore, store, q, notifier)
	disp.Start(ctx, out)

	pipe := ingest.NewPipeline(normalizer, out, logging.Component(logger, "ingest"))

	if cfg.Link.TCP.Enabled {
		ingest.StartTCPBridge(ctx, cfgMgr, pipe, logging.Component(logger, "tcp"))
	}
	if cfg.Link.Kafka.Enabled {
		ingest.StartKafka(ctx, cfgMgr, pipe, logging.Component(logger, "kafka"))
	}
	if cfg.Link.REST.Enabled {
		ingest.StartREST(ctx, cfgMgr, pipe, logging.Component(logger, "rest"))
	}

	if *demoMode {
		runner := demo.NewRunner(pipe, logging.Component(logger, "demo"))
		runner.Run(ctx)
		logger.Info("demo scenario started")
	}

	api.Start(ctx, cfgMgr, alertStore, store, gate, logging.Component(logger, "api"), version)

	if cfgMgr.Path() != "" {
		stopWatch := make(chan struct{})
		defer close(stopWatch)
		go cfgMgr.Watch(5*time.Second,
			func(next *config.Config) {
				disp.UpdateConfig(next)
				logger.Info("configuration reloaded")
			},
			func(err error) {
				logger.Error("config reload failed", "err", err)
			},
			stopWatch)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
