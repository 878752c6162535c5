package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/golemio-go/internal/config"
	"github.com/samvad-hq/golemio-go/internal/logger"
	"github.com/samvad-hq/golemio-go/internal/relay"
	"github.com/samvad-hq/golemio-go/internal/storage"
	"github.com/samvad-hq/golemio-go/pkg/feeds"
	"github.com/samvad-hq/golemio-go/pkg/golemio"
	"github.com/samvad-hq/golemio-go/pkg/publishers"
)

// Relay is the feed relay runtime. It polls the configured Golemio feeds on
// a fixed interval and pushes new entities to the publishers.
type Relay struct {
	cfg          *config.Config
	client       *golemio.Client
	sources      []feeds.Source
	fanout       *publishers.Fanout
	service      *relay.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewClient builds a Golemio client from configuration.
func NewClient(cfg *config.ClientConfig, log golemio.Logger) *golemio.Client {
	return golemio.New(cfg.AccessKey, golemio.Options{
		APIVersion: cfg.APIVersion,
		Staging:    cfg.Staging,
		Insecure:   cfg.Insecure,
		Host:       cfg.Host,
		Timeout:    cfg.RequestTimeout,
		Logger:     log,
	})
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	feedReg, err := feeds.LoadRegistry(cfg.FeedsFile)
	if err != nil {
		return nil, fmt.Errorf("load feeds registry: %w", err)
	}
	sources := feedReg.Enabled()
	sourceIDs := make([]string, 0, len(sources))
	for _, s := range sources {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("feeds registry loaded", "feeds_meta", map[string]any{
		"count":   len(feedReg.All()),
		"enabled": sourceIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntityTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entity_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	client := NewClient(&cfg.ClientConfig, log)

	return &Relay{
		cfg:          cfg,
		client:       client,
		sources:      sources,
		fanout:       fanout,
		service:      relay.NewService(feeds.DefaultFetcherRegistry(client), fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.close()

	if len(r.sources) == 0 {
		r.log.WarnObj("no feeds enabled; relay idle", "feeds_file", r.cfg.FeedsFile)
		<-ctx.Done()
		return nil
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"sources_count":    len(r.sources),
		"publishers_count": r.fanout.Size(),
		"poll_interval":    r.pollInterval.String(),
		"host":             r.client.Host(),
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial relay pass failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled relay pass failed", "error", err.Error())
			}
		}
	}
}

func (r *Relay) runOnce(ctx context.Context) error {
	start := time.Now()
	results, err := r.service.Run(ctx, r.sources)

	published := 0
	for _, res := range results {
		published += res.Published
	}
	r.log.InfoObj("relay pass completed", "relay_meta", map[string]any{
		"sources_count": len(r.sources),
		"published":     published,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return err
}

// close releases the store, publishers and client, logging failures.
func (r *Relay) close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if err := r.client.Close(); err != nil {
		r.log.ErrorObj("client close failed", "error", err.Error())
	}
}
