package main

import (
	"context"
	"fmt"

	"github.com/macrolens/menulens/config"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/infrastructure/cache"
	"github.com/macrolens/menulens/internal/infrastructure/dictionary"
	"github.com/macrolens/menulens/internal/infrastructure/discovery"
	"github.com/macrolens/menulens/internal/infrastructure/fetch"
	"github.com/macrolens/menulens/internal/infrastructure/logging"
	"github.com/macrolens/menulens/internal/infrastructure/metrics"
	"github.com/macrolens/menulens/internal/infrastructure/ocr"
	"github.com/macrolens/menulens/internal/strategy"
	"github.com/macrolens/menulens/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// pipeline is everything a command needs to extract menus
type pipeline struct {
	orchestrator *usecase.Orchestrator
	cache        cache.Store
	registry     *prometheus.Registry
	logger       *zap.Logger
}

func (p *pipeline) Close() error {
	err := p.cache.Close()
	_ = p.logger.Sync()
	return err
}

// setup loads configuration and builds the logger
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format), nil
}

// buildPipeline wires the adapters into an orchestrator. The dictionary
// watcher, when enabled, lives until ctx is done.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline, error) {
	store, err := cache.New(ctx, cache.Config{
		Type:            cfg.Cache.Type,
		RedisURL:        cfg.Cache.RedisURL,
		KeyPrefix:       cfg.Cache.KeyPrefix,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	logger.Info("cache ready", zap.String("type", cfg.Cache.Type))

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:           cfg.Fetch.Timeout,
		UserAgent:         cfg.Fetch.UserAgent,
		RequestsPerSecond: cfg.RateLimit.Fetch,
		MaxAttempts:       cfg.Fetch.MaxAttempts,
		MaxPageBytes:      cfg.Fetch.MaxPageBytes,
		MaxImageBytes:     cfg.Fetch.MaxImageBytes,
	}, logger)

	var finder domain.WebsiteDiscovery
	if cfg.Discovery.Enabled() {
		client := discovery.NewClient(discovery.Config{
			APIKey:            cfg.Discovery.APIKey,
			EngineID:          cfg.Discovery.EngineID,
			BaseURL:           cfg.Discovery.BaseURL,
			MaxResults:        cfg.Discovery.MaxResults,
			RequestsPerSecond: cfg.RateLimit.Discovery,
			MinScore:          cfg.Discovery.MinScore,
		}, logger)
		finder = discovery.NewCachedDiscovery(client, store, cfg.Cache.TTL, cfg.Cache.NegativeTTL, logger)
		logger.Info("website discovery enabled", zap.String("base_url", cfg.Discovery.BaseURL))
	} else {
		logger.Warn("website discovery disabled: MENULENS_DISCOVERY_API_KEY / MENULENS_DISCOVERY_ENGINE_ID not set")
	}

	var imageOCR *strategy.ImageOCR
	if cfg.OCR.Enabled {
		engine := ocr.NewSharedEngine(ocr.NewTesseractEngine(ocr.Config{
			Binary:      cfg.OCR.Binary,
			Language:    cfg.OCR.Language,
			PSM:         cfg.OCR.PSM,
			TessdataDir: cfg.OCR.TessdataDir,
		}, logger), cfg.RateLimit.OCR, 1, cfg.OCR.CallTimeout)
		if !engine.Available() {
			logger.Warn("OCR enabled but engine not found; image OCR will be skipped", zap.String("binary", cfg.OCR.Binary))
		}
		imageOCR = strategy.NewImageOCR(engine, fetcher, strategy.ImageOCRConfig{
			MaxImages:          cfg.OCR.MaxImages,
			MinImageArea:       cfg.OCR.MinImageArea,
			MinTokenConfidence: cfg.OCR.MinConfidence,
			StepTimeout:        cfg.Pipeline.StepTimeout,
		}, logger)
	}

	classifier := usecase.NewClassifier(nil)
	if cfg.Dictionary.Path != "" {
		if err := startDictionary(ctx, cfg.Dictionary, classifier, logger); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Content:   fetcher,
		Discovery: finder,
		OCR:       imageOCR,
		Normalizer: usecase.NewNormalizer(usecase.NormalizerConfig{
			MinNameLength:        cfg.Pipeline.MinNameLength,
			MaxNameLength:        cfg.Pipeline.MaxNameLength,
			MaxDescriptionLength: cfg.Pipeline.MaxDescriptionLength,
		}),
		Classifier: classifier,
		Scorer:     usecase.NewScorer(),
		Dedup: usecase.NewDeduplicator(usecase.DedupConfig{
			SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
			PriceTolerance:      cfg.Pipeline.PriceTolerance,
		}),
		Recorder: metrics.NewRecorder(registry),
		Logger:   logger,
	}, usecase.OrchestratorConfig{
		GoodEnoughItems:  cfg.Pipeline.GoodEnoughItems,
		QualityBar:       cfg.Pipeline.QualityBar,
		StepTimeout:      cfg.Pipeline.StepTimeout,
		RestaurantBudget: cfg.Pipeline.RestaurantBudget,
	})

	return &pipeline{
		orchestrator: orchestrator,
		cache:        store,
		registry:     registry,
		logger:       logger,
	}, nil
}

// startDictionary applies the dictionary file and, when configured, keeps
// watching it. A broken file at startup is fatal; later edits are not.
func startDictionary(ctx context.Context, cfg config.DictionaryConfig, classifier *usecase.Classifier, logger *zap.Logger) error {
	w := dictionary.NewWatcher(cfg.Path, usecase.DefaultDictionarySpec(), classifier.Update, logger)
	if err := w.Reload(); err != nil {
		return fmt.Errorf("dictionary %s: %w", cfg.Path, err)
	}
	if !cfg.Watch {
		return nil
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("dictionary watcher: %w", err)
	}
	return nil
}
