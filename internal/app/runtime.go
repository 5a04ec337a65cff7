package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/samvad-hq/samvad-api-client/internal/tokenstore"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-api-client/pkg/reporters"
)

// Runtime owns the API client and the resources behind it: the session token
// store and the failure reporters.
type Runtime struct {
	cfg    *config.Config
	client *httpclient.Client
	store  tokenstore.Store
	fanout *reporters.Fanout
	log    logger.Logger
}

// NewRuntime builds a runtime from config.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	storeOpts := tokenstore.Options{
		TokenTTL:        cfg.TokenTTL,
		CleanupInterval: cfg.TokenCleanupInterval,
	}
	store, err := tokenstore.NewStore(cfg.TokenStoreType, cfg.TokenStorePath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init token store: %w", err)
	}
	log.InfoObj("token store initialized", "token_store_config", map[string]any{
		"type":                     cfg.TokenStoreType,
		"path":                     cfg.TokenStorePath,
		"token_ttl_seconds":        int(cfg.TokenTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.TokenCleanupInterval.Seconds()),
	})

	fanout, err := loadReporters(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	transformers := []httpclient.RequestTransformer{
		httpclient.WithRequestID(httpclient.HeaderXRequestID),
	}
	if cfg.APIUserAgent != "" {
		transformers = append(transformers, httpclient.WithHeaders(map[string]string{
			"User-Agent": cfg.APIUserAgent,
		}))
	}
	transformers = append(transformers, httpclient.WithBearerToken(tokenstore.NewSource(store)))

	client, err := httpclient.New(httpclient.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		Retries:         cfg.APIRetries,
		RetryDelay:      cfg.APIRetryDelay,
		Transformers:    transformers,
		Logger:          log,
		FailureHandlers: []httpclient.FailureHandler{fanout.Handler(cfg.AppName, log)},
	})
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("build api client: %w", err)
	}
	log.InfoObj("api client ready", "client_config", map[string]any{
		"base_url":       client.BaseURL(),
		"timeout_ms":     cfg.APITimeout.Milliseconds(),
		"retries":        cfg.APIRetries,
		"retry_delay_ms": cfg.APIRetryDelay.Milliseconds(),
		"reporters":      fanout.Size(),
	})

	return &Runtime{
		cfg:    cfg,
		client: client,
		store:  store,
		fanout: fanout,
		log:    log,
	}, nil
}

// loadReporters builds the failure fanout. A missing reporters file yields an
// empty fanout.
func loadReporters(ctx context.Context, cfg *config.Config, log logger.Logger) (*reporters.Fanout, error) {
	if cfg.ReportersFile == "" {
		return reporters.NewFanout(nil), nil
	}

	reg, err := reporters.LoadRegistry(cfg.ReportersFile)
	if err != nil {
		return nil, fmt.Errorf("load reporters registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("no reporters enabled; failures are only logged", "reporters_file", cfg.ReportersFile)
		return reporters.NewFanout(nil), nil
	}

	reps, err := reporters.BuildAll(ctx, reporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build reporters: %w", err)
	}
	summaries := make([]map[string]string, 0, len(enabled))
	for _, repCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   repCfg.ID,
			"type": repCfg.Type,
		})
	}
	log.InfoObj("reporters registry loaded", "reporters_meta", map[string]any{
		"count":     len(summaries),
		"reporters": summaries,
	})
	return reporters.NewFanout(reps), nil
}

// Client returns the configured API client.
func (r *Runtime) Client() *httpclient.Client { return r.client }

// Store returns the session token store.
func (r *Runtime) Store() tokenstore.Store { return r.store }

// Close releases reporters and the token store.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reporters: %w", err))
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close token store: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		r.log.ErrorObj("runtime close failed", "error", err)
	}
	return err
}
