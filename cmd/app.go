package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/larder/internal/assets"
	"github.com/matheuskafuri/larder/internal/config"
	"github.com/matheuskafuri/larder/internal/imagegen"
	"github.com/matheuskafuri/larder/internal/logger"
	"github.com/matheuskafuri/larder/internal/store"
	"github.com/matheuskafuri/larder/internal/throttle"
	"github.com/matheuskafuri/larder/internal/tui"
)

// errNoGenerator is reported for every cache miss when no API key is set.
var errNoGenerator = errors.New("image generation disabled: set generator.api_key or LARDER_AI_KEY")

// app bundles everything a command needs. Close releases the database.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	db     *store.DB
	assets store.AssetStore
	cache  *assets.Cache
	gen    *throttle.Generator
}

func openApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(os.Stderr, logger.ParseLevel(cfg.LogLevel))

	db, err := store.Open(config.DataPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	assetStore, err := store.NewAssetStore(cfg.Assets.Engine, db, cfg.AssetDir())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening asset store: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db, assets: assetStore}

	var gen assets.Generator = disabledGenerator{}
	if cfg.AIEnabled() {
		provider, err := imagegen.New(&cfg.Generator, cfg.AIKey())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating image provider: %w", err)
		}
		a.gen = throttle.New(provider, throttle.Config{
			Spacing:     cfg.SpacingDuration(),
			BaseDelay:   cfg.BaseDelayDuration(),
			MaxRetries:  cfg.GetMaxRetries(),
			CallTimeout: cfg.CallTimeoutDuration(),
			Logger:      log,
		})
		gen = a.gen
	}

	a.cache = assets.New(assetStore, gen, assets.Options{Logger: log})
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

type disabledGenerator struct{}

func (disabledGenerator) RequestImage(ctx context.Context, prompt string, aspect imagegen.AspectRatio) ([]byte, error) {
	return nil, errNoGenerator
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(tui.RunOpts{DB: a.db, Cache: a.cache})
}

// parseSince accepts Go durations plus a day suffix, e.g. "5d".
func parseSince(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
