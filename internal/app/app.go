// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/JakeFAU/restaurant-reviews/internal/api"
	"github.com/JakeFAU/restaurant-reviews/internal/clock/system"
	"github.com/JakeFAU/restaurant-reviews/internal/config"
	"github.com/JakeFAU/restaurant-reviews/internal/id/uuid"
	"github.com/JakeFAU/restaurant-reviews/internal/loader"
	"github.com/JakeFAU/restaurant-reviews/internal/scraper"
	"github.com/JakeFAU/restaurant-reviews/internal/service"
	"github.com/JakeFAU/restaurant-reviews/internal/storage/memory"
)

// App holds the shared services for one process: configuration, logger, the review
// store and the components built over it.
type App struct {
	config  config.Config
	logger  *zap.Logger
	store   *memory.ReviewStore
	loader  *loader.Loader
	service *service.Service
}

// NewApp wires the review store, loader, scraper and service from cfg.
func NewApp(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := memory.NewReviewStore()
	ld := loader.New(loader.Options{
		Sheet:       cfg.Loader.Sheet,
		DefaultText: cfg.Loader.DefaultText,
		Clock:       system.New(),
	}, logger)
	sc := scraper.New(scraper.Config{
		URLTemplate:   cfg.Scraper.URLTemplate,
		UserAgent:     cfg.Scraper.UserAgent,
		Timeout:       cfg.ScrapeTimeout(),
		RespectRobots: cfg.Scraper.RespectRobots,
		DefaultRating: cfg.Scraper.DefaultRating,
		Selectors: scraper.Selectors{
			Container: cfg.Scraper.Selectors.Container,
			Reviewer:  cfg.Scraper.Selectors.Reviewer,
			Text:      cfg.Scraper.Selectors.Text,
			Rating:    cfg.Scraper.Selectors.Rating,
		},
	}, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		store:   store,
		loader:  ld,
		service: service.New(store, sc, logger),
	}
}

// GetConfig returns the configuration the App was built from.
func (a *App) GetConfig() config.Config {
	return a.config
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetLoader exposes the spreadsheet loader.
func (a *App) GetLoader() *loader.Loader {
	return a.loader
}

// GetService exposes the review service.
func (a *App) GetService() *service.Service {
	return a.service
}

// Seed loads the configured spreadsheet into the store. A missing file is logged and
// skipped unless loader.required is set; any other read failure is returned.
func (a *App) Seed(ctx context.Context) error {
	path := a.config.Loader.Path
	if path == "" {
		a.logger.Info("no review spreadsheet configured; starting empty")
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if a.config.Loader.Required {
			return fmt.Errorf("review spreadsheet %s: %w", path, err)
		}
		a.logger.Warn("review spreadsheet not found; starting empty", zap.String("path", path))
		return nil
	}

	res, err := a.loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}
	return a.service.Seed(ctx, res)
}

// Handler builds the HTTP handler serving the review API.
func (a *App) Handler() http.Handler {
	return api.NewServer(a.service, uuid.New(), a.config, a.logger.Named("api")).Handler()
}

// Close flushes buffered logs. It is called by a Cobra hook after the command finishes.
func (a *App) Close() {
	// Sync fails on non-file sinks such as a terminal; nothing useful to do about it.
	_ = a.logger.Sync()
}
