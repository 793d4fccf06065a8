// Package service implements the review operations exposed over HTTP: add, list and
// scrape, all over one injected store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/restaurant-reviews/internal/loader"
	"github.com/JakeFAU/restaurant-reviews/internal/metrics"
	"github.com/JakeFAU/restaurant-reviews/internal/review"
	"github.com/JakeFAU/restaurant-reviews/internal/scraper"
)

var (
	// ErrNotFound is returned by Scrape when the upstream page is missing or yields no
	// valid reviews.
	ErrNotFound = errors.New("no reviews found")
	// ErrInvalidRestaurant is returned by Scrape for a blank restaurant identifier.
	ErrInvalidRestaurant = errors.New("restaurant name is required")
)

// Store holds the review collection.
type Store interface {
	Append(ctx context.Context, reviews ...review.Review) error
	List(ctx context.Context) ([]review.Review, error)
	Len() int
}

// Scraper fetches unvalidated reviews for a restaurant.
type Scraper interface {
	Scrape(ctx context.Context, restaurant string) ([]review.Candidate, error)
}

// Service coordinates validation, storage and scraping.
type Service struct {
	store   Store
	scraper Scraper
	logger  *zap.Logger

	mu     sync.RWMutex
	report *loader.Report
}

// New constructs a Service. sc may be nil, in which case Scrape always fails.
func New(store Store, sc Scraper, logger *zap.Logger) *Service {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, scraper: sc, logger: logger.Named("service")}
}

// Seed stores the reviews of a start-up load and keeps its report.
func (s *Service) Seed(ctx context.Context, res loader.Result) error {
	if err := s.store.Append(ctx, res.Reviews...); err != nil {
		return fmt.Errorf("seed reviews: %w", err)
	}
	report := res.Report
	s.mu.Lock()
	s.report = &report
	s.mu.Unlock()

	metrics.ObserveLoaderRows(report.Loaded, report.Skipped)
	metrics.ObserveReviewsAdded(metrics.SourceLoader, len(res.Reviews), s.store.Len())
	return nil
}

// Report returns the start-up load report, if a load ran.
func (s *Service) Report() (loader.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return loader.Report{}, false
	}
	return *s.report, true
}

// Add validates c, stores it and returns the stored review.
func (s *Service) Add(ctx context.Context, c review.Candidate) (review.Review, error) {
	r, err := review.New(c)
	if err != nil {
		return review.Review{}, err
	}
	if err := s.store.Append(ctx, r); err != nil {
		return review.Review{}, fmt.Errorf("store review: %w", err)
	}
	metrics.ObserveReviewsAdded(metrics.SourceAPI, 1, s.store.Len())
	return r, nil
}

// List returns every stored review in insertion order.
func (s *Service) List(ctx context.Context) ([]review.Review, error) {
	reviews, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Scrape fetches the restaurant's reviews upstream, stores the valid ones and returns
// them. Invalid scraped reviews are logged and dropped.
func (s *Service) Scrape(ctx context.Context, restaurant string) ([]review.Review, error) {
	name := strings.TrimSpace(restaurant)
	if name == "" {
		return nil, ErrInvalidRestaurant
	}
	if s.scraper == nil {
		return nil, errors.New("scraper not configured")
	}
	logger := s.logger.With(zap.String("restaurant", name))

	start := time.Now()
	candidates, err := s.scraper.Scrape(ctx, name)
	if err != nil {
		if errors.Is(err, scraper.ErrUpstreamStatus) || errors.Is(err, scraper.ErrNoReviews) {
			metrics.ObserveScrape("not_found", time.Since(start))
			return nil, fmt.Errorf("scrape %s: %w: %w", name, ErrNotFound, err)
		}
		metrics.ObserveScrape("error", time.Since(start))
		return nil, fmt.Errorf("scrape %s: %w", name, err)
	}

	valid := make([]review.Review, 0, len(candidates))
	for i, c := range candidates {
		r, err := review.New(c)
		if err != nil {
			logger.Warn("dropping invalid scraped review", zap.Int("index", i), zap.Error(err))
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		metrics.ObserveScrape("not_found", time.Since(start))
		return nil, fmt.Errorf("scrape %s: %w: none of %d reviews passed validation",
			name, ErrNotFound, len(candidates))
	}

	if err := s.store.Append(ctx, valid...); err != nil {
		metrics.ObserveScrape("error", time.Since(start))
		return nil, fmt.Errorf("store scraped reviews: %w", err)
	}
	metrics.ObserveScrape("ok", time.Since(start))
	metrics.ObserveReviewsAdded(metrics.SourceScrape, len(valid), s.store.Len())
	logger.Info("scraped reviews stored",
		zap.Int("stored", len(valid)),
		zap.Int("dropped", len(candidates)-len(valid)),
	)
	return valid, nil
}
