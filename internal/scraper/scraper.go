package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/restaurant-reviews/internal/review"
)

var (
	// ErrUpstreamStatus matches any *StatusError.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	// ErrNoReviews is returned when the page holds no review containers.
	ErrNoReviews = errors.New("no reviews on page")
	// ErrMalformedPage is returned when a review container lacks an expected element.
	ErrMalformedPage = errors.New("malformed review markup")
)

// StatusError reports the upstream status code of a failed page fetch.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: upstream status %d", e.URL, e.Code)
}

// Is lets errors.Is(err, ErrUpstreamStatus) match.
func (e *StatusError) Is(target error) bool {
	return target == ErrUpstreamStatus
}

// Selectors locate review fields. Reviewer and Rating may be empty: an empty
// Reviewer leaves the author unset, an empty Rating uses Config.DefaultRating.
type Selectors struct {
	Container string
	Reviewer  string
	Text      string
	Rating    string
}

// Config controls how pages are fetched and parsed.
type Config struct {
	// URLTemplate has a single %s that receives the path-escaped restaurant name.
	URLTemplate   string
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
	DefaultRating float64
	Selectors     Selectors
}

// Scraper extracts candidate reviews from the upstream site.
type Scraper struct {
	cfg     Config
	fetcher *fetcher
	logger  *zap.Logger
}

// New builds a Scraper.
func New(cfg Config, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:     cfg,
		fetcher: newFetcher(cfg),
		logger:  logger.Named("scraper"),
	}
}

// PageURL returns the review page address for restaurant.
func (s *Scraper) PageURL(restaurant string) string {
	return fmt.Sprintf(s.cfg.URLTemplate, url.PathEscape(strings.TrimSpace(restaurant)))
}

// Scrape fetches the restaurant's review page and returns the unvalidated reviews on it.
func (s *Scraper) Scrape(ctx context.Context, restaurant string) ([]review.Candidate, error) {
	pageURL := s.PageURL(restaurant)
	logger := s.logger.With(zap.String("restaurant", restaurant), zap.String("url", pageURL))

	page, err := s.fetcher.fetch(ctx, pageURL)
	if err != nil {
		logger.Warn("review page fetch failed", zap.Error(err))
		return nil, err
	}
	logger.Debug("review page fetched",
		zap.Int("status_code", page.statusCode),
		zap.Int("bytes", len(page.body)),
		zap.Duration("duration", page.duration),
	)

	candidates, err := extract(page.body, s.cfg.Selectors, s.cfg.DefaultRating)
	if err != nil {
		logger.Warn("review extraction failed", zap.Error(err))
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	logger.Info("reviews extracted", zap.Int("count", len(candidates)))
	return candidates, nil
}
