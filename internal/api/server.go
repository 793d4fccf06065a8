package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/restaurant-reviews/internal/config"
	"github.com/JakeFAU/restaurant-reviews/internal/loader"
	"github.com/JakeFAU/restaurant-reviews/internal/metrics"
	"github.com/JakeFAU/restaurant-reviews/internal/middleware"
	"github.com/JakeFAU/restaurant-reviews/internal/review"
	"github.com/JakeFAU/restaurant-reviews/internal/service"
)

const maxBodyBytes = 1 << 20

// Service is the review behaviour the handlers need.
type Service interface {
	Add(ctx context.Context, c review.Candidate) (review.Review, error)
	List(ctx context.Context) ([]review.Review, error)
	Scrape(ctx context.Context, restaurant string) ([]review.Review, error)
	Report() (loader.Report, bool)
}

// Server wires HTTP handlers to the review service.
type Server struct {
	router chi.Router
	svc    Service
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc Service, idGen middleware.IDGenerator, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(idGen))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout()))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/add_review/", s.addReview)
	r.Get("/reviews/", s.listReviews)
	r.Get("/scrape_reviews/", s.scrapeReviews)
	r.Get("/scrape_reviews/{restaurant_name}", s.scrapeReviews)
	r.Get("/load_report/", s.loadReport)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// The store is in memory; nothing downstream to probe.
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) addReview(w http.ResponseWriter, r *http.Request) {
	var c review.Candidate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&c); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			s.writeValidation(w, &review.ValidationError{Violations: []review.Violation{{
				Field:   typeErr.Field,
				Rule:    "type",
				Message: "must be a " + typeErr.Type.String(),
			}}})
			return
		}
		if errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "request body is empty")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	stored, err := s.svc.Add(r.Context(), c)
	if err != nil {
		var verr *review.ValidationError
		if errors.As(err, &verr) {
			s.writeValidation(w, verr)
			return
		}
		s.logger.Error("add review failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store review")
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.svc.List(r.Context())
	if err != nil {
		s.logger.Error("list reviews failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}
	s.writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) scrapeReviews(w http.ResponseWriter, r *http.Request) {
	// chi matches on the escaped path, so the parameter may still carry %XX sequences.
	name, err := url.PathUnescape(chi.URLParam(r, "restaurant_name"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid restaurant name")
		return
	}
	if name == "" {
		name = r.URL.Query().Get("restaurant_name")
	}

	reviews, err := s.svc.Scrape(r.Context(), name)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, reviews)
	case errors.Is(err, service.ErrInvalidRestaurant):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "No reviews found or error in scraping.")
	default:
		s.logger.Error("scrape failed", zap.String("restaurant", name), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "error while scraping reviews")
	}
}

func (s *Server) loadReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.svc.Report()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no spreadsheet was loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeValidation(w http.ResponseWriter, verr *review.ValidationError) {
	s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":      "validation failed",
		"violations": verr.Violations,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
