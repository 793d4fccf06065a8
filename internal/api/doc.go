// Package api hosts the HTTP server and REST handlers of the review service.
// Routes:
//   - POST /add_review/ validates and stores a review.
//   - GET /reviews/ lists every stored review in insertion order.
//   - GET /scrape_reviews/{restaurant_name} (or ?restaurant_name=) scrapes the upstream
//     site and stores what it finds.
//   - GET /load_report/ returns the start-up spreadsheet load report.
//   - GET /healthz, /readyz and /metrics for operators.
package api
