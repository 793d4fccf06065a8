// Package scraper fetches a restaurant's review page from the upstream site and pulls
// reviewer/text/rating triples out of it by CSS selector.
//
// Fetching goes through a colly collector cloned per call, so each request gets its own
// callbacks while sharing one pooled transport. Extraction runs goquery over the fetched
// body and is independent of colly, which keeps it testable against static HTML.
//
// Selectors are coupled to the upstream markup; when the site changes, Scrape starts
// returning ErrNoReviews or ErrMalformedPage rather than partial data.
package scraper
