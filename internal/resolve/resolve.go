// Package resolve turns human-readable names into Bento identifiers by
// scanning paginated listing endpoints.
//
// The listing is injected as a PageFetcher so the search can run against
// the HTTP API, a fixture, or an in-memory store alike.
package resolve

import (
	"context"
	"fmt"
	"strings"
)

// MaxPages is the most listing pages a single resolution will fetch.
const MaxPages = 100

// Named is a remote record with an opaque identifier and an optional name.
type Named interface {
	EntityID() string
	EntityName() string
}

// PageFetcher returns the entities on a 1-indexed listing page.
// A nil or empty slice means there are no more pages.
type PageFetcher[T Named] func(ctx context.Context, page int) ([]T, error)

// Source records how an identifier was obtained.
type Source string

const (
	SourceID   Source = "id"
	SourceName Source = "name"
)

// Result is the outcome of a resolution.
type Result struct {
	ID           string
	Found        bool
	Source       Source
	PagesFetched int
}

// NormalizeName trims surrounding whitespace and lower-cases name.
// An empty result never matches anything.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ID returns the identifier for a record. A non-blank id is returned as-is
// (trimmed) without fetching. Otherwise pages are fetched in order until
// one holds a record whose normalized name equals the normalized name
// argument, an empty page is returned, or MaxPages pages have been read.
//
// The first match in page order wins; later duplicates are ignored.
// Fetch errors are returned unretried.
func ID[T Named](ctx context.Context, id, name string, fetch PageFetcher[T]) (string, bool, error) {
	res, err := Resolve(ctx, id, name, fetch)
	return res.ID, res.Found, err
}

// Resolve is ID with the bookkeeping callers use for logging and metrics.
func Resolve[T Named](ctx context.Context, id, name string, fetch PageFetcher[T]) (Result, error) {
	if id = strings.TrimSpace(id); id != "" {
		return Result{ID: id, Found: true, Source: SourceID}, nil
	}

	target := NormalizeName(name)
	if target == "" {
		return Result{}, nil
	}

	var res Result
	for page := 1; page <= MaxPages; page++ {
		items, err := fetch(ctx, page)
		res.PagesFetched = page
		if err != nil {
			return res, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if len(items) == 0 {
			return res, nil
		}

		for _, item := range items {
			if NormalizeName(item.EntityName()) == target {
				res.ID = item.EntityID()
				res.Found = true
				res.Source = SourceName
				return res, nil
			}
		}
	}

	return res, nil
}
