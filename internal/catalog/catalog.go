// Package catalog is the data-retrieval boundary for exercises. Pages only
// ever see the Fetcher and Resolver interfaces; the backing source (local
// SQLite store or an upstream exercises API) is chosen at startup.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/metrics"
	"github.com/edushell/portal/internal/store"
)

var ErrNotFound = errors.New("exercise not found")

// FetchError is any failure of the fetch-all call: transport, status, or
// decoding. Message is shown to the learner verbatim.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher returns the full exercise collection. No pagination.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]exercise.Exercise, error)
}

// Resolver resolves a single exercise by id. Returns ErrNotFound when the id
// is absent and a *FetchError when the collection could not be retrieved.
type Resolver interface {
	Resolve(ctx context.Context, id string) (exercise.Exercise, error)
}

// ScanResolver resolves by fetching the whole collection and searching it
// linearly. It is the only Resolver the upstream API supports.
type ScanResolver struct {
	Fetcher Fetcher
}

var _ Resolver = ScanResolver{}

func (r ScanResolver) Resolve(ctx context.Context, id string) (exercise.Exercise, error) {
	items, err := r.Fetcher.FetchAll(ctx)
	if err != nil {
		return exercise.Exercise{}, err
	}
	ex, ok := exercise.Find(items, id)
	if !ok {
		return exercise.Exercise{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return ex, nil
}

// StoreFetcher serves the collection from the local catalog store.
type StoreFetcher struct {
	store store.Store
}

var _ Fetcher = (*StoreFetcher)(nil)

func NewStoreFetcher(s store.Store) *StoreFetcher {
	return &StoreFetcher{store: s}
}

func (f *StoreFetcher) FetchAll(ctx context.Context) ([]exercise.Exercise, error) {
	started := time.Now()
	items, err := f.store.ListExercises(ctx)
	metrics.ObserveCatalogFetch("store", started, err)
	if err != nil {
		return nil, &FetchError{Source: "store", Err: fmt.Errorf("load exercises: %w", err)}
	}
	return items, nil
}
