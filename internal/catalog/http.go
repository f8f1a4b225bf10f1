package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/edushell/portal/internal/domain/exercise"
	"github.com/edushell/portal/internal/metrics"
)

// apiExercise is the wire shape of the upstream exercises API.
type apiExercise struct {
	ID               string `json:"idExercice"`
	Title            string `json:"titre"`
	Statement        string `json:"enonce"`
	Type             string `json:"Type"`
	Difficulty       string `json:"difficulte,omitempty"`
	EstimatedMinutes *int   `json:"dureeEstimee,omitempty"`
	CourseID         string `json:"idCours,omitempty"`
	Language         string `json:"langage,omitempty"`
}

func (a apiExercise) toDomain() (exercise.Exercise, error) {
	t, err := exercise.ParseType(a.Type)
	if err != nil {
		return exercise.Exercise{}, fmt.Errorf("exercise %s: %w", a.ID, err)
	}
	ex, err := exercise.New(a.ID, a.Title, a.Statement, t)
	if err != nil {
		return exercise.Exercise{}, err
	}
	ex.Difficulty = exercise.ParseDifficulty(a.Difficulty)
	if a.EstimatedMinutes != nil && *a.EstimatedMinutes > 0 {
		ex.EstimatedMinutes = *a.EstimatedMinutes
	}
	ex.CourseID = a.CourseID
	if a.Language != "" {
		ex.Language = a.Language
	}
	return ex, nil
}

// HTTPFetcher calls GET {baseURL}/exercises on the upstream API. It never
// retries; a circuit breaker makes repeated failures fail fast instead of
// holding page requests for the full client timeout.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	breaker circuitbreaker.CircuitBreaker[[]exercise.Exercise]
	logger  *slog.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	f := &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}

	f.breaker = circuitbreaker.New[[]exercise.Exercise](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("catalog circuit breaker state change",
				"url", f.baseURL,
				"from", from.String(),
				"to", to.String())
		},
	})

	return f
}

func (f *HTTPFetcher) FetchAll(ctx context.Context) ([]exercise.Exercise, error) {
	started := time.Now()
	items, err := f.breaker.Execute(ctx, f.fetch)
	metrics.ObserveCatalogFetch("http", started, err)
	if err != nil {
		f.logger.Error("catalog fetch failed", "url", f.baseURL, "error", err)
		return nil, &FetchError{Source: "http", Err: err}
	}
	return items, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context) ([]exercise.Exercise, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/exercises", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request exercises: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exercises API returned %s", resp.Status)
	}

	// A null body is an empty collection.
	var payload []apiExercise
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}

	items := make([]exercise.Exercise, 0, len(payload))
	for _, a := range payload {
		ex, err := a.toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode exercises: %w", err)
		}
		items = append(items, ex)
	}
	return items, nil
}
