package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edushell/portal/internal/api"
	"github.com/edushell/portal/internal/browsing"
	"github.com/edushell/portal/internal/catalog"
	"github.com/edushell/portal/internal/collection"
	"github.com/edushell/portal/internal/exercisesession"
	"github.com/edushell/portal/internal/identity"
	"github.com/edushell/portal/internal/store"
	"github.com/edushell/portal/internal/worker"
)

const testSecret = "test-secret"

const testCatalog = `
version: "1"
courses:
  - id: js-basics
    title: JavaScript basics
    exercises: [sum, pick]
exercises:
  - id: sum
    title: Sum two numbers
    statement: Write a function that adds a and b.
    type: code
    difficulty: easy
    estimated_minutes: 10
  - id: pick
    title: Pick the keyword
    statement: Which keyword declares a constant?
    type: Multiple choice
  - id: explain
    title: Explain closures
    statement: In your own words.
    type: text-answer
`

type env struct {
	server   *httptest.Server
	store    *store.SQLiteStore
	verifier *identity.Verifier
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	doc, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	_, err = catalog.Import(context.Background(), s, doc)
	require.NoError(t, err)

	fetcher := catalog.NewStoreFetcher(s)
	pool := worker.NewPool[error](2, 4)
	t.Cleanup(pool.Close)
	processor := exercisesession.NewSimulatedProcessor(time.Millisecond, pool)

	registry := browsing.NewRegistry(browsing.Factory{
		NewView: func() *collection.View {
			return collection.New(fetcher, logger)
		},
		NewController: func() *exercisesession.Controller {
			return exercisesession.New(catalog.ScanResolver{Fetcher: fetcher}, processor,
				exercisesession.NewLogConsole(logger), logger)
		},
	}, time.Hour, logger)

	verifier := identity.NewVerifier(testSecret)
	h, err := api.NewHandler(api.Deps{
		Store:    s,
		Fetcher:  fetcher,
		Sessions: registry,
		Verifier: verifier,
		Source:   "store",
		Logger:   logger,
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, h)
	handler := api.Recovery(logger)(api.RequestID(api.Authenticate(verifier, logger)(mux)))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &env{server: srv, store: s, verifier: verifier}
}

// client keeps cookies and never follows redirects.
type client struct {
	t     *testing.T
	base  string
	http  *http.Client
	token string
}

func (e *env) client(t *testing.T, roles ...identity.Role) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c := &client{
		t:    t,
		base: e.server.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	if len(roles) > 0 {
		c.token, err = e.verifier.Issue("user-1", "Ada", roles, time.Hour)
		require.NoError(t, err)
	}
	return c
}

func (c *client) do(method, path, contentType string, body io.Reader) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(data)
}

func (c *client) get(path string) (*http.Response, string) {
	return c.do(http.MethodGet, path, "", nil)
}

func (c *client) post(path, form string) (*http.Response, string) {
	return c.do(http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form))
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}
