package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edushell/portal/internal/metrics"
)

func TestMiddleware_RecordsRoute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := metrics.Middleware(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}

	metrics.ObserveGateDecision("authenticated", "redirect")

	out := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := out.Body.String()

	if !strings.Contains(body, `portal_http_requests_total{method="GET",route="GET /things/{id}",status="418"}`) {
		t.Errorf("expected request counter with route pattern, got:\n%s", body)
	}
	if !strings.Contains(body, `portal_access_gate_decisions_total{capability="authenticated",outcome="redirect"}`) {
		t.Error("expected gate decision counter to be exported")
	}
}
