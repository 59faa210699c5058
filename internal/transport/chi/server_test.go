package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	healthuc "github.com/atlascope/solrbridge/internal/usecase/health"
)

type staticPinger struct {
	ok bool
}

func (p *staticPinger) Ping(_ context.Context) bool { return p.ok }

func doHealth(t *testing.T, pingOK bool) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()

	router := NewRouter(healthuc.New(&staticPinger{ok: pingOK}, nil), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	return rec, body
}

func TestHealth_OK(t *testing.T) {
	rec, body := doHealth(t, true)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body.Status != "ok" || body.Checks["solr"] != "ok" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHealth_EngineDown(t *testing.T) {
	rec, body := doHealth(t, false)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if body.Status != "error" {
		t.Errorf("status field = %q, want error", body.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(healthuc.New(&staticPinger{ok: true}, nil), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body should not be empty")
	}
}
