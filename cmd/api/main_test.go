package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/txtalert/platform/pkg/logging"
)

func TestSetupImportMetricsExposesMetrics(t *testing.T) {
	handler, importMetrics := setupImportMetrics()
	if handler == nil || importMetrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	importMetrics.ObserveOutcome("visits", "coming", "created")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "txtalert_importer_record_outcomes_total") {
		t.Fatalf("expected outcome counter to be exported")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if pool := connectPostgresPool(context.Background(), "", logger); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}
