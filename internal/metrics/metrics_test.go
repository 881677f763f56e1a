package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatus(t *testing.T) {
	if Status(nil) != "success" {
		t.Error("nil error should be success")
	}
	if Status(errors.New("boom")) != "error" {
		t.Error("non-nil error should be error")
	}
}

func TestHandler_exposesCollectors(t *testing.T) {
	IndexRuns.WithLabelValues("success").Inc()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "chatsearch_index_runs_total") {
		t.Error("expected chatsearch_index_runs_total in exposition")
	}
}
