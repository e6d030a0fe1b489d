package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestHandler(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "openmart_metrics_handler_test_total",
		Help: "Counter registered by TestHandler",
	})
	if err := Registry.Register(counter); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	defer Registry.Unregister(counter)
	counter.Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "openmart_metrics_handler_test_total 3") {
		t.Errorf("metrics output missing test counter:\n%s", body)
	}
}
