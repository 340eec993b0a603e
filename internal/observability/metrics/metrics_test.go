package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetricsMiddleware_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sites/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	handler := HTTPMetricsMiddleware(mux)(mux)
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/sites/{id}", "418"))

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sites/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /api/sites/{id}", "418"))
	assert.Equal(t, before+3, after)
}

func TestHTTPMetricsMiddleware_Unmatched(t *testing.T) {
	mux := http.NewServeMux()
	handler := HTTPMetricsMiddleware(mux)(mux)
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveRevocationsPurged_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(revocationsPurged)
	ObserveRevocationsPurged(0)
	ObserveRevocationsPurged(2)
	assert.Equal(t, before+2, testutil.ToFloat64(revocationsPurged))
}
