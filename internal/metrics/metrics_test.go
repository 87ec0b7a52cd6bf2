package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()

	m.CheckoutOutcomes.WithLabelValues(OutcomeCommitted).Inc()
	m.CheckoutOutcomes.WithLabelValues(OutcomeConflict).Add(2)
	m.SelectionOps.WithLabelValues("toggle_seat", SelectionResult(errors.New("boom"))).Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues(OutcomeCommitted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutOutcomes.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectionOps.WithLabelValues("toggle_seat", "error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `boxoffice_checkout_total{outcome="conflict"} 2`))
}

func TestNewIsIndependent(t *testing.T) {
	a, b := New(), New()
	a.Refunds.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Refunds))
}

func TestRegisterDB(t *testing.T) {
	db, err := sql.Open("postgres", "host=localhost dbname=unused sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	m := New()
	m.RegisterDB(db)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `go_sql_open_connections{db_name="boxoffice"} 0`)
}
