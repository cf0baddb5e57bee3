package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveEventPublished(t *testing.T) {
	before := testutil.ToFloat64(mealEventsPublished.WithLabelValues("meal.created", "error"))
	ObserveEventPublished("meal.created", errors.New("broker down"))
	after := testutil.ToFloat64(mealEventsPublished.WithLabelValues("meal.created", "error"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesRegistry(t *testing.T) {
	ObserveEventConsumed(nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "daily_diet_events_consumed_total")
}

func TestObserveMealOperation(t *testing.T) {
	before := testutil.ToFloat64(mealOperations.WithLabelValues("create", "ok"))
	ObserveMealOperation("create", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(mealOperations.WithLabelValues("create", "ok")))
}
