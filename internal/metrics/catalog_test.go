package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterCatalogMetrics_Idempotent(t *testing.T) {
	RegisterCatalogMetrics()
	RegisterCatalogMetrics()

	if !catalogMetricsRegistered {
		t.Fatal("expected catalog metrics to be registered")
	}
}

func TestRecountTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(RecountTotal.WithLabelValues("error"))
	RecountTotal.WithLabelValues("error").Inc()

	if got := testutil.ToFloat64(RecountTotal.WithLabelValues("error")); got != before+1 {
		t.Errorf("recount_total{status=error} = %f, want %f", got, before+1)
	}
}

func TestRatingLookupFailuresTotal(t *testing.T) {
	before := testutil.ToFloat64(RatingLookupFailuresTotal)
	RatingLookupFailuresTotal.Add(2)

	if got := testutil.ToFloat64(RatingLookupFailuresTotal); got != before+2 {
		t.Errorf("rating_lookup_failures_total = %f, want %f", got, before+2)
	}
}
