package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Authentication(ResultSuccess)
	m.Authentication(ResultFailure)
	m.Authentication(ResultFailure)
	m.TokenIssued()
	m.UserOperation("create", ResultSuccess)
	m.ObserveHTTP("GET", "/health", "200", 0.01)

	if got := testutil.ToFloat64(m.authentications.WithLabelValues(ResultFailure)); got != 2 {
		t.Fatalf("failure count: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tokensIssued); got != 1 {
		t.Fatalf("tokens issued: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.userOperations.WithLabelValues("create", ResultSuccess)); got != 1 {
		t.Fatalf("user ops: got %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.httpDuration); n != 1 {
		t.Fatalf("http histogram series: got %d, want 1", n)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Authentication(ResultSuccess)
	m.TokenIssued()
	m.UserOperation("delete", ResultError)
	m.ObserveHTTP("GET", "/", "200", 1)
}
