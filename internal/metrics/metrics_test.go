package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestResult(t *testing.T) {
	if got := Result(nil); got != StatusOK {
		t.Errorf("expected %q, got %q", StatusOK, got)
	}
	if got := Result(errors.New("boom")); got != StatusError {
		t.Errorf("expected %q, got %q", StatusError, got)
	}
}

func TestCounters(t *testing.T) {
	c := MatchOutcomesTotal.WithLabelValues("matched")
	before := counterValue(t, c)
	c.Inc()

	if got := counterValue(t, c); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}
