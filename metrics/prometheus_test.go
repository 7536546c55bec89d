package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg).(*PrometheusRecorder)

	rec.IncCounter(EventRequestCreated, ChainLabels(1))
	rec.IncCounter(EventRequestCreated, ChainLabels(1))
	rec.IncCounter(EventSettled, ChainLabels(7))
	rec.ObserveLatency(OpGetStatus, 250*time.Millisecond, ChainLabels(1))

	if got := testutil.ToFloat64(rec.events.WithLabelValues(EventRequestCreated, "1")); got != 2 {
		t.Errorf("request_created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.events.WithLabelValues(EventSettled, "7")); got != 1 {
		t.Errorf("settled = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(rec.operations); got != 1 {
		t.Errorf("operation series = %d, want 1", got)
	}
}

func TestPrometheusRecorderUnknownChain(t *testing.T) {
	rec := NewPrometheusRecorder(prometheus.NewRegistry()).(*PrometheusRecorder)

	rec.IncCounter(EventPollTick, nil)
	rec.ObserveLatency(OpGetStatus, time.Millisecond, map[string]string{})

	if got := testutil.ToFloat64(rec.events.WithLabelValues(EventPollTick, "unknown")); got != 1 {
		t.Errorf("poll_tick{chain=unknown} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(rec.operations, "fetcch_api_request_duration_seconds"); got != 1 {
		t.Errorf("operation series = %d, want 1", got)
	}
}

func TestPrometheusRecorderWatches(t *testing.T) {
	rec := NewPrometheusRecorder(prometheus.NewRegistry()).(*PrometheusRecorder)

	rec.IncCounter(EventWatchStarted, ChainLabels(1))
	rec.IncCounter(EventWatchStarted, ChainLabels(1))
	rec.IncCounter(EventWatchStopped, ChainLabels(1))
	rec.ObserveLatency(OpSettlement, 45*time.Second, ChainLabels(1))

	if got := testutil.ToFloat64(rec.watches.WithLabelValues("1")); got != 1 {
		t.Errorf("active_watches = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(rec.events); got != 0 {
		t.Errorf("watch events must not be counted as events, got %d series", got)
	}

	want := `
# HELP fetcch_settlement_seconds Time from the start of a watch until the request settled.
# TYPE fetcch_settlement_seconds histogram
fetcch_settlement_seconds_bucket{chain="1",le="1"} 0
fetcch_settlement_seconds_bucket{chain="1",le="2"} 0
fetcch_settlement_seconds_bucket{chain="1",le="5"} 0
fetcch_settlement_seconds_bucket{chain="1",le="10"} 0
fetcch_settlement_seconds_bucket{chain="1",le="20"} 0
fetcch_settlement_seconds_bucket{chain="1",le="30"} 0
fetcch_settlement_seconds_bucket{chain="1",le="60"} 1
fetcch_settlement_seconds_bucket{chain="1",le="120"} 1
fetcch_settlement_seconds_bucket{chain="1",le="300"} 1
fetcch_settlement_seconds_bucket{chain="1",le="600"} 1
fetcch_settlement_seconds_bucket{chain="1",le="+Inf"} 1
fetcch_settlement_seconds_sum{chain="1"} 45
fetcch_settlement_seconds_count{chain="1"} 1
`
	if err := testutil.CollectAndCompare(rec.settlement, strings.NewReader(want)); err != nil {
		t.Error(err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NoopRecorder{}
	rec.IncCounter(EventPollTick, nil)
	rec.ObserveLatency(OpCreateRequest, time.Second, nil)
}
