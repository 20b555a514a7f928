package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricCall struct {
	kind  string
	name  string
	value float64
	tags  map[string]string
}

type fakeSink struct {
	mu    sync.Mutex
	calls []metricCall
}

func (f *fakeSink) Count(name string, value int64, tags map[string]string) {
	f.record("count", name, float64(value), tags)
}

func (f *fakeSink) Gauge(name string, value float64, tags map[string]string) {
	f.record("gauge", name, value, tags)
}

func (f *fakeSink) Timing(name string, value time.Duration, tags map[string]string) {
	f.record("timing", name, float64(value), tags)
}

func (f *fakeSink) record(kind, name string, value float64, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, metricCall{kind: kind, name: name, value: value, tags: tags})
}

func TestEmitLogin(t *testing.T) {
	sink := &fakeSink{}
	EmitLogin(sink, LoginMetric{Result: ResultSuccess, Duration: time.Millisecond})

	require.Len(t, sink.calls, 2)
	assert.Equal(t, "auth.login", sink.calls[0].name)
	assert.Equal(t, map[string]string{"result": "success"}, sink.calls[0].tags)
	assert.Equal(t, "timing", sink.calls[1].kind)
}

func TestEmitRateCheck(t *testing.T) {
	sink := &fakeSink{}
	EmitRateCheck(sink, RateCheckMetric{Action: "login", Allowed: false})

	require.Len(t, sink.calls, 1)
	assert.Equal(t, map[string]string{"action": "login", "result": "denied"}, sink.calls[0].tags)
}

func TestEmitRateStoreError(t *testing.T) {
	sink := &fakeSink{}
	EmitRateStoreError(sink, RateStoreErrorMetric{Action: "payment", Policy: "closed", Err: context.DeadlineExceeded})

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "ratelimit.store_error", sink.calls[0].name)
	assert.Equal(t, "timeout", sink.calls[0].tags["error_class"])
	assert.Equal(t, "closed", sink.calls[0].tags["policy"])
}

func TestEmitSweep(t *testing.T) {
	sink := &fakeSink{}
	EmitSweep(sink, SweepMetric{Store: "memory_rate", Removed: 3, Duration: time.Millisecond})

	require.Len(t, sink.calls, 3)
	assert.Equal(t, "reaper.sweep", sink.calls[0].name)
	assert.Equal(t, "success", sink.calls[0].tags["result"])
	assert.Equal(t, "reaper.removed", sink.calls[1].name)
	assert.InDelta(t, 3, sink.calls[1].value, 0)

	sink = &fakeSink{}
	EmitSweep(sink, SweepMetric{Store: "postgres_revocations", Err: context.Canceled})
	require.Len(t, sink.calls, 1)
	assert.Equal(t, "error", sink.calls[0].tags["result"])
	assert.Equal(t, "canceled", sink.calls[0].tags["error_class"])
}

func TestEmitHTTPRequest(t *testing.T) {
	sink := &fakeSink{}
	EmitHTTPRequest(sink, HTTPMetric{Method: "POST", Route: "/api/auth/login", Status: 429, Duration: time.Millisecond})

	require.Len(t, sink.calls, 2)
	assert.Equal(t, "429", sink.calls[0].tags["status"])
	assert.Equal(t, "http.request.duration", sink.calls[1].name)
}

func TestEmittersTolerateNilSink(t *testing.T) {
	EmitLogin(nil, LoginMetric{})
	EmitVerify(nil, VerifyMetric{})
	EmitRateCheck(nil, RateCheckMetric{})
	EmitRateStoreError(nil, RateStoreErrorMetric{})
	EmitSweep(nil, SweepMetric{})
	EmitHTTPRequest(nil, HTTPMetric{})
}
