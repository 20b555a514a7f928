package metrics

// Package metrics holds the emitters that turn session-authority events into tagged metrics.
// Every emitter tolerates a nil sink.

import (
	"strconv"
	"time"

	obserrors "github.com/target/quizgate/internal/observability/errors"
	"github.com/target/quizgate/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess            = "success"
	ResultError              = "error"
	ResultInvalidCredentials = "invalid_credentials"
	ResultAllowed            = "allowed"
	ResultDenied             = "denied"
)

// LoginMetric describes one credential check.
type LoginMetric struct {
	Result   string
	Duration time.Duration
}

// EmitLogin records auth.login.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	sink.Count("auth.login", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.login.duration", in.Duration, CloneTags(tags))
	}
}

// VerifyMetric describes one token verification. Stage is the failing stage or "ok".
type VerifyMetric struct {
	Result string
	Stage  string
}

// EmitVerify records auth.verify.
func EmitVerify(sink statsd.Sink, in VerifyMetric) {
	if sink == nil {
		return
	}
	sink.Count("auth.verify", 1, map[string]string{"result": in.Result, "stage": in.Stage})
}

// RateCheckMetric describes one Rate Gate decision.
type RateCheckMetric struct {
	Action  string
	Allowed bool
}

// EmitRateCheck records ratelimit.check.
func EmitRateCheck(sink statsd.Sink, in RateCheckMetric) {
	if sink == nil {
		return
	}
	result := ResultDenied
	if in.Allowed {
		result = ResultAllowed
	}
	sink.Count("ratelimit.check", 1, map[string]string{"action": in.Action, "result": result})
}

// RateStoreErrorMetric describes a store failure that the failure policy absorbed.
type RateStoreErrorMetric struct {
	Action string
	Policy string
	Err    error
}

// EmitRateStoreError records ratelimit.store_error.
func EmitRateStoreError(sink statsd.Sink, in RateStoreErrorMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"action": in.Action, "policy": in.Policy}
	if class := obserrors.Classify(in.Err); class != "" {
		tags["error_class"] = class
	}
	sink.Count("ratelimit.store_error", 1, tags)
}

// SweepMetric describes one reaper pass over a single store.
type SweepMetric struct {
	Store    string
	Removed  int64
	Duration time.Duration
	Err      error
}

// EmitSweep records reaper.sweep, reaper.removed and the sweep duration.
func EmitSweep(sink statsd.Sink, in SweepMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"store": in.Store, "result": ResultSuccess}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("reaper.sweep", 1, tags)
	if in.Removed > 0 {
		sink.Count("reaper.removed", in.Removed, map[string]string{"store": in.Store})
	}
	if in.Duration > 0 {
		sink.Timing("reaper.sweep.duration", in.Duration, CloneTags(tags))
	}
}

// HTTPMetric describes one served request. Route is the matched pattern, not the raw path.
type HTTPMetric struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
}

// EmitHTTPRequest records http.request and http.request.duration.
func EmitHTTPRequest(sink statsd.Sink, in HTTPMetric) {
	if sink == nil {
		return
	}
	sink.Count("http.request", 1, map[string]string{
		"method": in.Method,
		"route":  in.Route,
		"status": strconv.Itoa(in.Status),
	})
	sink.Timing("http.request.duration", in.Duration, map[string]string{
		"method": in.Method,
		"route":  in.Route,
	})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
