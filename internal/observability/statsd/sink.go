package statsd

import "time"

// Multi fans every metric out to each non-nil sink.
type Multi []Sink

var _ Sink = Multi(nil)

// Count implements Sink.
func (m Multi) Count(name string, value int64, tags map[string]string) {
	for _, s := range m {
		if s != nil {
			s.Count(name, value, tags)
		}
	}
}

// Gauge implements Sink.
func (m Multi) Gauge(name string, value float64, tags map[string]string) {
	for _, s := range m {
		if s != nil {
			s.Gauge(name, value, tags)
		}
	}
}

// Timing implements Sink.
func (m Multi) Timing(name string, value time.Duration, tags map[string]string) {
	for _, s := range m {
		if s != nil {
			s.Timing(name, value, tags)
		}
	}
}
