package statsd

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" auth/login ":    "auth_login",
		"ratelimit..check": "ratelimit.check",
		".reaper.sweep.":   "reaper.sweep",
		"   ":              "",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), "input %q", input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " quizgate "}
	local := map[string]string{"result": " allowed ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,result:allowed,service:quizgate", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestClient_Format(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{})
	require.NoError(t, err)

	assert.Equal(t, "quizgate.auth.login:1|c|#result:success",
		c.format("auth.login", "1", "c", map[string]string{"result": "success"}))
	assert.Empty(t, c.format("", "1", "c", nil))
}

func TestClient_WritesDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "test"})
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Enabled())

	c.Count("ratelimit.check", 1, map[string]string{"action": "login"})
	c.Timing("http.request", 1500*time.Microsecond, nil)
	c.Gauge("ratelimit.keys", 3, nil)

	var lines []string
	buf := make([]byte, 512)
	for i := 0; i < 3; i++ {
		require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, readErr := pc.ReadFrom(buf)
		require.NoError(t, readErr)
		lines = append(lines, string(buf[:n]))
	}

	assert.Equal(t, []string{
		"test.ratelimit.check:1|c|#action:login",
		"test.http.request:1.5|ms",
		"test.ratelimit.keys:3|g",
	}, lines)
}

func TestClient_DisabledAndClose(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("noop", 1, nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	nilClient.Count("noop", 1, nil)
	require.NoError(t, nilClient.Close())
}

func TestNewClient_DialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "statsd dial"))
}

type recordingSink struct {
	mu     sync.Mutex
	counts []string
}

func (r *recordingSink) Count(name string, _ int64, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, name)
}
func (r *recordingSink) Gauge(string, float64, map[string]string)        {}
func (r *recordingSink) Timing(string, time.Duration, map[string]string) {}

func TestMulti(t *testing.T) {
	t.Parallel()

	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, nil, b}
	m.Count("auth.login", 1, nil)
	m.Gauge("g", 1, nil)
	m.Timing("t", time.Second, nil)

	assert.Equal(t, []string{"auth.login"}, a.counts)
	assert.Equal(t, []string{"auth.login"}, b.counts)
}
