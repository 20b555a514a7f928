package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewFixed(start)
	assert.Equal(t, start, c.Now())

	c.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestSystem(t *testing.T) {
	before := time.Now()
	got := System{}.Now()
	assert.False(t, got.Before(before))
}
