package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache() (*Cache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string]()
	c.now = clock.now
	return c, clock
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache()
	c.Set("key1", "value1", time.Second)

	val, ok := c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestExpiration(t *testing.T) {
	c, clock := newTestCache()
	c.Set("key1", "value1", 100*time.Millisecond)

	clock.t = clock.t.Add(150 * time.Millisecond)
	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache()
	c.Set("key1", "value1", time.Second)
	c.Delete("key1")

	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache()
	c.Set("revoked:1", "a", time.Second)
	c.Set("revoked:2", "b", time.Second)
	c.Set("other:1", "c", time.Second)

	c.Invalidate("revoked:")

	_, ok1 := c.Get("revoked:1")
	_, ok2 := c.Get("revoked:2")
	_, ok3 := c.Get("other:1")
	assert.False(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3)
}

func TestPurge(t *testing.T) {
	c, clock := newTestCache()
	c.Set("short", "a", time.Second)
	c.Set("long", "b", time.Hour)

	clock.t = clock.t.Add(time.Minute)

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("long")
	assert.True(t, ok)
}
