package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCacheGetSet(t *testing.T) {
	c := NewResponseCache(time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v1")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v1", got)

	c.Set("k", "v2")
	got, _ = c.Get("k")
	assert.Equal(t, "v2", got)

	c.Clear()
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestResponseCacheExpires(t *testing.T) {
	c := NewResponseCache(10 * time.Millisecond)
	c.Set("k", 1)

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestNilResponseCacheIsSafe(t *testing.T) {
	var c *ResponseCache

	c.Set("k", 1)
	c.Clear()
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey([]byte(`{"n":10,"agent":"zi"}`))
	b := CacheKey([]byte(`{"n":10,"agent":"zi"}`))
	other := CacheKey([]byte(`{"n":20,"agent":"zi"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Len(t, a, 64)
}

func TestCacheFromEnv(t *testing.T) {
	t.Setenv("ENABLE_RESPONSE_CACHE", "")
	assert.Nil(t, CacheFromEnv())

	t.Setenv("ENABLE_RESPONSE_CACHE", "true")
	t.Setenv("RESPONSE_CACHE_TTL", "250ms")
	c := CacheFromEnv()
	require.NotNil(t, c)
	assert.Equal(t, 250*time.Millisecond, c.ttl)
}
