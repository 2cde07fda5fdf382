package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecretCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newSecretCache(time.Minute, func() time.Time { return now })

	c.put("db-password", "s3cret")
	v, ok := c.get("db-password")
	assert.True(t, ok)
	assert.Equal(t, "s3cret", v)

	now = now.Add(59 * time.Second)
	_, ok = c.get("db-password")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.get("db-password")
	assert.False(t, ok)
}

func TestSecretCache_DefaultTTLAndClear(t *testing.T) {
	c := newSecretCache(0, time.Now)
	assert.Equal(t, defaultCacheTTL, c.ttl)

	c.put("a", "1")
	c.clear()
	_, ok := c.get("a")
	assert.False(t, ok)
}

func TestSecretCache_NilNeverHits(t *testing.T) {
	var c *secretCache
	c.put("a", "1")
	c.clear()
	_, ok := c.get("a")
	assert.False(t, ok)
}
