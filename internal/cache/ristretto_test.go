package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneralCache(t *testing.T) {
	c, err := NewGeneralCache(1000, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", "v")
	c.Wait()

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}
