package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndPing(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client := New(Config{Host: mr.Host(), Port: port, DialTimeout: time.Second})
	defer client.Close()

	assert.NoError(t, Ping(context.Background(), client))

	mr.Close()
	assert.ErrorContains(t, Ping(context.Background(), client), "redis ping failed")
}
