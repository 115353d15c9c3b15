package redisclient

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	rc, err := NewRedisClient(context.Background(), &Config{Host: host, Port: portNum, DialTimeout: time.Second})
	require.NoError(t, err)
	defer rc.Close()

	assert.NoError(t, rc.Ping(context.Background()).Err())
}

func TestNewRedisClientUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	host, port, _ := net.SplitHostPort(s.Addr())
	portNum, _ := strconv.Atoi(port)
	s.Close()

	_, err := NewRedisClient(context.Background(), &Config{Host: host, Port: portNum, DialTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
