package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/repository/videodata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour, slog.Default()), s
}

func TestSetAndGetVideoData(t *testing.T) {
	repo, s := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetVideoData(ctx, "abc123")
	require.ErrorIs(t, err, videodata.ErrVideoDataNotFound)

	want := videodata.VideoData{Title: "Song", ThumbnailURL: "https://img/abc123.jpg"}
	require.NoError(t, repo.SetVideoData(ctx, "abc123", want))

	got, err := repo.GetVideoData(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, "Song", s.HGet("video-data:abc123", "title"))
	assert.Equal(t, time.Hour, s.TTL("video-data:abc123"))
}

func TestVideoDataExpires(t *testing.T) {
	repo, s := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetVideoData(ctx, "abc123", videodata.VideoData{Title: "Song"}))
	s.FastForward(time.Hour + time.Second)

	_, err := repo.GetVideoData(ctx, "abc123")
	assert.ErrorIs(t, err, videodata.ErrVideoDataNotFound)
}

func TestGetVideoDataRedisDown(t *testing.T) {
	repo, s := newTestRepo(t)
	s.Close()

	_, err := repo.GetVideoData(context.Background(), "abc123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, videodata.ErrVideoDataNotFound)
}
