package videodata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/repository/videodata"
	videodataRedis "github.com/sharetube/watchparty/internal/repository/videodata/redis"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalog struct {
	server *httptest.Server
	hits   atomic.Int32
	status int
}

func newCatalog(t *testing.T, status int) *catalog {
	t.Helper()

	c := &catalog{status: status}
	c.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.hits.Add(1)
		if c.status != http.StatusOK {
			w.WriteHeader(c.status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"Never Gonna Give You Up","author_name":"Rick Astley","thumbnail_url":"https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg"}`)
	}))
	t.Cleanup(c.server.Close)

	return c
}

func (c *catalog) client() *ytvideodata.Client {
	return ytvideodata.New(&ytvideodata.Config{
		HTTPClient: c.server.Client(),
		OEmbedURL:  c.server.URL,
		PageURL:    c.server.URL,
	})
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCacheRepo(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	return miniredis.RunT(t)
}

func TestGetVideoDataCachesLookups(t *testing.T) {
	cat := newCatalog(t, http.StatusOK)
	s := newCacheRepo(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	logger := newTestLogger()
	service := NewService(videodataRedis.NewRepo(rc, time.Hour, logger), cat.client(), logger)
	ctx := context.Background()

	want := videodata.VideoData{
		Title:        "Never Gonna Give You Up",
		ThumbnailURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
	}
	for i := 0; i < 3; i++ {
		got, err := service.GetVideoData(ctx, "dQw4w9WgXcQ")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.EqualValues(t, 1, cat.hits.Load())
	assert.True(t, s.Exists("video-data:dQw4w9WgXcQ"))
}

func TestGetVideoDataWithoutCache(t *testing.T) {
	cat := newCatalog(t, http.StatusOK)
	service := NewService(nil, cat.client(), newTestLogger())

	got, err := service.GetVideoData(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", got.Title)
}

func TestGetVideoDataUnknownVideo(t *testing.T) {
	cat := newCatalog(t, http.StatusNotFound)
	s := newCacheRepo(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	logger := newTestLogger()
	service := NewService(videodataRedis.NewRepo(rc, time.Hour, logger), cat.client(), logger)

	got, err := service.GetVideoData(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, videodata.VideoData{Title: UnknownTitle}, got)
	assert.False(t, s.Exists("video-data:missing"), "fallback must not be cached")
}

func TestGetVideoDataTransportFailure(t *testing.T) {
	cat := newCatalog(t, http.StatusInternalServerError)
	service := NewService(nil, cat.client(), newTestLogger())

	_, err := service.GetVideoData(context.Background(), "dQw4w9WgXcQ")
	assert.Error(t, err)
}

func TestGetVideoDataCacheDown(t *testing.T) {
	cat := newCatalog(t, http.StatusOK)
	s := newCacheRepo(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })
	s.Close()

	logger := newTestLogger()
	service := NewService(videodataRedis.NewRepo(rc, time.Hour, logger), cat.client(), logger)

	got, err := service.GetVideoData(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", got.Title)
}

type blockingClient struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (c *blockingClient) Get(ctx context.Context, videoID string) (*ytvideodata.VideoData, error) {
	if c.calls.Add(1) == 1 {
		close(c.started)
	}
	<-c.release

	return &ytvideodata.VideoData{Title: "title " + videoID}, nil
}

func TestGetVideoDataSharesConcurrentLookups(t *testing.T) {
	client := &blockingClient{started: make(chan struct{}), release: make(chan struct{})}
	service := NewService(nil, client, newTestLogger())

	const callers = 5
	results := make([]videodata.VideoData, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := service.GetVideoData(context.Background(), "abc")
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}

	<-client.started
	time.Sleep(100 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.EqualValues(t, 1, client.calls.Load())
	for _, data := range results {
		assert.Equal(t, "title abc", data.Title)
	}
}
