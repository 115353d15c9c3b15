package wsrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetInput struct {
	Name string `json:"name"`
}

type recorder struct {
	mu     sync.Mutex
	names  []string
	types  []string
	errors []error
	done   chan struct{}
}

func newTestServer(t *testing.T, rec *recorder) *httptest.Server {
	t.Helper()

	router := New()
	router.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			rec.mu.Lock()
			rec.types = append(rec.types, GetMessageTypeFromCtx(ctx))
			rec.mu.Unlock()
			return next(ctx, conn, payload)
		}
	})
	router.OnError(func(ctx context.Context, err error) {
		rec.mu.Lock()
		rec.errors = append(rec.errors, err)
		rec.mu.Unlock()
	})
	router.Handle("greet", Typed(func(ctx context.Context, conn *websocket.Conn, input greetInput) error {
		rec.mu.Lock()
		rec.names = append(rec.names, input.Name)
		rec.mu.Unlock()
		return nil
	}))
	router.Handle("bye", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		close(rec.done)
		return nil
	})

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = router.ServeConn(context.Background(), conn)
	}))
}

func TestServeConnRoutesMessages(t *testing.T) {
	rec := &recorder{done: make(chan struct{})}
	server := newTestServer(t, rec)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"greet","payload":{"name":"alice"}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"unknown","payload":{}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"greet","payload":{"name":5}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"greet","payload":{"name":"bob"}}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bye"}`)))

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("bye was not handled")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	assert.Equal(t, []string{"alice", "bob"}, rec.names)
	assert.Equal(t, []string{"greet", "greet", "greet", "bye"}, rec.types)
	require.Len(t, rec.errors, 3)
	assert.ErrorIs(t, rec.errors[0], ErrUnknownMessageType)
	assert.ErrorIs(t, rec.errors[1], ErrInvalidPayload)
	assert.ErrorIs(t, rec.errors[2], ErrInvalidMessage)
}

type traceKey struct{}

func TestErrorsSeeMessageContext(t *testing.T) {
	type report struct {
		messageType string
		trace       string
		err         error
	}

	var mu sync.Mutex
	var reports []report
	done := make(chan struct{})

	router := New()
	router.Use(func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
			return next(context.WithValue(ctx, traceKey{}, "t-1"), conn, payload)
		}
	})
	router.OnError(func(ctx context.Context, err error) {
		trace, _ := ctx.Value(traceKey{}).(string)
		mu.Lock()
		reports = append(reports, report{messageType: GetMessageTypeFromCtx(ctx), trace: trace, err: err})
		mu.Unlock()
	})
	router.Handle("greet", Typed(func(ctx context.Context, conn *websocket.Conn, input greetInput) error {
		return nil
	}))
	router.Handle("bye", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		close(done)
		return nil
	})

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = router.ServeConn(context.Background(), conn)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	for _, frame := range []string{
		`{`,
		``,
		`{"type":"greet","payload":{"name":5}}`,
		`{"type":"nope"}`,
		`{"type":"bye"}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection dropped before bye")
	}

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, reports, 4)
	assert.ErrorIs(t, reports[0].err, ErrInvalidMessage)
	assert.ErrorIs(t, reports[1].err, ErrInvalidMessage)

	assert.ErrorIs(t, reports[2].err, ErrInvalidPayload)
	assert.Equal(t, "greet", reports[2].messageType)
	assert.Equal(t, "t-1", reports[2].trace)

	assert.ErrorIs(t, reports[3].err, ErrUnknownMessageType)
	assert.Equal(t, "nope", reports[3].messageType)
}
