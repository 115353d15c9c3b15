package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type Middleware func(next HandlerFunc) HandlerFunc

type ErrorHandlerFunc func(ctx context.Context, err error)

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
	onError     ErrorHandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// OnError sets the callback receiving handler errors and unknown message types.
func (r *WSRouter) OnError(fn ErrorHandlerFunc) {
	r.onError = fn
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// Typed adapts a handler taking a decoded payload.
func Typed[T any](handler func(ctx context.Context, conn *websocket.Conn, input T) error) HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		return handler(ctx, conn, input)
	}
}

// ServeConn reads messages until the connection fails and returns the read error. A frame
// that is not a valid message is reported and skipped.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.handleError(ctx, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
			continue
		}

		msgCtx := withMessageType(ctx, msg.Type)

		route, exists := r.routes[msg.Type]
		if !exists {
			r.handleError(msgCtx, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
			continue
		}

		handler := r.reportErrors(route)
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			handler = r.middlewares[i](handler)
		}

		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			r.handleError(msgCtx, err)
		}
	}
}

// reportErrors sits innermost so the error callback sees the context built by the middlewares.
func (r *WSRouter) reportErrors(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		if err := next(ctx, conn, payload); err != nil {
			r.handleError(ctx, err)
		}

		return nil
	}
}

func (r *WSRouter) handleError(ctx context.Context, err error) {
	if r.onError != nil {
		r.onError(ctx, err)
	}
}
