package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw, c.loggerWSMw)
	mux.OnError(c.handleWSError)

	mux.Handle(domain.MsgTypePing, validated(c.validate, c.handlePing))

	// member
	mux.Handle(domain.MsgTypeJoin, validated(c.validate, c.handleJoin))
	mux.Handle(domain.MsgTypeChat, validated(c.validate, c.handleChat))

	// player
	mux.Handle(domain.MsgTypeRequestSync, validated(c.validate, c.handleRequestSync))
	mux.Handle(domain.MsgTypeSync, validated(c.validate, c.handleSync))
	mux.Handle(domain.MsgTypeVideoChange, validated(c.validate, c.handleVideoChange))

	// queue
	mux.Handle(domain.MsgTypeAddToQueue, validated(c.validate, c.handleAddToQueue))
	mux.Handle(domain.MsgTypePlayFromQueue, validated(c.validate, c.handlePlayFromQueue))
	mux.Handle(domain.MsgTypeNextVideo, validated(c.validate, c.handleNextVideo))

	return mux
}

// validated decodes the payload into T and rejects it when it fails its validate tags.
func validated[T any](v *validator.Validator, handler func(context.Context, *websocket.Conn, T) error) wsrouter.HandlerFunc {
	return wsrouter.Typed(func(ctx context.Context, conn *websocket.Conn, input T) error {
		if validationErrors, ok := v.Validate(input); !ok {
			return fmt.Errorf("%w: %v", ErrValidationError, validationErrors)
		}

		return handler(ctx, conn, input)
	})
}

// handleWSError logs failures without answering the client. Stale room references and
// queue bounds are expected noise.
func (c controller) handleWSError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrVideoIndexOutOfRange),
		errors.Is(err, room.ErrPlaylistEmpty):
		c.logger.DebugContext(ctx, "websocket message ignored", "error", err)
	case errors.Is(err, ErrValidationError),
		errors.Is(err, wsrouter.ErrInvalidMessage),
		errors.Is(err, wsrouter.ErrInvalidPayload),
		errors.Is(err, wsrouter.ErrUnknownMessageType):
		c.logger.InfoContext(ctx, "invalid websocket message", "error", err)
	default:
		c.logger.WarnContext(ctx, "failed to handle websocket message", "error", err)
	}
}
