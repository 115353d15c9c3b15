package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
)

// serveWS upgrades the request and reads messages until the peer goes away, then leaves the
// room the connection joined.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	conn := c.connRepo.Add(ws)

	ctx := context.WithValue(r.Context(), connIDCtxKey, conn.ID)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", conn.ID))
	defer c.disconnect(ctx, conn.ID)

	go conn.WritePump()
	conn.PrepareRead()

	c.logger.InfoContext(ctx, "connection opened")
	err = c.wsmux.ServeConn(ctx, ws)
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, connID string) {
	ctx = context.WithoutCancel(ctx)

	if err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		ConnID: connID,
	}); err != nil && !errors.Is(err, room.ErrNotJoined) {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
	}

	if err := c.connRepo.Remove(connID); err != nil && !errors.Is(err, connection.ErrNotFound) {
		c.logger.WarnContext(ctx, "failed to remove connection", "error", err)
	}

	c.logger.InfoContext(ctx, "connection closed")
}
