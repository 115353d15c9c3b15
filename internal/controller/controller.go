package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

var ErrValidationError = errors.New("validation error")

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	DisconnectMember(context.Context, *room.DisconnectMemberParams) error
	RequestSync(context.Context, *room.RequestSyncParams) error
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	UpdatePlayerVideo(context.Context, *room.UpdatePlayerVideoParams) error
	EnqueueVideo(context.Context, *room.AddVideoParams) error
	PlayFromQueue(context.Context, *room.PlayFromQueueParams) error
	PlayNextVideo(context.Context, *room.PlayNextVideoParams) error
	SendChatMessage(context.Context, *room.SendChatMessageParams) error
}

type iConnRepo interface {
	Add(*websocket.Conn) *inmemory.Conn
	Remove(connID string) error
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, connRepo iConnRepo, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		connRepo:    connRepo,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
