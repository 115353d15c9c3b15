package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/videodata"
)

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrAlreadyJoined        = errors.New("connection already joined a room")
	ErrNotJoined            = errors.New("connection has not joined a room")
	ErrVideoIndexOutOfRange = errors.New("video index out of range")
	ErrPlaylistEmpty        = errors.New("playlist is empty")
	ErrVideoDataUnavailable = errors.New("video data unavailable")
	ErrServiceStopped       = errors.New("service stopped")
)

type iRoomRepo interface {
	GetOrCreate(roomID string, now time.Time) (*domain.Room, bool)
	Get(roomID string) (*domain.Room, error)
	Evict(now time.Time) []string
}

type iConnRepo interface {
	JoinGroup(connID, group string) error
	SendToConn(connID string, msg any) error
	Broadcast(group string, msg any) error
	BroadcastExcept(group, exceptConnID string, msg any) error
}

type iVideoDataService interface {
	GetVideoData(ctx context.Context, videoID string) (videodata.VideoData, error)
}

type Config struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// session is what a connection bound itself to on join.
type session struct {
	roomID   string
	username string
}

type service struct {
	roomRepo         iRoomRepo
	connRepo         iConnRepo
	videoDataService iVideoDataService
	now              func() time.Time
	// touched only by the event loop
	sessions map[string]session
	events   chan func()
	done     chan struct{}
	logger   *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, videoDataService iVideoDataService, cfg *Config, logger *slog.Logger) *service {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}

	return &service{
		roomRepo:         roomRepo,
		connRepo:         connRepo,
		videoDataService: videoDataService,
		now:              now,
		sessions:         make(map[string]session),
		events:           make(chan func()),
		done:             make(chan struct{}),
		logger:           logger,
	}
}

func (s service) getRoom(roomID string) (*domain.Room, error) {
	room, err := s.roomRepo.Get(roomID)
	if err != nil {
		return nil, ErrRoomNotFound
	}

	return room, nil
}

func (s service) send(ctx context.Context, connID, msgType string, payload any) {
	if err := s.connRepo.SendToConn(connID, &domain.Message{
		Type:    msgType,
		Payload: payload,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to send message", "conn_id", connID, "type", msgType, "error", err)
	}
}

func (s service) broadcast(ctx context.Context, roomID, msgType string, payload any) {
	if err := s.connRepo.Broadcast(roomID, &domain.Message{
		Type:    msgType,
		Payload: payload,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to broadcast message", "room_id", roomID, "type", msgType, "error", err)
	}
}

func (s service) broadcastExcept(ctx context.Context, roomID, exceptConnID, msgType string, payload any) {
	if err := s.connRepo.BroadcastExcept(roomID, exceptConnID, &domain.Message{
		Type:    msgType,
		Payload: payload,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to broadcast message", "room_id", roomID, "type", msgType, "error", err)
	}
}

func (s service) broadcastQueue(ctx context.Context, room *domain.Room) {
	s.broadcast(ctx, room.ID, domain.MsgTypeQueueUpdate, &domain.QueueUpdate{
		Queue: room.Playlist.AsList(),
	})
}
