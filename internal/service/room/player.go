package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/domain"
)

type RequestSyncParams struct {
	ConnID string
	RoomID string
}

// RequestSync sends the derived playback state to the requesting connection only.
func (s *service) RequestSync(ctx context.Context, params *RequestSyncParams) error {
	return s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		s.send(ctx, params.ConnID, domain.MsgTypeSyncState, &domain.SyncState{
			VideoID:   room.Player.VideoID,
			Time:      room.Player.CurrentTime(s.now()),
			IsPlaying: room.Player.IsPlaying,
		})
		return nil
	})
}

type UpdatePlayerStateParams struct {
	SenderConnID string
	RoomID       string
	Action       string
	Time         float64
}

// UpdatePlayerState re-anchors the room clock at the reported position and relays the event to
// everyone but the sender.
func (s *service) UpdatePlayerState(ctx context.Context, params *UpdatePlayerStateParams) error {
	return s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		room.Player.UpdateState(params.Action == domain.ActionPlay, params.Time, s.now())

		s.broadcastExcept(ctx, room.ID, params.SenderConnID, domain.MsgTypeSync, &domain.PlayerSync{
			Action: params.Action,
			Time:   params.Time,
		})
		return nil
	})
}

type UpdatePlayerVideoParams struct {
	RoomID  string
	VideoID string
}

func (s *service) UpdatePlayerVideo(ctx context.Context, params *UpdatePlayerVideoParams) error {
	return s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		s.changeVideo(ctx, room, params.VideoID)
		return nil
	})
}

// changeVideo must run on the event loop.
func (s *service) changeVideo(ctx context.Context, room *domain.Room, videoID string) {
	room.Player.UpdateVideo(videoID, s.now())

	s.broadcast(ctx, room.ID, domain.MsgTypeVideoChange, &domain.VideoChange{
		VideoID:   room.Player.VideoID,
		Time:      room.Player.Position,
		IsPlaying: room.Player.IsPlaying,
	})
}
