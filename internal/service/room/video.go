package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
)

type AddVideoParams struct {
	RoomID  string
	VideoID string
}

// videoSlot is a reserved, still invisible queue entry.
type videoSlot struct {
	room    *domain.Room
	id      int
	videoID string
}

// AddVideo reserves a queue slot on the event loop, looks the metadata up outside of it and
// then fills or drops the slot. The queue keeps submission order whatever the lookup latency.
func (s *service) AddVideo(ctx context.Context, params *AddVideoParams) (domain.Video, error) {
	slot, err := s.reserveVideo(ctx, params)
	if err != nil {
		return domain.Video{}, err
	}

	return s.resolveVideo(ctx, slot)
}

// EnqueueVideo returns as soon as the slot is reserved and finishes the lookup in the background.
func (s *service) EnqueueVideo(ctx context.Context, params *AddVideoParams) error {
	slot, err := s.reserveVideo(ctx, params)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		if _, err := s.resolveVideo(ctx, slot); err != nil {
			s.logger.WarnContext(ctx, "failed to add video", "room_id", params.RoomID, "video_id", params.VideoID, "error", err)
		}
	}()

	return nil
}

func (s *service) reserveVideo(ctx context.Context, params *AddVideoParams) (videoSlot, error) {
	var slot videoSlot
	err := s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		slot = videoSlot{
			room:    room,
			id:      room.Playlist.Reserve(params.VideoID),
			videoID: params.VideoID,
		}
		return nil
	})

	return slot, err
}

func (s *service) resolveVideo(ctx context.Context, slot videoSlot) (domain.Video, error) {
	// The slot is already reserved, so the rest runs even if the sender goes away.
	ctx = context.WithoutCancel(ctx)
	data, lookupErr := s.videoDataService.GetVideoData(ctx, slot.videoID)

	var video domain.Video
	err := s.do(ctx, func() error {
		current, err := s.getRoom(slot.room.ID)
		if err != nil || current != slot.room {
			return ErrRoomNotFound
		}

		if lookupErr != nil {
			if err := slot.room.Playlist.Discard(slot.id); err != nil {
				s.logger.WarnContext(ctx, "failed to discard queue slot", "slot_id", slot.id, "error", err)
			}
			return fmt.Errorf("%w: %w", ErrVideoDataUnavailable, lookupErr)
		}

		video, err = slot.room.Playlist.Resolve(slot.id, data.Title, data.ThumbnailURL)
		if err != nil {
			return fmt.Errorf("failed to resolve queue slot: %w", err)
		}

		s.broadcastQueue(ctx, slot.room)
		return nil
	})
	if err != nil {
		return domain.Video{}, err
	}

	return video, nil
}

type PlayFromQueueParams struct {
	RoomID string
	Index  int
}

// PlayFromQueue moves the queue entry at index into the player.
func (s *service) PlayFromQueue(ctx context.Context, params *PlayFromQueueParams) error {
	return s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		video, err := room.Playlist.RemoveAt(params.Index)
		if err != nil {
			return ErrVideoIndexOutOfRange
		}

		s.changeVideo(ctx, room, video.VideoID)
		s.broadcastQueue(ctx, room)
		return nil
	})
}

type PlayNextVideoParams struct {
	RoomID string
}

// PlayNextVideo pops the head of the queue into the player. An empty queue changes nothing.
func (s *service) PlayNextVideo(ctx context.Context, params *PlayNextVideoParams) error {
	return s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		video, err := room.Playlist.PopFront()
		if err != nil {
			return ErrPlaylistEmpty
		}

		s.changeVideo(ctx, room, video.VideoID)
		s.broadcastQueue(ctx, room)
		return nil
	})
}
