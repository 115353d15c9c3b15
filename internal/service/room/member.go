package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
)

const guestPrefix = "Guest-"

type JoinRoomParams struct {
	ConnID   string
	RoomID   string
	Username string
}

type JoinRoomResponse struct {
	Username string
	Created  bool
}

func guestName(connID string) string {
	if len(connID) > 5 {
		connID = connID[:5]
	}

	return guestPrefix + connID
}

// JoinRoom binds the connection to a room, creating the room on first join. The joiner gets a
// roomData snapshot, then the whole room gets the roster and the queue.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	var resp JoinRoomResponse
	err := s.do(ctx, func() error {
		if _, ok := s.sessions[params.ConnID]; ok {
			return ErrAlreadyJoined
		}

		username := params.Username
		if username == "" {
			username = guestName(params.ConnID)
		}

		now := s.now()
		room, created := s.roomRepo.GetOrCreate(params.RoomID, now)
		if err := room.AddMember(domain.Member{
			ConnID:   params.ConnID,
			Username: username,
		}); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}

		if err := s.connRepo.JoinGroup(params.ConnID, params.RoomID); err != nil {
			room.RemoveMemberByConnID(params.ConnID, now)
			return fmt.Errorf("failed to join group: %w", err)
		}

		s.sessions[params.ConnID] = session{
			roomID:   params.RoomID,
			username: username,
		}

		s.send(ctx, params.ConnID, domain.MsgTypeRoomData, &domain.RoomData{
			VideoID:   room.Player.VideoID,
			Users:     room.Members.Usernames(),
			Time:      room.Player.CurrentTime(now),
			IsPlaying: room.Player.IsPlaying,
		})
		s.broadcast(ctx, room.ID, domain.MsgTypeUpdateUsers, &domain.UsersUpdate{
			Users: room.Members.Usernames(),
		})
		s.broadcastQueue(ctx, room)

		resp = JoinRoomResponse{
			Username: username,
			Created:  created,
		}
		return nil
	})
	if err != nil {
		return JoinRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomID, "username", resp.Username, "created", resp.Created)
	return resp, nil
}

type DisconnectMemberParams struct {
	ConnID string
}

// DisconnectMember removes the member owned by the connection and broadcasts the roster.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) error {
	var roomID string
	err := s.do(ctx, func() error {
		sess, ok := s.sessions[params.ConnID]
		if !ok {
			return ErrNotJoined
		}
		delete(s.sessions, params.ConnID)
		roomID = sess.roomID

		room, err := s.getRoom(sess.roomID)
		if err != nil {
			return err
		}

		if _, err := room.RemoveMemberByConnID(params.ConnID, s.now()); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		s.broadcast(ctx, room.ID, domain.MsgTypeUpdateUsers, &domain.UsersUpdate{
			Users: room.Members.Usernames(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "member left", "room_id", roomID)
	return nil
}
