package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/domain"
)

type SendChatMessageParams struct {
	SenderConnID string
	RoomID       string
	Message      string
	Username     string
}

// SendChatMessage relays a chat line to every other member. An empty username falls back to
// the name the sender joined with.
func (s *service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) error {
	return s.do(ctx, func() error {
		room, err := s.getRoom(params.RoomID)
		if err != nil {
			return err
		}

		username := params.Username
		if username == "" {
			username = s.sessions[params.SenderConnID].username
		}

		s.broadcastExcept(ctx, room.ID, params.SenderConnID, domain.MsgTypeChat, &domain.ChatMessage{
			Message:  params.Message,
			Username: username,
		})
		return nil
	})
}
