package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/service/room"
)

func (c controller) handlePing(_ context.Context, _ *websocket.Conn, _ domain.PingInput) error {
	return nil
}

func (c controller) handleJoin(ctx context.Context, _ *websocket.Conn, input domain.JoinInput) error {
	if _, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		ConnID:   c.getConnIDFromCtx(ctx),
		RoomID:   input.Room,
		Username: input.Username,
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (c controller) handleRequestSync(ctx context.Context, _ *websocket.Conn, input domain.RequestSyncInput) error {
	if err := c.roomService.RequestSync(ctx, &room.RequestSyncParams{
		ConnID: c.getConnIDFromCtx(ctx),
		RoomID: input.Room,
	}); err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}

	return nil
}

func (c controller) handleSync(ctx context.Context, _ *websocket.Conn, input domain.SyncInput) error {
	if err := c.roomService.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomID:       input.Room,
		Action:       input.Action,
		Time:         input.Time,
	}); err != nil {
		return fmt.Errorf("failed to update player state: %w", err)
	}

	return nil
}

func (c controller) handleVideoChange(ctx context.Context, _ *websocket.Conn, input domain.VideoChangeInput) error {
	if err := c.roomService.UpdatePlayerVideo(ctx, &room.UpdatePlayerVideoParams{
		RoomID:  input.Room,
		VideoID: input.VideoID,
	}); err != nil {
		return fmt.Errorf("failed to update player video: %w", err)
	}

	return nil
}

func (c controller) handleAddToQueue(ctx context.Context, _ *websocket.Conn, input domain.AddToQueueInput) error {
	if err := c.roomService.EnqueueVideo(ctx, &room.AddVideoParams{
		RoomID:  input.Room,
		VideoID: input.VideoID,
	}); err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}

	return nil
}

func (c controller) handlePlayFromQueue(ctx context.Context, _ *websocket.Conn, input domain.PlayFromQueueInput) error {
	if err := c.roomService.PlayFromQueue(ctx, &room.PlayFromQueueParams{
		RoomID: input.Room,
		Index:  input.Index,
	}); err != nil {
		return fmt.Errorf("failed to play from queue: %w", err)
	}

	return nil
}

func (c controller) handleNextVideo(ctx context.Context, _ *websocket.Conn, input domain.NextVideoInput) error {
	if err := c.roomService.PlayNextVideo(ctx, &room.PlayNextVideoParams{
		RoomID: input.Room,
	}); err != nil {
		return fmt.Errorf("failed to play next video: %w", err)
	}

	return nil
}

func (c controller) handleChat(ctx context.Context, _ *websocket.Conn, input domain.ChatInput) error {
	if err := c.roomService.SendChatMessage(ctx, &room.SendChatMessageParams{
		SenderConnID: c.getConnIDFromCtx(ctx),
		RoomID:       input.Room,
		Message:      input.Message,
		Username:     input.Username,
	}); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	return nil
}
