package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
)

var ErrNotJoined = errors.New("client has not joined a room")

// iPolicy receives the room state pushed by the server.
type iPolicy interface {
	OnRoomData(videoID string, at float64, isPlaying bool)
	OnSyncState(videoID string, at float64, isPlaying bool)
	OnSync(action string, at float64)
	OnVideoChange(videoID string, at float64, isPlaying bool)
}

type Config struct {
	URL    string
	Dialer *websocket.Dialer
	// how often an application level ping is sent, 0 disables it
	PingPeriod time.Duration
	WriteWait  time.Duration
	// optional observers of the non playback events
	OnUsers func(users []string)
	OnQueue func(queue []domain.Video)
	OnChat  func(msg domain.ChatMessage)
}

type Client struct {
	ws     *websocket.Conn
	cfg    Config
	room   string
	logger *slog.Logger
	// guards ws writes and room
	mu sync.Mutex
}

func Dial(ctx context.Context, cfg *Config, logger *slog.Logger) (*Client, error) {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.URL, err)
	}

	c := &Client{
		ws:     ws,
		cfg:    *cfg,
		logger: logger,
	}
	if c.cfg.WriteWait <= 0 {
		c.cfg.WriteWait = 10 * time.Second
	}

	return c, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

func (c *Client) write(msgType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writeLocked(msgType, payload)
}

// writeLocked must be called with c.mu held.
func (c *Client) writeLocked(msgType string, payload any) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	if err := c.ws.WriteJSON(&domain.Message{
		Type:    msgType,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", msgType, err)
	}

	return nil
}

func (c *Client) joinedRoom() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == "" {
		return "", ErrNotJoined
	}

	return c.room, nil
}

// Join enters room and asks for a fresh sync right away.
func (c *Client) Join(room, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeLocked(domain.MsgTypeJoin, &domain.JoinInput{
		Room:     room,
		Username: username,
	}); err != nil {
		return err
	}
	c.room = room

	return c.writeLocked(domain.MsgTypeRequestSync, &domain.RequestSyncInput{Room: room})
}

func (c *Client) RequestSync() error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypeRequestSync, &domain.RequestSyncInput{Room: room})
}

func (c *Client) Sync(action string, at float64) error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypeSync, &domain.SyncInput{
		Room:   room,
		Action: action,
		Time:   at,
	})
}

func (c *Client) NextVideo() error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypeNextVideo, &domain.NextVideoInput{Room: room})
}

func (c *Client) ChangeVideo(videoID string) error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypeVideoChange, &domain.VideoChangeInput{
		Room:    room,
		VideoID: videoID,
	})
}

func (c *Client) AddToQueue(videoID string) error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypeAddToQueue, &domain.AddToQueueInput{
		Room:    room,
		VideoID: videoID,
	})
}

func (c *Client) PlayFromQueue(index int) error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypePlayFromQueue, &domain.PlayFromQueueInput{
		Room:  room,
		Index: index,
	})
}

func (c *Client) Chat(message, username string) error {
	room, err := c.joinedRoom()
	if err != nil {
		return err
	}

	return c.write(domain.MsgTypeChat, &domain.ChatInput{
		Room:     room,
		Message:  message,
		Username: username,
	})
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Run reads server events into policy until the connection fails or ctx is done.
func (c *Client) Run(ctx context.Context, policy iPolicy) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		c.ws.Close()
	}()

	if c.cfg.PingPeriod > 0 {
		go c.pingLoop(ctx)
	}

	for {
		var msg inbound
		if err := c.ws.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		if err := c.dispatch(policy, &msg); err != nil {
			c.logger.WarnContext(ctx, "failed to handle server event", "type", msg.Type, "error", err)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(domain.MsgTypePing, &domain.PingInput{}); err != nil {
				c.logger.DebugContext(ctx, "failed to ping", "error", err)
				return
			}
		}
	}
}

func (c *Client) dispatch(policy iPolicy, msg *inbound) error {
	switch msg.Type {
	case domain.MsgTypeRoomData:
		var p domain.RoomData
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		policy.OnRoomData(p.VideoID, p.Time, p.IsPlaying)
		if c.cfg.OnUsers != nil {
			c.cfg.OnUsers(p.Users)
		}
	case domain.MsgTypeSyncState:
		var p domain.SyncState
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		policy.OnSyncState(p.VideoID, p.Time, p.IsPlaying)
	case domain.MsgTypeSync:
		var p domain.PlayerSync
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		policy.OnSync(p.Action, p.Time)
	case domain.MsgTypeVideoChange:
		var p domain.VideoChange
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		policy.OnVideoChange(p.VideoID, p.Time, p.IsPlaying)
	case domain.MsgTypeUpdateUsers:
		var p domain.UsersUpdate
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		if c.cfg.OnUsers != nil {
			c.cfg.OnUsers(p.Users)
		}
	case domain.MsgTypeQueueUpdate:
		var p domain.QueueUpdate
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		if c.cfg.OnQueue != nil {
			c.cfg.OnQueue(p.Queue)
		}
	case domain.MsgTypeChat:
		var p domain.ChatMessage
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		if c.cfg.OnChat != nil {
			c.cfg.OnChat(p)
		}
	default:
		return fmt.Errorf("unknown event type %q", msg.Type)
	}

	return nil
}
