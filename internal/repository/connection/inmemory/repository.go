package inmemory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type repo struct {
	conns  map[string]*Conn
	groups map[string]map[string]*Conn
	// connection id -> group
	connGroup map[string]string
	cfg       Config
	logger    *slog.Logger
	mu        sync.RWMutex
}

func NewRepo(cfg Config, logger *slog.Logger) *repo {
	return &repo{
		conns:     make(map[string]*Conn),
		groups:    make(map[string]map[string]*Conn),
		connGroup: make(map[string]string),
		cfg:       cfg,
		logger:    logger,
	}
}

func (r *repo) Add(ws *websocket.Conn) *Conn {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := &Conn{
		ID:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, r.cfg.SendBufferSize),
		cfg:  r.cfg,
	}
	r.conns[conn.ID] = conn

	r.logger.Debug(funcName, "conn_id", conn.ID, "total", len(r.conns))
	return conn
}

// Remove forgets the connection and closes its send queue, which stops its write pump.
func (r *repo) Remove(connID string) error {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return connection.ErrNotFound
	}

	if group, ok := r.connGroup[connID]; ok {
		delete(r.groups[group], connID)
		if len(r.groups[group]) == 0 {
			delete(r.groups, group)
		}
		delete(r.connGroup, connID)
	}

	delete(r.conns, connID)
	close(conn.send)

	r.logger.Debug(funcName, "conn_id", connID, "total", len(r.conns))
	return nil
}

// JoinGroup subscribes the connection to group broadcasts. A connection belongs to one group.
func (r *repo) JoinGroup(connID, group string) error {
	funcName := "connection.inmemory.JoinGroup"
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return connection.ErrNotFound
	}

	if current, ok := r.connGroup[connID]; ok {
		if current == group {
			return nil
		}
		return connection.ErrAlreadyExists
	}

	if _, ok := r.groups[group]; !ok {
		r.groups[group] = make(map[string]*Conn)
	}
	r.groups[group][connID] = conn
	r.connGroup[connID] = group

	r.logger.Debug(funcName, "conn_id", connID, "group", group, "group_size", len(r.groups[group]))
	return nil
}

func (r *repo) GroupSize(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.groups[group])
}

func (r *repo) Length() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

func (r *repo) SendToConn(connID string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok {
		return connection.ErrNotFound
	}

	return r.enqueue(conn, data)
}

func (r *repo) Broadcast(group string, msg any) error {
	return r.BroadcastExcept(group, "", msg)
}

// BroadcastExcept sends msg to every connection of group but exceptConnID.
func (r *repo) BroadcastExcept(group, exceptConnID string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID, conn := range r.groups[group] {
		if connID == exceptConnID {
			continue
		}

		if err := r.enqueue(conn, data); err != nil {
			r.logger.Warn("connection.inmemory.BroadcastExcept", "conn_id", connID, "error", err)
		}
	}

	return nil
}

// enqueue must be called with r.mu held. A slow consumer is dropped instead of blocking the caller.
func (r *repo) enqueue(conn *Conn, data []byte) error {
	select {
	case conn.send <- data:
		return nil
	default:
		go r.Remove(conn.ID)
		return connection.ErrBufferFull
	}
}
