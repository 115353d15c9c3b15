package inmemory

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

type repo struct {
	rooms          map[string]*domain.Room
	defaultVideoID string
	policy         EvictionPolicy
	logger         *slog.Logger
	mu             sync.RWMutex
}

func NewRepo(defaultVideoID string, policy EvictionPolicy, logger *slog.Logger) *repo {
	if policy == nil {
		policy = NeverEvict{}
	}

	return &repo{
		rooms:          make(map[string]*domain.Room),
		defaultVideoID: defaultVideoID,
		policy:         policy,
		logger:         logger,
	}
}

// GetOrCreate returns the room and whether it was created by this call.
func (r *repo) GetOrCreate(roomID string, now time.Time) (*domain.Room, bool) {
	funcName := "room.inmemory.GetOrCreate"
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomID]; ok {
		return room, false
	}

	room := domain.NewRoom(roomID, r.defaultVideoID, now)
	r.rooms[roomID] = room

	r.logger.Info(funcName, "room_id", roomID, "video_id", r.defaultVideoID)
	return room, true
}

func (r *repo) Get(roomID string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room, nil
}

func (r *repo) Length() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

// Evict removes every room the policy selects and returns their ids.
func (r *repo) Evict(now time.Time) []string {
	funcName := "room.inmemory.Evict"
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := []string{}
	for roomID, room := range r.rooms {
		if r.policy.ShouldEvict(room, now) {
			delete(r.rooms, roomID)
			evicted = append(evicted, roomID)
		}
	}

	if len(evicted) > 0 {
		r.logger.Info(funcName, "evicted", evicted, "remaining", len(r.rooms))
	}

	return evicted
}
