package inmemory

import (
	"time"

	"github.com/sharetube/watchparty/internal/domain"
)

type EvictionPolicy interface {
	ShouldEvict(room *domain.Room, now time.Time) bool
}

// NeverEvict keeps every room for the process lifetime.
type NeverEvict struct{}

func (NeverEvict) ShouldEvict(*domain.Room, time.Time) bool {
	return false
}

// EvictWhenEmptyFor evicts rooms that have had no members for at least Grace.
type EvictWhenEmptyFor struct {
	Grace time.Duration
}

func (p EvictWhenEmptyFor) ShouldEvict(room *domain.Room, now time.Time) bool {
	emptySince, ok := room.EmptySince()
	if !ok {
		return false
	}

	return now.Sub(emptySince) >= p.Grace
}

// NewEvictionPolicy returns NeverEvict for a non-positive grace period.
func NewEvictionPolicy(grace time.Duration) EvictionPolicy {
	if grace <= 0 {
		return NeverEvict{}
	}

	return EvictWhenEmptyFor{Grace: grace}
}
