package reconcile

import (
	"sync"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
)

type PlayerState int

const (
	StateUnstarted PlayerState = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
)

func (s PlayerState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateEnded:
		return "ended"
	default:
		return "unstarted"
	}
}

// Player is the local video widget being kept in step with the room.
type Player interface {
	CurrentTime() float64
	State() PlayerState
	Load(videoID string, at float64)
	Seek(to float64)
	Play()
	Pause()
}

// VirtualPlayer is a headless Player driven by a clock. State transitions are reported on
// Events the way a real widget reports them to its page.
type VirtualPlayer struct {
	mu     sync.Mutex
	clock  *domain.Player
	state  PlayerState
	now    func() time.Time
	events chan PlayerState
}

func NewVirtualPlayer(now func() time.Time) *VirtualPlayer {
	if now == nil {
		now = time.Now
	}

	return &VirtualPlayer{
		clock:  domain.NewPlayer("", now()),
		state:  StateUnstarted,
		now:    now,
		events: make(chan PlayerState, 64),
	}
}

func (p *VirtualPlayer) Events() <-chan PlayerState {
	return p.events
}

func (p *VirtualPlayer) VideoID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.clock.VideoID
}

func (p *VirtualPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.clock.CurrentTime(p.now())
}

func (p *VirtualPlayer) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Load cues videoID at the given position and leaves the player buffering until Play or Pause.
func (p *VirtualPlayer) Load(videoID string, at float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clock.VideoID = videoID
	p.clock.UpdateState(false, at, p.now())
	p.setState(StateBuffering)
}

func (p *VirtualPlayer) Seek(to float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clock.UpdateState(p.clock.IsPlaying, to, p.now())
}

func (p *VirtualPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StatePlaying {
		return
	}

	now := p.now()
	p.clock.UpdateState(true, p.clock.CurrentTime(now), now)
	p.setState(StatePlaying)
}

func (p *VirtualPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StatePaused {
		return
	}

	now := p.now()
	p.clock.UpdateState(false, p.clock.CurrentTime(now), now)
	p.setState(StatePaused)
}

// End stops the player as if the video ran out.
func (p *VirtualPlayer) End() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.clock.UpdateState(false, p.clock.CurrentTime(now), now)
	p.setState(StateEnded)
}

// setState must be called with p.mu held. Events are dropped when nobody drains them.
func (p *VirtualPlayer) setState(state PlayerState) {
	p.state = state
	select {
	case p.events <- state:
	default:
	}
}
