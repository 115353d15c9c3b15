package reconcile

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
)

// Emitter sends local playback events to the room.
type Emitter interface {
	Sync(action string, time float64) error
	NextVideo() error
}

type Config struct {
	// seconds of divergence tolerated before seeking, defaults to 0.3
	DriftThreshold float64
	// how long an expected echo of a remote command stays suppressible, defaults to 200ms
	SuppressionWindow time.Duration
	// delay before kicking a player stuck in buffering, defaults to 1s
	BufferingRetry time.Duration
	Now            func() time.Time
	// AfterFunc defaults to time.AfterFunc
	AfterFunc func(d time.Duration, fn func())
}

func DefaultConfig() Config {
	return Config{
		DriftThreshold:    0.3,
		SuppressionWindow: 200 * time.Millisecond,
		BufferingRetry:    time.Second,
	}
}

// token is a player state a remote command is expected to produce.
type token struct {
	state   PlayerState
	expires time.Time
}

// Policy keeps a local Player in step with the room. Remote commands are applied to the
// player and leave tokens behind so the notifications they cause are not echoed back.
type Policy struct {
	player  Player
	emitter Emitter
	cfg     Config
	tokens  []token
	videoID string
	logger  *slog.Logger
	mu      sync.Mutex
}

func NewPolicy(player Player, emitter Emitter, cfg *Config, logger *slog.Logger) *Policy {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.DriftThreshold > 0 {
			c.DriftThreshold = cfg.DriftThreshold
		}
		if cfg.SuppressionWindow > 0 {
			c.SuppressionWindow = cfg.SuppressionWindow
		}
		if cfg.BufferingRetry > 0 {
			c.BufferingRetry = cfg.BufferingRetry
		}
		c.Now = cfg.Now
		c.AfterFunc = cfg.AfterFunc
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.AfterFunc == nil {
		c.AfterFunc = func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		}
	}

	return &Policy{
		player:  player,
		emitter: emitter,
		cfg:     c,
		logger:  logger,
	}
}

// VideoID is the video the room last told us to play.
func (p *Policy) VideoID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.videoID
}

// OnSync applies a play or pause relayed from another member. Small drift is left alone but the
// transport state always follows the room.
func (p *Policy) OnSync(action string, at float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := StatePaused
	if action == domain.ActionPlay {
		want = StatePlaying
	}

	commanded := false
	if drift := math.Abs(p.player.CurrentTime() - at); drift > p.cfg.DriftThreshold {
		p.logger.Debug("reconcile.OnSync", "drift", drift, "seek_to", at)
		p.player.Seek(at)
		p.expect(StateBuffering)
		commanded = true
	}

	if p.player.State() != want {
		if want == StatePlaying {
			p.player.Play()
		} else {
			p.player.Pause()
		}
		commanded = true
	}

	if commanded {
		p.expect(want)
	}
}

func (p *Policy) OnRoomData(videoID string, at float64, isPlaying bool) {
	p.hardLoad(videoID, at, isPlaying)
}

func (p *Policy) OnSyncState(videoID string, at float64, isPlaying bool) {
	p.hardLoad(videoID, at, isPlaying)
}

func (p *Policy) OnVideoChange(videoID string, at float64, isPlaying bool) {
	p.hardLoad(videoID, at, isPlaying)
}

// hardLoad reloads the player at the given position whatever it is showing now.
func (p *Policy) hardLoad(videoID string, at float64, isPlaying bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.videoID = videoID
	p.player.Load(videoID, at)
	if isPlaying {
		p.player.Play()
	} else {
		p.player.Pause()
	}

	// a widget buffers after a load and may pass through playing on its way to a paused one
	p.expect(StateBuffering)
	p.expect(StatePlaying)
	if !isPlaying {
		p.expect(StatePaused)
	}
}

// OnStateChange handles a notification from the local player. Echoes of remote commands are
// dropped, buffering ones included, so only local buffering arms the retry. Everything else is
// reported to the room.
func (p *Policy) OnStateChange(state PlayerState) error {
	p.mu.Lock()
	if p.consume(state) {
		p.mu.Unlock()
		p.logger.Debug("reconcile.OnStateChange", "state", state.String(), "suppressed", true)
		return nil
	}
	p.mu.Unlock()

	switch state {
	case StatePlaying:
		return p.emitter.Sync(domain.ActionPlay, p.player.CurrentTime())
	case StatePaused:
		return p.emitter.Sync(domain.ActionPause, p.player.CurrentTime())
	case StateEnded:
		return p.emitter.NextVideo()
	case StateBuffering:
		p.cfg.AfterFunc(p.cfg.BufferingRetry, func() {
			if p.player.State() == StateBuffering {
				p.logger.Debug("reconcile.OnStateChange", "state", state.String(), "retry", true)
				p.player.Play()
			}
		})
	}

	return nil
}

// expect must be called with p.mu held.
func (p *Policy) expect(state PlayerState) {
	p.tokens = append(p.tokens, token{
		state:   state,
		expires: p.cfg.Now().Add(p.cfg.SuppressionWindow),
	})
}

// consume must be called with p.mu held. It drops expired tokens and reports whether state
// matched one that is still live.
func (p *Policy) consume(state PlayerState) bool {
	now := p.cfg.Now()

	live := p.tokens[:0]
	for _, t := range p.tokens {
		if now.Before(t.expires) {
			live = append(live, t)
		}
	}
	p.tokens = live

	for i, t := range p.tokens {
		if t.state == state {
			p.tokens = append(p.tokens[:i], p.tokens[i+1:]...)
			return true
		}
	}

	return false
}
