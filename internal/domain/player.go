package domain

import "time"

const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

// Player is the playback clock of a room. Position is only meaningful together with UpdatedAt:
// while IsPlaying the timeline keeps advancing from that anchor.
type Player struct {
	VideoID   string
	IsPlaying bool
	Position  float64
	UpdatedAt time.Time
}

func NewPlayer(videoID string, now time.Time) *Player {
	return &Player{
		VideoID:   videoID,
		IsPlaying: false,
		Position:  0,
		UpdatedAt: now,
	}
}

// CurrentTime returns the effective position at now.
func (p Player) CurrentTime(now time.Time) float64 {
	if !p.IsPlaying {
		return p.Position
	}

	elapsed := now.Sub(p.UpdatedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return p.Position + elapsed
}

func (p *Player) UpdateState(isPlaying bool, position float64, now time.Time) {
	p.IsPlaying = isPlaying
	p.Position = position
	p.UpdatedAt = now
}

// UpdateVideo loads videoID from the start and starts playing it.
func (p *Player) UpdateVideo(videoID string, now time.Time) {
	p.VideoID = videoID
	p.UpdateState(true, 0, now)
}
