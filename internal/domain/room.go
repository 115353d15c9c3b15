package domain

import "time"

type Room struct {
	ID        string
	Player    *Player
	Members   *Members
	Playlist  *Playlist
	CreatedAt time.Time
	// zero while the room has members
	emptySince time.Time
}

func NewRoom(id, defaultVideoID string, now time.Time) *Room {
	return &Room{
		ID:         id,
		Player:     NewPlayer(defaultVideoID, now),
		Members:    NewMembers(),
		Playlist:   NewPlaylist(),
		CreatedAt:  now,
		emptySince: now,
	}
}

func (r *Room) AddMember(member Member) error {
	if err := r.Members.Add(member); err != nil {
		return err
	}

	r.emptySince = time.Time{}
	return nil
}

func (r *Room) RemoveMemberByConnID(connID string, now time.Time) (Member, error) {
	member, err := r.Members.RemoveByConnID(connID)
	if err != nil {
		return Member{}, err
	}

	if r.Members.Length() == 0 {
		r.emptySince = now
	}

	return member, nil
}

// EmptySince reports when the room lost its last member.
func (r Room) EmptySince() (time.Time, bool) {
	return r.emptySince, !r.emptySince.IsZero()
}
