package domain

import (
	"errors"

	"golang.org/x/exp/slices"
)

var (
	ErrVideoNotFound        = errors.New("video not found")
	ErrVideoIndexOutOfRange = errors.New("video index out of range")
	ErrPlaylistEmpty        = errors.New("playlist is empty")
)

type Video struct {
	ID           int    `json:"-"`
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	pending      bool
}

// Playlist is the FIFO queue of upcoming videos. A video is reserved first and becomes
// visible only after its metadata is resolved, so the list keeps submission order even when
// lookups finish out of order. Indexes always refer to visible videos.
type Playlist struct {
	list   []Video
	lastID int
}

func NewPlaylist() *Playlist {
	return &Playlist{
		list: []Video{},
	}
}

func (p Playlist) AsList() []Video {
	videos := make([]Video, 0, len(p.list))
	for _, video := range p.list {
		if !video.pending {
			videos = append(videos, video)
		}
	}

	return videos
}

func (p Playlist) Length() int {
	length := 0
	for _, video := range p.list {
		if !video.pending {
			length++
		}
	}

	return length
}

func (p Playlist) PendingLength() int {
	return len(p.list) - p.Length()
}

// Reserve appends an invisible slot for videoID and returns its id.
func (p *Playlist) Reserve(videoID string) int {
	p.lastID++
	p.list = append(p.list, Video{
		ID:      p.lastID,
		VideoID: videoID,
		pending: true,
	})

	return p.lastID
}

func (p *Playlist) Resolve(id int, title, thumbnailURL string) (Video, error) {
	index := p.indexByID(id)
	if index == -1 || !p.list[index].pending {
		return Video{}, ErrVideoNotFound
	}

	p.list[index].Title = title
	p.list[index].ThumbnailURL = thumbnailURL
	p.list[index].pending = false

	return p.list[index], nil
}

// Discard drops a reserved slot whose metadata could not be resolved.
func (p *Playlist) Discard(id int) error {
	index := p.indexByID(id)
	if index == -1 || !p.list[index].pending {
		return ErrVideoNotFound
	}

	p.list = slices.Delete(p.list, index, index+1)
	return nil
}

func (p *Playlist) RemoveAt(index int) (Video, error) {
	if index < 0 {
		return Video{}, ErrVideoIndexOutOfRange
	}

	visible := 0
	for i, video := range p.list {
		if video.pending {
			continue
		}

		if visible == index {
			p.list = slices.Delete(p.list, i, i+1)
			return video, nil
		}
		visible++
	}

	return Video{}, ErrVideoIndexOutOfRange
}

func (p *Playlist) PopFront() (Video, error) {
	if p.Length() == 0 {
		return Video{}, ErrPlaylistEmpty
	}

	return p.RemoveAt(0)
}

func (p Playlist) indexByID(id int) int {
	return slices.IndexFunc(p.list, func(video Video) bool {
		return video.ID == id
	})
}
