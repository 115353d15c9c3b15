package videodata

import "errors"

var ErrVideoDataNotFound = errors.New("video data not found")

type VideoData struct {
	Title        string `redis:"title"`
	ThumbnailURL string `redis:"thumbnail_url"`
}
