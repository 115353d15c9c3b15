package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type Config struct {
	HTTPClient *http.Client
	// defaults to https://www.youtube.com/oembed
	OEmbedURL string
	// defaults to https://youtu.be
	PageURL string
	// formatted with the video id, defaults to https://i.ytimg.com/vi/%s/hqdefault.jpg
	ThumbnailURLFormat string
}

type Client struct {
	httpClient         *http.Client
	oembedURL          string
	pageURL            string
	thumbnailURLFormat string
}

func New(cfg *Config) *Client {
	c := &Client{
		httpClient:         &http.Client{Timeout: 10 * time.Second},
		oembedURL:          "https://www.youtube.com/oembed",
		pageURL:            "https://youtu.be",
		thumbnailURLFormat: "https://i.ytimg.com/vi/%s/hqdefault.jpg",
	}

	if cfg == nil {
		return c
	}
	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
	}
	if cfg.OEmbedURL != "" {
		c.oembedURL = cfg.OEmbedURL
	}
	if cfg.PageURL != "" {
		c.pageURL = cfg.PageURL
	}
	if cfg.ThumbnailURLFormat != "" {
		c.thumbnailURLFormat = cfg.ThumbnailURLFormat
	}

	return c
}

// Get asks oEmbed first and falls back to the watch page for videos that cannot be embedded.
func (c *Client) Get(ctx context.Context, videoID string) (*VideoData, error) {
	videoData, err := c.getWithEmbed(ctx, videoID)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoID)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	if videoData.ThumbnailURL == "" {
		videoData.ThumbnailURL = fmt.Sprintf(c.thumbnailURLFormat, videoID)
	}

	return videoData, nil
}
