package videodata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/sharetube/watchparty/internal/repository/videodata"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
)

const UnknownTitle = "Unknown title"

type iVideoDataRepo interface {
	GetVideoData(ctx context.Context, videoID string) (videodata.VideoData, error)
	SetVideoData(ctx context.Context, videoID string, data videodata.VideoData) error
}

type iVideoDataClient interface {
	Get(ctx context.Context, videoID string) (*ytvideodata.VideoData, error)
}

type service struct {
	// nil when running without a cache
	repo   iVideoDataRepo
	client iVideoDataClient
	logger *slog.Logger
	sf     singleflight.Group
}

func NewService(repo iVideoDataRepo, client iVideoDataClient, logger *slog.Logger) *service {
	return &service{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

// GetVideoData resolves the title and thumbnail of a video. Videos the catalog does not know
// resolve to the "Unknown title" fallback; transport failures are returned.
func (s *service) GetVideoData(ctx context.Context, videoID string) (videodata.VideoData, error) {
	// concurrent enqueues of one video share a single lookup
	result, err, _ := s.sf.Do(videoID, func() (any, error) {
		return s.lookup(ctx, videoID)
	})
	if err != nil {
		return videodata.VideoData{}, err
	}

	return result.(videodata.VideoData), nil
}

func (s *service) lookup(ctx context.Context, videoID string) (videodata.VideoData, error) {
	if cached, ok := s.getCached(ctx, videoID); ok {
		return cached, nil
	}

	result, err := s.client.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, ytvideodata.ErrVideoNotFound) {
			s.logger.InfoContext(ctx, "video not found in catalog", "video_id", videoID)
			return videodata.VideoData{Title: UnknownTitle}, nil
		}

		return videodata.VideoData{}, fmt.Errorf("failed to get video data: %w", err)
	}

	data := videodata.VideoData{
		Title:        result.Title,
		ThumbnailURL: result.ThumbnailURL,
	}
	s.setCached(ctx, videoID, data)

	return data, nil
}

func (s *service) getCached(ctx context.Context, videoID string) (videodata.VideoData, bool) {
	if s.repo == nil {
		return videodata.VideoData{}, false
	}

	data, err := s.repo.GetVideoData(ctx, videoID)
	if err != nil {
		if !errors.Is(err, videodata.ErrVideoDataNotFound) {
			s.logger.WarnContext(ctx, "failed to read video data cache", "video_id", videoID, "error", err)
		}
		return videodata.VideoData{}, false
	}

	return data, true
}

func (s *service) setCached(ctx context.Context, videoID string, data videodata.VideoData) {
	if s.repo == nil {
		return
	}

	if err := s.repo.SetVideoData(ctx, videoID, data); err != nil {
		s.logger.WarnContext(ctx, "failed to write video data cache", "video_id", videoID, "error", err)
	}
}
