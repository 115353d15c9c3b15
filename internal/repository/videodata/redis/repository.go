package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/repository/videodata"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getVideoDataKey(videoID string) string {
	return "video-data:" + videoID
}

func (r repo) GetVideoData(ctx context.Context, videoID string) (videodata.VideoData, error) {
	key := r.getVideoDataKey(videoID)

	cmd := r.rc.HGetAll(ctx, key)
	if err := cmd.Err(); err != nil {
		return videodata.VideoData{}, fmt.Errorf("failed to get video data: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return videodata.VideoData{}, videodata.ErrVideoDataNotFound
	}

	var data videodata.VideoData
	if err := cmd.Scan(&data); err != nil {
		return videodata.VideoData{}, fmt.Errorf("failed to scan video data: %w", err)
	}

	return data, nil
}

func (r repo) SetVideoData(ctx context.Context, videoID string, data videodata.VideoData) error {
	key := r.getVideoDataKey(videoID)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set video data: %w", err)
	}

	r.logger.DebugContext(ctx, "video data cached", "video_id", videoID)
	return nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
