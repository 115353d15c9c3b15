package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharetube/watchparty/internal/controller"
	"github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	videodataRepo "github.com/sharetube/watchparty/internal/repository/videodata"
	videodataRedis "github.com/sharetube/watchparty/internal/repository/videodata/redis"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/internal/service/videodata"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/redisclient"
	"github.com/sharetube/watchparty/pkg/ytvideodata"
)

type AppConfig struct {
	Host             string        `json:"host"`
	Port             int           `json:"port"`
	LogLevel         string        `json:"log_level"`
	DefaultVideoID   string        `json:"default_video_id"`
	RoomGracePeriod  time.Duration `json:"room_grace_period"`
	JanitorInterval  time.Duration `json:"janitor_interval"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port"`
	RedisPassword    string        `json:"-"`
	VideoDataTTL     time.Duration `json:"video_data_ttl"`
	VideoDataTimeout time.Duration `json:"video_data_timeout"`
	WSPingPeriod     time.Duration `json:"ws_ping_period"`
	WSPongWait       time.Duration `json:"ws_pong_wait"`
	WSWriteWait      time.Duration `json:"ws_write_wait"`
	WSMaxMessageSize int64         `json:"ws_max_message_size"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.DefaultVideoID == "" {
		return fmt.Errorf("default video id must not be empty")
	}
	if cfg.RoomGracePeriod < 0 {
		return fmt.Errorf("room grace period must not be negative")
	}
	if cfg.RoomGracePeriod > 0 && cfg.JanitorInterval <= 0 {
		return fmt.Errorf("janitor interval must be greater than 0")
	}
	if cfg.VideoDataTTL <= 0 {
		return fmt.Errorf("video data ttl must be greater than 0")
	}
	if cfg.VideoDataTimeout < 0 {
		return fmt.Errorf("video data timeout must not be negative")
	}
	if cfg.WSPongWait <= 0 || cfg.WSPingPeriod <= 0 || cfg.WSWriteWait <= 0 {
		return fmt.Errorf("websocket timings must be greater than 0")
	}
	if cfg.WSPingPeriod >= cfg.WSPongWait {
		return fmt.Errorf("websocket ping period must be shorter than pong wait")
	}
	if cfg.WSMaxMessageSize < 1 {
		return fmt.Errorf("websocket max message size must be greater than 0")
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type iVideoDataCache interface {
	GetVideoData(ctx context.Context, videoID string) (videodataRepo.VideoData, error)
	SetVideoData(ctx context.Context, videoID string, data videodataRepo.VideoData) error
}

type iRoomService interface {
	Run(ctx context.Context)
	RunJanitor(ctx context.Context, interval time.Duration)
}

type app struct {
	handler     http.Handler
	roomService iRoomService
	closers     []func() error
}

// newApp wires repositories, services and the controller. Redis only backs the video data
// cache, so an unreachable redis is logged and the app runs without the cache.
func newApp(ctx context.Context, cfg *AppConfig, logger *slog.Logger) *app {
	a := &app{}

	var videoDataCache iVideoDataCache
	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:        cfg.RedisHost,
		Port:        cfg.RedisPort,
		Password:    cfg.RedisPassword,
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		logger.WarnContext(ctx, "running without video data cache", "error", err)
	} else {
		a.closers = append(a.closers, rc.Close)
		videoDataCache = videodataRedis.NewRepo(rc, cfg.VideoDataTTL, logger)
	}

	ytClient := ytvideodata.New(&ytvideodata.Config{
		HTTPClient: &http.Client{Timeout: cfg.VideoDataTimeout},
	})
	videoDataService := videodata.NewService(videoDataCache, ytClient, logger)

	roomRepo := roomInmemory.NewRepo(
		cfg.DefaultVideoID,
		roomInmemory.NewEvictionPolicy(cfg.RoomGracePeriod),
		logger,
	)
	connRepo := inmemory.NewRepo(inmemory.Config{
		PingPeriod:     cfg.WSPingPeriod,
		PongWait:       cfg.WSPongWait,
		WriteWait:      cfg.WSWriteWait,
		MaxMessageSize: cfg.WSMaxMessageSize,
		SendBufferSize: inmemory.DefaultConfig().SendBufferSize,
	}, logger)
	roomService := room.NewService(roomRepo, connRepo, videoDataService, nil, logger)

	a.roomService = roomService
	a.handler = controller.NewController(roomService, connRepo, logger).GetMux()

	return a
}

func (a *app) close() error {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}

	return errors.Join(errs...)
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	a := newApp(ctx, cfg, logger)
	defer a.close()

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: a.handler}

	g, gCtx := errgroup.WithContext(serverCtx)

	g.Go(func() error {
		a.roomService.Run(gCtx)
		return nil
	})

	if cfg.RoomGracePeriod > 0 {
		g.Go(func() error {
			a.roomService.RunJanitor(gCtx, cfg.JanitorInterval)
			return nil
		})
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)

	g.Go(func() error {
		select {
		case <-sig:
		case <-gCtx.Done():
		}
		defer serverStopCtx()

		shutdownCtx, c := context.WithTimeout(context.WithoutCancel(gCtx), 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	return g.Wait()
}
