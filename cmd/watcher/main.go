package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/reconcile"
	"github.com/sharetube/watchparty/internal/wsclient"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	serverURL = configVar[string]{
		envKey:       "WATCHER_SERVER_URL",
		flagKey:      "server-url",
		defaultValue: "ws://localhost:3000/api/v1/ws",
	}
	room = configVar[string]{
		envKey:       "WATCHER_ROOM",
		flagKey:      "room",
		defaultValue: "",
	}
	username = configVar[string]{
		envKey:       "WATCHER_USERNAME",
		flagKey:      "username",
		defaultValue: "",
	}
	driftThreshold = configVar[float64]{
		envKey:       "WATCHER_DRIFT_THRESHOLD",
		flagKey:      "drift-threshold",
		defaultValue: 0.3,
	}
	reportPeriod = configVar[time.Duration]{
		envKey:       "WATCHER_REPORT_PERIOD",
		flagKey:      "report-period",
		defaultValue: 5 * time.Second,
	}
	logLevel = configVar[string]{
		envKey:       "WATCHER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
)

type watcherConfig struct {
	ServerURL      string
	Room           string
	Username       string
	DriftThreshold float64
	ReportPeriod   time.Duration
	LogLevel       string
}

func loadConfig() *watcherConfig {
	pflag.String(serverURL.flagKey, serverURL.defaultValue, "Websocket endpoint of the server")
	pflag.String(room.flagKey, room.defaultValue, "Room to join")
	pflag.String(username.flagKey, username.defaultValue, "Display name, empty for a guest name")
	pflag.Float64(driftThreshold.flagKey, driftThreshold.defaultValue, "Seconds of drift tolerated before seeking")
	pflag.Duration(reportPeriod.flagKey, reportPeriod.defaultValue, "How often the local position is logged")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(serverURL.flagKey, serverURL.envKey)
	viper.BindEnv(room.flagKey, room.envKey)
	viper.BindEnv(username.flagKey, username.envKey)
	viper.BindEnv(driftThreshold.flagKey, driftThreshold.envKey)
	viper.BindEnv(reportPeriod.flagKey, reportPeriod.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)

	viper.SetDefault(serverURL.flagKey, serverURL.defaultValue)
	viper.SetDefault(room.flagKey, room.defaultValue)
	viper.SetDefault(username.flagKey, username.defaultValue)
	viper.SetDefault(driftThreshold.flagKey, driftThreshold.defaultValue)
	viper.SetDefault(reportPeriod.flagKey, reportPeriod.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)

	return &watcherConfig{
		ServerURL:      viper.GetString(serverURL.flagKey),
		Room:           viper.GetString(room.flagKey),
		Username:       viper.GetString(username.flagKey),
		DriftThreshold: viper.GetFloat64(driftThreshold.flagKey),
		ReportPeriod:   viper.GetDuration(reportPeriod.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
	}
}

func run(ctx context.Context, cfg *watcherConfig) error {
	if cfg.Room == "" {
		return fmt.Errorf("room must not be empty")
	}
	if cfg.ReportPeriod <= 0 {
		return fmt.Errorf("report period must be greater than 0")
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	logger := slog.New(&ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	})
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room", cfg.Room))

	client, err := wsclient.Dial(ctx, &wsclient.Config{
		URL:        cfg.ServerURL,
		PingPeriod: 30 * time.Second,
		OnUsers: func(users []string) {
			logger.InfoContext(ctx, "users", "users", users)
		},
		OnQueue: func(queue []domain.Video) {
			logger.InfoContext(ctx, "queue", "length", len(queue))
		},
		OnChat: func(msg domain.ChatMessage) {
			logger.InfoContext(ctx, "chat", "username", msg.Username, "message", msg.Message)
		},
	}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	player := reconcile.NewVirtualPlayer(nil)
	policy := reconcile.NewPolicy(player, client, &reconcile.Config{
		DriftThreshold: cfg.DriftThreshold,
	}, logger)

	go func() {
		ticker := time.NewTicker(cfg.ReportPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case state := <-player.Events():
				if err := policy.OnStateChange(state); err != nil {
					logger.WarnContext(ctx, "failed to report state", "state", state.String(), "error", err)
				}
			case <-ticker.C:
				logger.InfoContext(ctx, "position",
					"video_id", player.VideoID(),
					"state", player.State().String(),
					"time", player.CurrentTime(),
				)
			}
		}
	}()

	if err := client.Join(cfg.Room, cfg.Username); err != nil {
		return err
	}

	return client.Run(ctx, policy)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loadConfig()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
