package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 3000,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	defaultVideoID = configVar[string]{
		envKey:       "SERVER_DEFAULT_VIDEO_ID",
		flagKey:      "default-video-id",
		defaultValue: "_zgjWHqVUKM",
	}
	roomGracePeriod = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_GRACE_PERIOD",
		flagKey:      "room-grace-period",
		defaultValue: 0,
	}
	janitorInterval = configVar[time.Duration]{
		envKey:       "SERVER_JANITOR_INTERVAL",
		flagKey:      "janitor-interval",
		defaultValue: time.Minute,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	videoDataTTL = configVar[time.Duration]{
		envKey:       "SERVER_VIDEO_DATA_TTL",
		flagKey:      "video-data-ttl",
		defaultValue: 24 * time.Hour,
	}
	videoDataTimeout = configVar[time.Duration]{
		envKey:       "SERVER_VIDEO_DATA_TIMEOUT",
		flagKey:      "video-data-timeout",
		defaultValue: 10 * time.Second,
	}
	wsPingPeriod = configVar[time.Duration]{
		envKey:       "SERVER_WS_PING_PERIOD",
		flagKey:      "ws-ping-period",
		defaultValue: 54 * time.Second,
	}
	wsPongWait = configVar[time.Duration]{
		envKey:       "SERVER_WS_PONG_WAIT",
		flagKey:      "ws-pong-wait",
		defaultValue: 60 * time.Second,
	}
	wsWriteWait = configVar[time.Duration]{
		envKey:       "SERVER_WS_WRITE_WAIT",
		flagKey:      "ws-write-wait",
		defaultValue: 10 * time.Second,
	}
	wsMaxMessageSize = configVar[int64]{
		envKey:       "SERVER_WS_MAX_MESSAGE_SIZE",
		flagKey:      "ws-max-message-size",
		defaultValue: 4096,
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(defaultVideoID.flagKey, defaultVideoID.defaultValue, "Video loaded into new rooms")
	pflag.Duration(roomGracePeriod.flagKey, roomGracePeriod.defaultValue, "Evict rooms empty for this long, 0 keeps them forever")
	pflag.Duration(janitorInterval.flagKey, janitorInterval.defaultValue, "How often empty rooms are swept")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Duration(videoDataTTL.flagKey, videoDataTTL.defaultValue, "How long video titles stay cached")
	pflag.Duration(videoDataTimeout.flagKey, videoDataTimeout.defaultValue, "Timeout of a video data lookup")
	pflag.Duration(wsPingPeriod.flagKey, wsPingPeriod.defaultValue, "Websocket ping period")
	pflag.Duration(wsPongWait.flagKey, wsPongWait.defaultValue, "Websocket pong wait")
	pflag.Duration(wsWriteWait.flagKey, wsWriteWait.defaultValue, "Websocket write wait")
	pflag.Int64(wsMaxMessageSize.flagKey, wsMaxMessageSize.defaultValue, "Websocket max inbound message size")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(defaultVideoID)
	bind(roomGracePeriod)
	bind(janitorInterval)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)
	bind(videoDataTTL)
	bind(videoDataTimeout)
	bind(wsPingPeriod)
	bind(wsPongWait)
	bind(wsWriteWait)
	bind(wsMaxMessageSize)

	config := &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		DefaultVideoID:   viper.GetString(defaultVideoID.flagKey),
		RoomGracePeriod:  viper.GetDuration(roomGracePeriod.flagKey),
		JanitorInterval:  viper.GetDuration(janitorInterval.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		VideoDataTTL:     viper.GetDuration(videoDataTTL.flagKey),
		VideoDataTimeout: viper.GetDuration(videoDataTimeout.flagKey),
		WSPingPeriod:     viper.GetDuration(wsPingPeriod.flagKey),
		WSPongWait:       viper.GetDuration(wsPongWait.flagKey),
		WSWriteWait:      viper.GetDuration(wsWriteWait.flagKey),
		WSMaxMessageSize: viper.GetInt64(wsMaxMessageSize.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
