package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8000,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	chatHistoryLimit = configVar[int]{
		envKey:       "SERVER_CHAT_HISTORY_LIMIT",
		flagKey:      "chat-history-limit",
		defaultValue: 200,
	}
	ytdlpPath = configVar[string]{
		envKey:       "SERVER_YTDLP_PATH",
		flagKey:      "ytdlp-path",
		defaultValue: "yt-dlp",
	}
	ytdlpTimeout = configVar[int]{
		envKey:       "SERVER_YTDLP_TIMEOUT",
		flagKey:      "ytdlp-timeout",
		defaultValue: 30,
	}
	geoCacheTTL = configVar[int]{
		envKey:       "SERVER_GEO_CACHE_TTL",
		flagKey:      "geo-cache-ttl",
		defaultValue: 86400,
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
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue, "Maximum chat messages kept per room, 0 for unlimited")
	pflag.String(ytdlpPath.flagKey, ytdlpPath.defaultValue, "Path to the yt-dlp binary")
	pflag.Int(ytdlpTimeout.flagKey, ytdlpTimeout.defaultValue, "yt-dlp extraction timeout in seconds")
	pflag.Int(geoCacheTTL.flagKey, geoCacheTTL.defaultValue, "Geolocation cache TTL in seconds")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(chatHistoryLimit.flagKey, chatHistoryLimit.envKey)
	viper.BindEnv(ytdlpPath.flagKey, ytdlpPath.envKey)
	viper.BindEnv(ytdlpTimeout.flagKey, ytdlpTimeout.envKey)
	viper.BindEnv(geoCacheTTL.flagKey, geoCacheTTL.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue)
	viper.SetDefault(ytdlpPath.flagKey, ytdlpPath.defaultValue)
	viper.SetDefault(ytdlpTimeout.flagKey, ytdlpTimeout.defaultValue)
	viper.SetDefault(geoCacheTTL.flagKey, geoCacheTTL.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		ChatHistoryLimit: viper.GetInt(chatHistoryLimit.flagKey),
		YtdlpPath:        viper.GetString(ytdlpPath.flagKey),
		YtdlpTimeout:     viper.GetInt(ytdlpTimeout.flagKey),
		GeoCacheTTL:      viper.GetInt(geoCacheTTL.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
