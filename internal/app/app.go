package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/controller"
	conninmemory "github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/connection/inmemory"
	roominmemory "github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/room/inmemory"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/proxy"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/service/room"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/ctxlogger"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/iplog"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/pagetitle"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/redisclient"
	"github.com/ramazansancar/keyiflerolsun-KekikParty/pkg/ytdlp"
)

type AppConfig struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	LogLevel         string `json:"log_level"`
	ChatHistoryLimit int    `json:"chat_history_limit"`
	YtdlpPath        string `json:"ytdlp_path"`
	YtdlpTimeout     int    `json:"ytdlp_timeout"`
	GeoCacheTTL      int    `json:"geo_cache_ttl"`
	RedisPort        int    `json:"redis_port"`
	RedisHost        string `json:"redis_host"`
	RedisPassword    string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.ChatHistoryLimit < 0 {
		return fmt.Errorf("chat history limit must not be negative")
	}
	if cfg.YtdlpTimeout < 1 {
		return fmt.Errorf("ytdlp timeout must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	// redis only backs the geolocation cache; the app stays functional
	// without it
	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.WarnContext(ctx, "redis unavailable, geolocation cache disabled", "error", err)
		rc = nil
	} else {
		defer rc.Close()
	}

	roomRepo := roominmemory.NewRepo(cfg.ChatHistoryLimit)
	connectionRepo := conninmemory.NewRepo()

	resolver := ytdlp.New(cfg.YtdlpPath, time.Duration(cfg.YtdlpTimeout)*time.Second)
	titleScraper := pagetitle.NewScraper(&http.Client{Timeout: 10 * time.Second})

	roomService := room.NewService(roomRepo, connectionRepo, resolver, titleScraper)
	proxyService := proxy.NewService()
	ipLookup := iplog.NewClient(rc, time.Duration(cfg.GeoCacheTTL)*time.Second)

	controller := controller.NewController(roomService, proxyService, ipLookup, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetRouter()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
