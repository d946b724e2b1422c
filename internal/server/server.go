// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/streamhub/internal/api"
	"github.com/stwalsh4118/streamhub/internal/auth"
	"github.com/stwalsh4118/streamhub/internal/config"
	"github.com/stwalsh4118/streamhub/internal/db"
	"github.com/stwalsh4118/streamhub/internal/logger"
	"github.com/stwalsh4118/streamhub/internal/middleware"
	"github.com/stwalsh4118/streamhub/internal/playback"
	"github.com/stwalsh4118/streamhub/internal/playlist"
	"github.com/stwalsh4118/streamhub/internal/realtime"
	"github.com/stwalsh4118/streamhub/internal/store"
	"github.com/stwalsh4118/streamhub/web"
)

// Server represents the HTTP server and the services behind it
type Server struct {
	config    *config.Config
	db        *db.DB
	adapter   *store.Adapter
	passwords *auth.Passwords
	auth      *auth.Service
	playlist  *playlist.Service
	reorderer *playlist.Reorderer
	displays  *realtime.DisplayHandler
	feed      *realtime.Feed
	rdb       *redis.Client
	relay     *realtime.Relay
	views     *web.Views
	router    *gin.Engine
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates a new server instance over an open, migrated database
func New(ctx context.Context, cfg *config.Config, database *db.DB) (*Server, error) {
	adapter, err := store.NewAdapter(ctx, db.NewRepositories(database))
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}

	views, err := web.NewViews()
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to load views: %w", err)
	}

	secret := []byte(cfg.Auth.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			adapter.Close()
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		logger.Log.Warn().Msg("No token secret configured; tokens will not survive a restart or work across instances")
	}

	passwords := auth.NewPasswords(adapter, cfg.Auth.DefaultPassword)
	authService := auth.NewService(auth.NewTokenService(secret, cfg.Auth.TokenTTL), passwords)

	s := &Server{
		config:    cfg,
		db:        database,
		adapter:   adapter,
		passwords: passwords,
		auth:      authService,
		playlist:  playlist.NewService(adapter),
		reorderer: playlist.NewReorderer(adapter),
		views:     views,
	}
	s.displays = realtime.NewDisplayHandler(realtime.DisplayOptions{
		Source:         adapter,
		Auth:           authService,
		Playback:       playbackConfig(cfg.Playback),
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	})
	s.feed = realtime.NewFeed(realtime.FeedOptions{
		Source:         adapter,
		Auth:           authService,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	})

	if cfg.Redis.Addr != "" {
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.relay = realtime.NewRelay(s.rdb, cfg.Redis.Channel, adapter)
		adapter.OnCommit(s.relay.Publish)
	}

	if cfg.Auth.DefaultPassword == "" {
		logger.Log.Warn().Msg("No default admin password configured; login needs a stored override")
	}

	return s, nil
}

// playbackConfig maps configuration onto the session state machine.
func playbackConfig(c config.PlaybackConfig) playback.Config {
	pc := playback.DefaultConfig()
	pc.ErrorSkipDelay = c.ErrorSkipDelay
	pc.WatchdogInterval = c.WatchdogInterval
	pc.ControlsHideDelay = c.ControlsHideDelay
	pc.UnmuteDelay = c.UnmuteDelay
	if c.PreferredQuality != "" {
		pc.Widget.PreferredQuality = c.PreferredQuality
	}
	pc.Widget.Origin = strings.TrimRight(c.Origin, "/")
	return pc
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware(s.config.Realtime.AllowedOrigins))

	apiGroup := s.router.Group("/api")
	health := api.HealthDeps{Database: s.db, Displays: s.displays}
	if s.rdb != nil {
		health.Redis = redisPinger{s.rdb}
	}
	api.SetupHealthRoutes(apiGroup, health)
	api.SetupAuthRoutes(apiGroup, s.auth)
	api.SetupActiveRoutes(apiGroup, s.adapter, time.Now)
	apiGroup.GET("/ws/display", gin.WrapH(s.displays))
	apiGroup.GET("/ws/feed", gin.WrapH(s.feed))

	adminGroup := apiGroup.Group("", middleware.RequireRole(s.auth, auth.RoleAdmin))
	api.SetupEntryRoutes(adminGroup, api.NewEntryHandler(s.playlist, s.reorderer, s.adapter, s.feed, time.Now))
	api.SetupSettingsRoutes(adminGroup, s.passwords)

	s.views.Register(s.router)
}

// redisPinger adapts the redis client to the health check.
type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Health(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// corsMiddleware allows every origin unless a list is configured.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cors.New(cfg)
}

// Handler builds the router without starting background work.
func (s *Server) Handler() http.Handler {
	if s.router == nil {
		s.setupRouter()
	}
	return s.router
}

// StartBackground starts the dashboard feed and the redis relay.
func (s *Server) StartBackground(ctx context.Context) error {
	s.Handler()

	ctx, s.cancel = context.WithCancel(ctx)
	go s.feed.Run(ctx)

	if s.relay != nil {
		if err := s.relay.Start(ctx); err != nil {
			return fmt.Errorf("failed to start redis relay: %w", err)
		}
	}
	return nil
}

// Start starts background services and blocks serving HTTP
func (s *Server) Start(ctx context.Context) error {
	if err := s.StartBackground(ctx); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Bool("redis", s.relay != nil).
		Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. Displays are disconnected after
// HTTP stops accepting requests; the store closes last.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	var shutdownErr error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.displays.Close()
	if s.cancel != nil {
		s.cancel()
	}
	if s.relay != nil {
		if err := s.relay.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Redis relay close failed")
		}
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	s.reorderer.Close()
	s.passwords.Close()
	s.adapter.Close()

	logger.Log.Info().Msg("Server stopped")
	return shutdownErr
}
