package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/termweave/backend/internal/api/http"
	"github.com/termweave/backend/internal/api/middleware"
	"github.com/termweave/backend/internal/api/ws"
	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/domain/registry"
	"github.com/termweave/backend/internal/domain/snapshot"
	"github.com/termweave/backend/internal/domain/taborder"
	"github.com/termweave/backend/internal/infrastructure/config"
	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/infrastructure/monitoring"
	"github.com/termweave/backend/internal/infrastructure/tracing"
	"github.com/termweave/backend/internal/providers/inventory"
	"github.com/termweave/backend/internal/providers/store"
	"github.com/termweave/backend/internal/providers/terminal"
	"github.com/termweave/backend/internal/shared/types"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	activeTab *active.Store
	registry  *registry.Manager
	mux       *terminal.Mux
	snapshots *snapshot.Manager
	storage   *store.Provider
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	logger.Info("Initializing termweave server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Path),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("termweave", logger.Logger)

	activeTab := active.NewStore()
	reg := registry.NewManager(activeTab).WithMetrics(metrics)

	// Terminal backends behind one mux
	mux := terminal.NewMux(time.Duration(cfg.Terminal.ConnectTimeout)*time.Second, logger).
		WithMetrics(metrics)
	mux.Register(terminal.NewLocal(cfg.Terminal.Shell, cfg.Terminal.BufferSize))
	mux.Register(terminal.NewSSH(cfg.Terminal.BufferSize))

	// Persistence is optional; without it tab order and snapshots are
	// process-lifetime only.
	var storage *store.Provider
	var orders *taborder.Manager
	var snapStore snapshot.Store
	if cfg.Storage.Enabled {
		provider, err := store.New(cfg.Storage.Path, logger)
		if err != nil {
			logger.Warn("Storage unavailable, running in-memory", zap.Error(err))
			orders = taborder.NewManager(taborder.NewMemoryStore())
		} else {
			storage = provider
			orders = taborder.NewManager(provider)
			snapStore = provider
		}
	} else {
		orders = taborder.NewManager(taborder.NewMemoryStore())
	}

	snapshots := snapshot.NewManager(reg, snapStore, orders).WithMetrics(metrics)

	inv := inventory.New(logger)
	if cfg.Inventory.Path != "" {
		if err := inv.LoadFile(cfg.Inventory.Path); err != nil {
			logger.Warn("Inventory load failed", zap.Error(err))
		}
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(reg, orders, snapshots, mux, inv)
	apihttp.RegisterRoutes(router, handlers)

	wsHandler := ws.NewHandler(reg, mux, activeTab, logger).WithMetrics(metrics)
	router.GET("/stream", wsHandler.HandleConnection)

	// Status transitions update the registry and reach connected shells.
	mux.OnStatusChange(func(sessionID string, status types.Status) {
		reg.SetStatus(sessionID, status)
		wsHandler.PublishStatus(sessionID, status)
	})
	// A terminal whose process exits closes its pane.
	mux.OnExit(func(sessionID string) {
		reg.CloseSession(sessionID)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		activeTab: activeTab,
		registry:  reg,
		mux:       mux,
		snapshots: snapshots,
		storage:   storage,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.mux.CloseAll()
	s.activeTab.Close()

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			s.logger.Error("Failed to close storage", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}
