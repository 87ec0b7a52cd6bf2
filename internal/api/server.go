package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"boxoffice/internal/cache"
	"boxoffice/internal/config"
	"boxoffice/internal/database"
	"boxoffice/internal/handlers"
	"boxoffice/internal/jobs"
	"boxoffice/internal/messaging"
	"boxoffice/internal/metrics"
	"boxoffice/internal/middleware"
	"boxoffice/internal/models"
	"boxoffice/internal/repository"
	"boxoffice/internal/search"
	"boxoffice/internal/service"
	"boxoffice/internal/storage/memory"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/stan.go"
)

// Server is the storefront HTTP API
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	venueSub stan.Subscription
	valkey   *cache.ValkeyCache
	services *service.Services
	metrics  *metrics.Metrics
	holds    *jobs.HoldExpirationJob
	cancel   context.CancelFunc
}

// NewServer connects the backend and the optional NATS, Valkey and
// Elasticsearch integrations and mounts every route.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	s := &Server{config: cfg, metrics: metrics.New()}

	backend, err := s.connectBackend()
	if err != nil {
		return nil, err
	}

	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		natsClient, err := messaging.NewNATSClient(cfg.NATS)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		s.nats = natsClient
		publisher = natsClient
	} else {
		slog.Info("NATS_URL not set, domain events are not published")
	}

	var venueCache cache.VenueCache
	if cfg.Valkey.Addr != "" {
		valkey, err := cache.NewValkeyCache(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.KeyPrefix, cfg.VenueCacheTTL)
		if err != nil {
			return nil, err
		}
		s.valkey = valkey
		venueCache = valkey
	} else {
		venueCache = cache.NewMemoryCache(cfg.VenueCacheTTL)
	}

	var index service.OrderIndex
	if cfg.Elasticsearch.URL != "" {
		es, err := search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
		}
		index = es
	}

	s.services = service.NewServices(backend, venueCache, publisher, index, s.metrics, service.Options{
		SessionTTL:          cfg.SessionTTL,
		ResolverTolerance:   cfg.ResolverTolerance,
		DefaultCanvasWidth:  cfg.DefaultCanvasWidth,
		DefaultCanvasHeight: cfg.DefaultCanvasHeight,
	})

	if s.db == nil && cfg.HoldSweepInterval > 0 {
		// The consumers service sweeps holds for Postgres; the memory
		// backend lives in this process only.
		s.holds = jobs.NewHoldExpirationJob(backend, publisher, s.metrics, cfg.HoldSweepInterval)
	}

	if s.nats != nil && s.valkey == nil {
		// Each instance keeps its own venue cache, so it listens for changes.
		sub, err := s.nats.Subscribe(models.EventVenueChanged, s.onVenueChanged)
		if err != nil {
			return nil, err
		}
		s.venueSub = sub
	}

	s.router = gin.New()
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.Logger())
	if cfg.MetricsEnabled {
		s.router.Use(middleware.Metrics(s.metrics))
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) connectBackend() (service.Backend, error) {
	switch s.config.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.New()
		if s.config.SeedDemo {
			memory.SeedDemo(store)
			slog.Info("Seeded demo venue", "venue_id", memory.DemoVenueID, "event_id", memory.DemoEventID)
		}
		return store, nil

	case config.StoreDriverPostgres:
		db, err := database.Connect(s.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if err := db.ValidateConnectionPool(s.config.Database); err != nil {
			slog.Warn("Connection pool configuration", "warning", err)
		}
		s.db = db
		s.metrics.RegisterDB(db.DB)
		return repository.NewStore(db), nil
	}

	return nil, fmt.Errorf("unknown STORE_DRIVER %q", s.config.StoreDriver)
}

func (s *Server) onVenueChanged(m *stan.Msg) {
	var event models.VenueChangedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal venue changed event", "error", err)
		return
	}
	if err := s.services.Venues.Drop(context.Background(), event.VenueID); err != nil {
		slog.Error("Failed to drop venue cache", "venue_id", event.VenueID, "error", err)
	}
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	admin := api.Group("/admin", middleware.AdminAuth(s.config.AdminUser, s.config.AdminPassword))
	h.RegisterRoutes(api, admin)

	s.router.GET("/health", s.healthCheck)
	if s.config.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	body := gin.H{
		"status":   "ok",
		"service":  "boxoffice-api",
		"version":  "1.0.0",
		"sessions": s.services.Sessions.Count(),
	}

	if s.db != nil {
		hc := s.db.HealthCheck(c.Request.Context())
		body["database"] = hc
		if hc.Status != "healthy" {
			body["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}

	c.JSON(http.StatusOK, body)
}

// Start runs the idle session sweeper and, for the memory backend, the hold
// expiration job in the background.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.services.Sessions.RunSweeper(ctx, s.config.SessionSweepEvery)
	if s.holds != nil {
		s.holds.Start(ctx)
	}
}

// GetRouter returns the router, used by tests and http.Server
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes every connection
func (s *Server) Cleanup() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.holds != nil && s.cancel != nil {
		s.holds.Stop()
	}

	if s.venueSub != nil {
		if err := s.venueSub.Close(); err != nil {
			slog.Error("Error closing venue subscription", "error", err)
		}
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
