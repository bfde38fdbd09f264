package server

import (
	"fmt"
	"net/http"
	"time"

	"decor-admin/internal/config"
	"decor-admin/internal/database"
	custommiddleware "decor-admin/internal/middleware"
	"decor-admin/internal/repository"
	"decor-admin/internal/service"
	"decor-admin/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewRouter wires repositories, services and handlers onto a chi router.
// Everything under /api/admin requires an admin token and is rate limited.
func NewRouter(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient redis.Cmdable) http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack(requestTimeout)...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	repos := repository.NewRepositories(db.DB())
	transactor := repository.NewTransactor(db.DB())

	orderService := service.NewOrderService(repos, transactor, cfg.Stock.UnresolvedItemPolicy, logger)
	catalogService := service.NewCatalogService(repos, transactor, logger)

	orderHandler := transport.NewOrderHandler(orderService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)
	categoryHandler := transport.NewCategoryHandler(catalogService, logger)

	rateLimit := custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		KeyPrefix:         "decor_admin_rate_limit",
	}

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger))
		r.Use(custommiddleware.RequireAdmin(logger))
		r.Use(custommiddleware.RateLimitMiddleware(redisClient, rateLimit, logger))

		orderHandler.RegisterRoutes(r)
		productHandler.RegisterRoutes(r)
		categoryHandler.RegisterRoutes(r)
	})

	return router
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, db, redisClient),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: requestTimeout + 5*time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
