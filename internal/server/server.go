package server

import (
	"fmt"
	"net/http"
	"time"

	"cleat-store/internal/broker"
	"cleat-store/internal/cache"
	"cleat-store/internal/config"
	"cleat-store/internal/database"
	custommiddleware "cleat-store/internal/middleware"
	"cleat-store/internal/repository"
	"cleat-store/internal/service"
	"cleat-store/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers onto one router
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db database.Service,
	redisClient *redis.Client,
	publisher broker.Publisher,
) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(middleware.Recoverer)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))
	if cfg.RateLimit.Enabled {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})
	router.Handle("/metrics", promhttp.Handler())

	// Repositories
	sqlDB := db.DB()
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	facetRepo := repository.NewFacetRepository(sqlDB)
	orderRepo := repository.NewOrderRepository(sqlDB)

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	})
	productService := service.NewProductService(productRepo, facetRepo, cfg.Catalog.PageSize, logger)
	basketService := service.NewBasketService(service.BasketStores{
		Carts:          repository.NewCartRepository(sqlDB),
		GuestCarts:     cache.NewGuestCartStore(redisClient, cfg.Session.GuestTTL, logger),
		Favorites:      repository.NewFavoritesRepository(sqlDB),
		GuestFavorites: cache.NewGuestFavoritesStore(redisClient, cfg.Session.GuestTTL, logger),
	}, productRepo, cfg.Session.RequireLogin, logger)
	checkoutService := service.NewCheckoutService(basketService, userRepo, orderRepo, publisher, logger)

	// Middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	optionalAuth := custommiddleware.OptionalAuth(cfg.JWT.Secret, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)

	// Routes
	transport.NewUserHandler(userService, basketService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewCatalogHandler(productService, logger).RegisterRoutes(router)
	transport.NewCartHandler(basketService, logger).RegisterRoutes(router, optionalAuth)
	transport.NewFavoritesHandler(basketService, logger).RegisterRoutes(router, optionalAuth)
	transport.NewCheckoutHandler(checkoutService, logger).RegisterRoutes(router, authMiddleware)
	transport.NewAdminHandler(productService, userService, logger).RegisterRoutes(router, authMiddleware, adminOnly)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
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
