package server

import (
	"fmt"
	"log/slog"

	"reviewhub/internal/config"
	"reviewhub/internal/microservices/http-api/handler"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/microservices/http-api/validators"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services bundles what the routes are served by.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// NewServices wires repositories and services over db. Confirmation codes live in codes.
func NewServices(
	db *gorm.DB,
	codes repository.ConfirmationCodeRepository,
	mailer service.Mailer,
	cfg *config.Config,
	logger *slog.Logger,
) *Services {
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepo(db)
	genres := repository.NewGenreRepo(db)
	titles := repository.NewTitleRepo(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)

	return &Services{
		Auth:       service.NewAuthService(users, codes, tokens, mailer, cfg, logger),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(categories),
		Genres:     service.NewGenreService(genres),
		Titles:     service.NewTitleService(titles, categories, genres),
		Reviews:    service.NewReviewService(reviews, titles),
		Comments:   service.NewCommentService(comments, reviews),
	}
}

// NewRouter builds the gin engine serving /api/v1, /healthz and, when enabled, /metrics.
// reg may be nil when metrics are disabled.
func NewRouter(cfg *config.Config, svc *Services, db handler.Pinger, reg *prometheus.Registry, logger *slog.Logger) (*gin.Engine, error) {
	if err := validators.RegisterBindings(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	if cfg.PrometheusEnabled && reg != nil {
		metrics := middleware.NewMetrics(reg)
		router.Use(metrics.Middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	router.GET("/healthz", handler.Health(db))

	api := router.Group("/api/v1", middleware.AuthMiddleware(svc.Auth, logger))

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	handler.NewAuthHandler(svc.Auth).RegisterRoutes(api, limiter.Middleware())
	handler.NewUserHandler(svc.Users, cfg.DefaultPageSize).RegisterRoutes(api)
	handler.NewCategoryHandler(svc.Categories, cfg.DefaultPageSize).RegisterRoutes(api)
	handler.NewGenreHandler(svc.Genres, cfg.DefaultPageSize).RegisterRoutes(api)
	handler.NewTitleHandler(svc.Titles, cfg.DefaultPageSize).RegisterRoutes(api)
	handler.NewReviewHandler(svc.Reviews, cfg.DefaultPageSize).RegisterRoutes(api)
	handler.NewCommentHandler(svc.Comments, cfg.DefaultPageSize).RegisterRoutes(api)

	return router, nil
}
