package server

import (
	"time"

	"backend-pawtrail/internal/auth"
	"backend-pawtrail/internal/config"
	"backend-pawtrail/internal/pet"
	"backend-pawtrail/internal/session"
	"backend-pawtrail/internal/social"
	"backend-pawtrail/internal/storage"
	"backend-pawtrail/internal/stream"
	"backend-pawtrail/internal/walk"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Sessions *session.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	socialSvc := social.NewService(db)
	walkSvc := walk.NewService(db, socialSvc)

	snapshotTTL := time.Duration(cfg.SnapshotTTLHours) * time.Hour
	sessions := session.NewManager(session.Deps{
		Store:           session.NewRedisSnapshotStore(redisClient, snapshotTTL),
		Gateway:         walkSvc,
		Broadcast:       hub,
		AutoPauseOnHide: cfg.AutoPauseOnHide,
	})

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   hub,
		Sessions: sessions,
	}

	registerRoutes(s, socialSvc, walkSvc)
	return s
}

func registerRoutes(s *Server, socialSvc *social.Service, walkSvc *walk.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	requireAuth := auth.RequireAuth(authSvc)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc, requireAuth)
	pet.RegisterRoutes(s.App.Group("/pets"), pet.NewService(s.DB), requireAuth)
	walk.RegisterRoutes(s.App.Group("/walks"), walkSvc, requireAuth)
	social.RegisterRoutes(s.App.Group("/social"), socialSvc, requireAuth)
	session.RegisterRoutes(s.App.Group("/session"), s.Sessions, requireAuth)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), requireAuth)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
