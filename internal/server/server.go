package server

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mirukee/snow-recorder/internal/auth"
	"github.com/mirukee/snow-recorder/internal/config"
	"github.com/mirukee/snow-recorder/internal/elevation"
	"github.com/mirukee/snow-recorder/internal/osm"
	"github.com/mirukee/snow-recorder/internal/session"
	"github.com/mirukee/snow-recorder/internal/slope"
	"github.com/mirukee/snow-recorder/internal/stream"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		// GPX recordings of a full day run into the tens of megabytes.
		BodyLimit: 64 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	seed, err := slope.LoadFile(s.Cfg.SlopeFile)
	if err != nil {
		log.Printf("slope seed file unavailable: %v", err)
	}

	slopeSvc := slope.NewService(s.DB, seed,
		elevation.NewClient(s.Cfg.ElevationAPIURL),
		osm.NewClient(s.Cfg.OverpassAPIURL))
	sessionSvc := session.NewService(s.DB, s.Stream)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	slope.RegisterRoutes(s.App.Group("/slopes"), slopeSvc, jwtMiddleware)
	session.RegisterRoutes(s.App.Group("/sessions"), sessionSvc, slopeSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
