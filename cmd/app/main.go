package main

import (
	"context"
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/cart"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/catalog"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/config"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/ledger"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	kv := mustOpenStorage(cfg, logger)

	bus := signal.NewMemoryBus()
	hub := signal.NewHub(logger)
	hub.Attach(bus)
	go hub.Run()

	sessions := session.NewStore(kv, bus)
	credentials := session.NewDemoCredentials()
	products := catalog.NewStore(kv, bus)
	carts := cart.NewStore(kv, bus, sessions)
	orders := ledger.NewStore(kv, bus, sessions, carts, products, logger)
	orders.SetProcessingDelay(cfg.CheckoutDelay)

	sessionHandler := session.NewHandler(sessions, credentials)
	catalogHandler := catalog.NewHandler(products, sessions)
	cartHandler := cart.NewHandler(carts, products)
	ledgerHandler := ledger.NewHandler(orders, sessions)

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger(logger))

	// public surface: sign-in/sign-up, catalog reads, live signal feed
	sessionHandler.RegisterPublicRoutes(app)
	catalogHandler.RegisterPublicRoutes(app)
	app.Get("/ws", adaptor.HTTPHandlerFunc(hub.HandleWebSocket))

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	sessionHandler.RegisterProtectedRoutes(app)
	catalogHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	ledgerHandler.RegisterProtectedRoutes(app)

	logger.WithField("addr", cfg.Addr).Info("Starting server")
	if err := app.Listen(cfg.Addr); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// requestLogger tags every request with a fresh id and logs it on the
// way out.
func requestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := uuid.NewString()
		c.Set("X-Request-ID", requestID)

		err := c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
		}).Info("Request handled")
		return err
	}
}

func mustOpenStorage(cfg config.Config, logger *logrus.Logger) storage.KeyValueStore {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL is not set")
		}
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open database")
		}
		if err := db.Ping(); err != nil {
			logger.WithError(err).Fatal("Failed to reach database")
		}
		pg := storage.NewPostgres(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Fatal("Failed to prepare database schema")
		}
		return pg
	case config.BackendRedis:
		if cfg.RedisURL == "" {
			logger.Fatal("REDIS_URL is not set")
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to parse REDIS_URL")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("Failed to reach redis")
		}
		return storage.NewRedis(client, "portal")
	default:
		return storage.NewMemory()
	}
}
