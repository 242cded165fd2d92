package main

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/cart"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/catalog"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/config"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/ledger"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

// main runs a development server: everything in memory, no token
// checks, quiet logs.
func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	kv := storage.NewMemory()
	bus := signal.NewMemoryBus()

	sessions := session.NewStore(kv, bus)
	credentials := session.NewDemoCredentials()
	products := catalog.NewStore(kv, bus)
	carts := cart.NewStore(kv, bus, sessions)
	orders := ledger.NewStore(kv, bus, sessions, carts, products, logger)
	orders.SetProcessingDelay(0)

	app := fiber.New()

	sessionHandler := session.NewHandler(sessions, credentials)
	catalogHandler := catalog.NewHandler(products, sessions)

	sessionHandler.RegisterPublicRoutes(app)
	catalogHandler.RegisterPublicRoutes(app)

	sessionHandler.RegisterProtectedRoutes(app)
	catalogHandler.RegisterProtectedRoutes(app)
	cart.NewHandler(carts, products).RegisterProtectedRoutes(app)
	ledger.NewHandler(orders, sessions).RegisterProtectedRoutes(app)

	if err := app.Listen(cfg.Addr); err != nil {
		panic(err)
	}
}
