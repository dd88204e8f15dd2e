package routes

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"order-assistant/config"
	"order-assistant/controllers"
	"order-assistant/middlewares"
)

// NewApp builds the Fiber app with the global error handler, body limit and
// the middleware every route shares.
func NewApp(cfg config.ServerConfig, bodyLimit int, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "order-assistant",
		ErrorHandler:          middlewares.ErrorHandler,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(middlewares.RequestLogger(log))
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	allowedOrigins := strings.TrimSpace(cfg.AllowedOrigins)
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false,
		AllowHeaders:     "Origin, Content-Type, Accept, Idempotency-Key",
	}))

	return app
}

// Register wires all HTTP routes. The chat endpoints are served both at the
// root and under /api.
func Register(app *fiber.App, chat *controllers.ChatController, db *gorm.DB) {
	app.Get("/health", controllers.Health)

	for _, r := range []fiber.Router{app, app.Group("/api")} {
		r.Post("/chat", middlewares.Idempotency(db), chat.SendMessage)
		r.Get("/chat/status", chat.GetStatus)
	}
}
