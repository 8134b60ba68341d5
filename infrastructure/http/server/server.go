// Package server exposes the chat over HTTP: a REST façade for channels and messages,
// and the WebSocket endpoint carrying the real-time protocol.
package server

import (
	"chat-hub/errors"
	"chat-hub/services"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Config struct {
	AllowedOrigins       string
	MaxMessageSize       int64
	RateLimitPerSecond   float64
	RateLimitBurst       int
	ConnectionBufferSize int
	WriteTimeout         time.Duration
}

type Handlers struct {
	log      *slog.Logger
	service  services.IChatService
	validate *validator.Validate
	cfg      Config
}

const defaultWriteTimeout = 10 * time.Second

func NewHandlers(log *slog.Logger, service services.IChatService, cfg Config) *Handlers {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	// A zero burst would refuse every frame
	cfg.RateLimitBurst = max(cfg.RateLimitBurst, 1)
	return &Handlers{log: log, service: service, validate: validator.New(), cfg: cfg}
}

// NewApp builds the Fiber application with every route registered.
func NewApp(log *slog.Logger, service services.IChatService, cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "chat-hub",
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(accessLog(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	h := NewHandlers(log, service, cfg)
	app.Get("/health", h.health)

	api := app.Group("/api")
	api.Post("/channels/create", h.createChannel)
	api.Get("/channels", h.listChannels)
	api.Delete("/channels/delete/:name", h.deleteChannel)
	api.Post("/channels/join", h.joinChannel)
	api.Post("/channels/quit", h.quitChannel)
	api.Get("/channels/list/:filter?", h.filterChannels)
	api.Get("/channels/users/:name", h.channelUsers)
	api.Get("/users/online", h.onlineUsers)
	api.Get("/messages/:channelName", h.getMessages)
	api.Post("/messages", h.postMessage)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(h.serveWS, websocket.Config{
		Origins:         origins(cfg.AllowedOrigins),
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))
	return app
}

func (h *Handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type MessageResponse struct {
	Message string `json:"message"`
}

// fail answers with the status matching err and a {message} body.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(errors.MapToHTTPStatus(err)).JSON(MessageResponse{Message: err.Error()})
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		} else {
			log.Error("Unhandled request error", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(MessageResponse{Message: err.Error()})
	}
}

func accessLog(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start))
		return err
	}
}

func origins(allowed string) []string {
	var result []string
	for _, origin := range strings.Split(allowed, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			result = append(result, origin)
		}
	}
	if len(result) == 0 {
		return []string{"*"}
	}
	return result
}
