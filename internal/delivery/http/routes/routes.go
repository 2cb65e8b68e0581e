package routes

import (
	"log"

	"haul-dispatch/internal/config"
	"haul-dispatch/internal/database"
	"haul-dispatch/internal/delivery/http/handler"
	v1 "haul-dispatch/internal/delivery/http/routes/v1"
	"haul-dispatch/internal/infrastructure/cache"
	"haul-dispatch/internal/ws"

	"github.com/gofiber/fiber/v3"
)

// Deps is everything route registration needs beyond the fiber app itself.
type Deps struct {
	Config config.Config
	DB     database.DB
	Cache  *cache.Redis
	Hub    *ws.Hub
	Logger *log.Logger
}

func Register(app *fiber.App, deps Deps) {
	if app == nil {
		return
	}

	handler.NewHealthHandler(deps.DB).RegisterRoutes(app)

	wsHandler := ws.NewHandler(deps.Hub, deps.Logger)
	app.Get("/ws", wsHandler.HandleDispatchWS)

	api := app.Group("/api")
	v1.Register(api.Group("/v1"), deps.Config, deps.DB, deps.Cache, deps.Hub, deps.Logger)
}
