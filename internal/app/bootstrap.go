package app

import (
	"fmt"
	"log"
	"strings"

	"haul-dispatch/internal/config"
	"haul-dispatch/internal/delivery/http/middleware"
	"haul-dispatch/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func Bootstrap(cfg config.Config, logger *log.Logger) (*App, func() error, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctn, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	errMw := middleware.NewErrorMiddleware()
	f.Use(errMw.Middleware())
	f.Use(middleware.NewAccessLogMiddleware(logger).Middleware())

	routes.Register(f, routes.Deps{
		Config: cfg,
		DB:     ctn.DB,
		Cache:  ctn.Cache,
		Hub:    ctn.Hub,
		Logger: logger,
	})

	cleanup := func() error { return ctn.Close() }
	return &App{Fiber: f, Container: ctn}, cleanup, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
