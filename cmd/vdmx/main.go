package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vdmx/vdmx-backend/app/repository"
	"github.com/vdmx/vdmx-backend/internal/pkg/cache"
	"github.com/vdmx/vdmx-backend/internal/pkg/constants"
	"github.com/vdmx/vdmx-backend/internal/pkg/database"
	"github.com/vdmx/vdmx-backend/internal/pkg/env"
	"github.com/vdmx/vdmx-backend/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "0.0.0.0"), env.GetEnv("APP_PORT", "3000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1 MiB, JSON payloads only
	})

	// recovery, logging and CORS for the quoting frontend
	app.Use(recover.New(), logger.New(), cors.New())

	// liveness probe
	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "VDMX Backend running",
		})
	})

	// prometheus metrics
	app.Get(constants.MetricsRoute, basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), adaptor.HTTPHandler(promhttp.Handler()))

	// ROUTER
	router.InstallRouter(app)

	return app
}
