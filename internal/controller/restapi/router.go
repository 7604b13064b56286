package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/thumbgen/thumbnail-pipeline/config"
	v1 "github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi/v1"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

// @title Thumbnail pipeline
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, ing usecase.IngestUseCase, qry usecase.QueryUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewThumbnailRoutes(apiV1Group, ing, qry, l)
	}
}
