package v1

import (
	"github.com/gofiber/fiber/v2"
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

func NewThumbnailRoutes(apiV1Group fiber.Router, ing usecase.IngestUseCase, qry usecase.QueryUseCase, l logger.Interface) {
	r := &V1{ing: ing, qry: qry, logger: l}

	{
		apiV1Group.Post("/upload", r.uploadImage)
		apiV1Group.Get("/thumbnails/:id", r.getThumbnails)
	}
}
