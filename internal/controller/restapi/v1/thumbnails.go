package v1

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi/v1/response"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

// @Summary 	Get generated thumbnails
// @Description Returns the original image URL and all generated thumbnails for an upload
// @Tags 		thumbnails
// @Produce 	json
// @Param 		id path string true "Image ID(uuid)"
// @Success 	200 {object} response.ThumbnailSet
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Thumbnails not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/thumbnails/{id} [get]
func (r *V1) getThumbnails(ctx *fiber.Ctx) error {
	idStr := ctx.Params("id")

	if idStr == "" {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	set, err := r.qry.ThumbnailSetByIdentity(ctx.UserContext(), id.String())
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "thumbnails not found")
		}
		r.logger.Error(err, "restapi - v1 - getThumbnails")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := response.ThumbnailSet{
		OriginalImageURL: set.OriginalImageURL,
		Thumbnails:       set.Thumbnails,
		Metadata:         set.Metadata,
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}
