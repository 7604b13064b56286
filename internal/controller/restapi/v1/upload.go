package v1

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi/v1/response"
	"github.com/thumbgen/thumbnail-pipeline/internal/controller/restapi/v1/validate"
)

// @Summary  	Upload image
// @Description Uploads image to S3 and records an outbox event; thumbnails are generated asynchronously
// @Tags 		thumbnails
// @Accept 		mpfd
// @Produce 	json
// @Param 		file 		 formData file   true  "Image file(jpeg, png)"
// @Param 		callback_url formData string false "URL notified when all thumbnails are ready"
// @Success 	202 {object} response.Upload
// @Failure 	400 {object} response.Error "Empty file or bad callback URL"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	415 {object} response.Error "Unsupported format"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/upload [post]
func (r *V1) uploadImage(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	// 1. size
	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	if file.Size > validate.MaxFileSize {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size cant be more than %d bytes", validate.MaxFileSize))
	}

	// 2. declared content type
	contentType := file.Header.Get("Content-Type")
	if !validate.AllowedContentTypes[contentType] {
		return errorResponse(ctx, http.StatusUnsupportedMediaType, "unsupported file type. Allowed: jpeg, png")
	}

	// 3. extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !validate.AllowedExtensions[ext] {
		return errorResponse(ctx, http.StatusUnsupportedMediaType, "unsupported file extension. Allowed: .jpg, .jpeg, .png")
	}

	// 4. callback url, optional
	callbackURL := ctx.FormValue("callback_url")
	if callbackURL != "" {
		u, err := url.Parse(callbackURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errorResponse(ctx, http.StatusBadRequest, "callback_url must be an absolute http(s) URL")
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	// 5. actual content, not just the declared header
	sniff := make([]byte, validate.SniffLen)
	n, err := io.ReadFull(fileReader, sniff)
	if err != nil && err != io.ErrUnexpectedEOF {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with reading the file")
	}
	sniff = sniff[:n]

	if detected := http.DetectContentType(sniff); !validate.AllowedContentTypes[detected] {
		return errorResponse(ctx, http.StatusUnsupportedMediaType, "file content does not match an allowed image type")
	}

	// 6. upload; the sniffed prefix goes back in front of the rest
	body := io.MultiReader(bytes.NewReader(sniff), fileReader)

	identity, err := r.ing.UploadNewImage(ctx.UserContext(), body, file.Filename, contentType, file.Size, callbackURL)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	// 7. accepted, processing continues asynchronously
	resp := response.Upload{
		Identity: identity,
		Message:  "image accepted, thumbnails are being generated",
	}

	return ctx.Status(http.StatusAccepted).JSON(resp)
}
