package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/ports"
)

const filesPath = "/v1/files/"

// fileURL is the public download path of a stored file.
func fileURL(id string) string {
	return filesPath + id
}

// uploadFormFile validates and stores the multipart "file" field.
func uploadFormFile(c echo.Context, media ports.MediaService) (*ports.StoredFile, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()

	return media.Upload(c.Request().Context(), fh.Filename, f)
}

// MediaHandler serves stored files.
type MediaHandler struct {
	service ports.MediaService
}

func NewMediaHandler(service ports.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// Upload stores an image and returns its public URL.
//
// @Summary      Upload an image
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image file"
// @Success      201   {object}  fileResponse
// @Failure      413   {object}  errorResponse
// @Failure      415   {object}  errorResponse
// @Router       /v1/files [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	stored, err := uploadFormFile(c, h.service)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, fileResponse{
		ID:          stored.ID,
		URL:         fileURL(stored.ID),
		ContentType: stored.ContentType,
		Size:        stored.Size,
	})
}

// Download streams a stored file.
//
// @Summary      Download a file
// @Tags         files
// @Produce      octet-stream
// @Param        id   path      string  true  "File ID"
// @Success      200  {file}    file
// @Failure      404  {object}  errorResponse
// @Router       /v1/files/{id} [get]
func (h *MediaHandler) Download(c echo.Context) error {
	rc, meta, err := h.service.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	defer rc.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.FormatInt(meta.Size, 10))
	header.Set("Cache-Control", "public, max-age=31536000, immutable")
	header.Set(echo.HeaderXContentTypeOptions, "nosniff")
	header.Set(echo.HeaderContentSecurityPolicy, "default-src 'none'; sandbox")
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
