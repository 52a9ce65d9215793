package handlers

import (
	"net/http"

	"portfolio/models"

	"github.com/gin-gonic/gin"
)

const imageNotFound = "Image not found"

type ImageUploadResponse struct {
	Success bool          `json:"success"`
	Image   *models.Image `json:"image"`
}

func (h *Handlers) ImageList(c *gin.Context) {
	version, err := h.Store.ImagesVersion(c.Request.Context())
	if err == nil && isNotModified(c, version) {
		return
	}
	images, err := h.Store.ListImages(c.Request.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("list images")
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, images)
}

// ImageUpload takes a single multipart "file"
func (h *Handlers) ImageUpload(c *gin.Context, _ *models.User) {
	form, ok := h.parseMultipart(c)
	if !ok {
		return
	}
	ctx, cancel := h.operationContext(c)
	defer cancel()

	image, err := h.Pipeline.UploadImage(ctx, formFile(form, "file"))
	if err != nil {
		h.fail(c, ctx, err, imageNotFound)
		return
	}
	c.JSON(http.StatusCreated, ImageUploadResponse{Success: true, Image: image})
}

func (h *Handlers) ImageDelete(c *gin.Context, _ *models.User) {
	raw := c.Query("id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, Response{Error: "Missing image id"})
		return
	}
	id := parseID(raw)
	if id == 0 {
		c.JSON(http.StatusBadRequest, Response{Error: "Invalid image id"})
		return
	}
	ctx, cancel := h.operationContext(c)
	defer cancel()

	if err := h.Pipeline.DeleteImage(ctx, id); err != nil {
		h.fail(c, ctx, err, imageNotFound)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}
