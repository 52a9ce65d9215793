package handlers

import (
	"net/http"

	"portfolio/models"
	"portfolio/pipeline"

	"github.com/gin-gonic/gin"
)

const albumNotFound = "Album not found"

type AlbumCreateResponse struct {
	Success       bool          `json:"success"`
	Album         *models.Album `json:"album"`
	UploadedCount int           `json:"uploadedCount"`
	Warnings      []string      `json:"warnings,omitempty"`
}

type AlbumUpdateResponse struct {
	Success bool          `json:"success"`
	Album   *models.Album `json:"album"`
}

type AlbumDeleteResponse struct {
	Success       bool     `json:"success"`
	DeletedImages int      `json:"deletedImages"`
	Warnings      []string `json:"warnings,omitempty"`
}

func (h *Handlers) AlbumList(c *gin.Context) {
	albums, err := h.Store.ListAlbums(c.Request.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("list albums")
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	c.JSON(http.StatusOK, albums)
}

func (h *Handlers) AlbumGet(c *gin.Context) {
	id := parseID(c.Param("id"))
	if id == 0 {
		c.JSON(http.StatusNotFound, Response{Error: albumNotFound})
		return
	}
	album, err := h.Store.FindAlbum(c.Request.Context(), id)
	if err != nil {
		h.fail(c, c.Request.Context(), err, albumNotFound)
		return
	}
	c.JSON(http.StatusOK, album)
}

// AlbumCreate takes multipart title, date, coverImage and images (or images[])
func (h *Handlers) AlbumCreate(c *gin.Context, _ *models.User) {
	form, ok := h.parseMultipart(c)
	if !ok {
		return
	}
	ctx, cancel := h.operationContext(c)
	defer cancel()

	result, err := h.Pipeline.CreateAlbum(ctx, pipeline.AlbumInput{
		Title:  formValue(form, "title"),
		Date:   formValue(form, "date"),
		Cover:  formFile(form, "coverImage"),
		Images: formFiles(form, "images", "images[]"),
	})
	if err != nil {
		h.fail(c, ctx, err, albumNotFound)
		return
	}
	c.JSON(http.StatusCreated, AlbumCreateResponse{
		Success:       true,
		Album:         result.Album,
		UploadedCount: result.UploadedCount,
		Warnings:      result.Warnings,
	})
}

// AlbumUpdate takes multipart id, title, date and optional coverImage and images
func (h *Handlers) AlbumUpdate(c *gin.Context, _ *models.User) {
	form, ok := h.parseMultipart(c)
	if !ok {
		return
	}
	ctx, cancel := h.operationContext(c)
	defer cancel()

	album, err := h.Pipeline.UpdateAlbum(ctx, pipeline.AlbumInput{
		ID:     parseID(formValue(form, "id")),
		Title:  formValue(form, "title"),
		Date:   formValue(form, "date"),
		Cover:  formFile(form, "coverImage"),
		Images: formFiles(form, "images", "images[]"),
	})
	if err != nil {
		h.fail(c, ctx, err, albumNotFound)
		return
	}
	c.JSON(http.StatusOK, AlbumUpdateResponse{Success: true, Album: album})
}

func (h *Handlers) AlbumDelete(c *gin.Context, _ *models.User) {
	raw := c.Query("id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, Response{Error: "Missing album id"})
		return
	}
	id := parseID(raw)
	if id == 0 {
		c.JSON(http.StatusBadRequest, Response{Error: "Invalid album id"})
		return
	}
	ctx, cancel := h.operationContext(c)
	defer cancel()

	result, err := h.Pipeline.DeleteAlbum(ctx, id)
	if err != nil {
		h.fail(c, ctx, err, albumNotFound)
		return
	}
	c.JSON(http.StatusOK, AlbumDeleteResponse{
		Success:       true,
		DeletedImages: result.DeletedImages,
		Warnings:      result.Warnings,
	})
}
