package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"portfolio/config"
	"portfolio/models"
	"portfolio/pipeline"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Response struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

const (
	etagHeader = "ETag"
	// room for the form fields on top of the files
	multipartOverhead = 1 << 20
)

var (
	// Predefined responses
	OKResponse            = Response{Success: true}
	DBErrorResponse       = Response{Error: "Database error"}
	TimeoutResponse       = Response{Error: "Operation timed out"}
	InternalErrorResponse = Response{Error: "Internal server error"}
)

type Handlers struct {
	Pipeline *pipeline.Pipeline
	Store    *models.Store
	Config   *config.Config
	Log      zerolog.Logger
}

func New(cfg *config.Config, p *pipeline.Pipeline, store *models.Store, log zerolog.Logger) *Handlers {
	return &Handlers{
		Pipeline: p,
		Store:    store,
		Config:   cfg,
		Log:      log.With().Str("component", "handlers").Logger(),
	}
}

// operationContext bounds a pipeline run, the request may be cut off when it expires.
func (h *Handlers) operationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.Config.OperationTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.Config.OperationTimeout)
}

// fail writes the error response for err. notFound is the message used for a missing record.
func (h *Handlers) fail(c *gin.Context, ctx context.Context, err error, notFound string) {
	var validation *pipeline.ValidationError
	var failure *pipeline.FailureError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		h.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("operation timed out")
		c.JSON(http.StatusGatewayTimeout, TimeoutResponse)
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, Response{Error: validation.Message})
	case errors.Is(err, pipeline.ErrNotFound), errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Error: notFound})
	case errors.As(err, &failure):
		c.JSON(http.StatusInternalServerError, Response{Error: failure.Message, Warnings: failure.Warnings})
	default:
		h.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, InternalErrorResponse)
	}
}

// parseMultipart caps the body size and parses the form.
func (h *Handlers) parseMultipart(c *gin.Context) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Config.MaxAlbumBytes+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, Response{Error: "Request body is too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, Response{Error: "Invalid multipart form"})
		return nil, false
	}
	return form, true
}

func fileFrom(fh *multipart.FileHeader) pipeline.File {
	return pipeline.File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func formFiles(form *multipart.Form, keys ...string) []pipeline.File {
	files := []pipeline.File{}
	for _, key := range keys {
		for _, fh := range form.File[key] {
			files = append(files, fileFrom(fh))
		}
	}
	return files
}

func formFile(form *multipart.Form, key string) *pipeline.File {
	if headers := form.File[key]; len(headers) > 0 {
		f := fileFrom(headers[0])
		return &f
	}
	return nil
}

// parseID reads a positive numeric id, 0 if missing or invalid.
func parseID(raw string) uint64 {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// isNotModified sets the ETag and reports whether the client copy is current.
func isNotModified(c *gin.Context, version string) bool {
	c.Header("cache-control", "private, max-age=1")
	c.Header(etagHeader, version)
	if c.Request.Header.Get("If-None-Match") == version {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
