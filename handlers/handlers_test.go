package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio/config"
	"portfolio/models"
	"portfolio/pipeline"
	"portfolio/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(&config.Config{}, nil, nil, zerolog.Nop())

	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-expired.Done()

	tests := []struct {
		name     string
		ctx      context.Context
		err      error
		status   int
		message  string
		warnings []string
	}{
		{"validation", context.Background(), &pipeline.ValidationError{Message: "Missing required fields"}, http.StatusBadRequest, "Missing required fields", nil},
		{"not found", context.Background(), fmt.Errorf("album 3: %w", pipeline.ErrNotFound), http.StatusNotFound, "Album not found", nil},
		{"record not found", context.Background(), models.ErrNotFound, http.StatusNotFound, "Album not found", nil},
		{"failure", context.Background(), &pipeline.FailureError{Message: "Failed to delete cover image", Warnings: []string{"Attempt 1: x"}}, http.StatusInternalServerError, "Failed to delete cover image", []string{"Attempt 1: x"}},
		{
			"media call timeout is not an operation timeout",
			context.Background(),
			&pipeline.FailureError{Message: "Failed to upload image", Err: &storage.TransientError{Op: "store", Err: context.DeadlineExceeded}},
			http.StatusInternalServerError, "Failed to upload image", nil,
		},
		{"operation timeout", expired, context.DeadlineExceeded, http.StatusGatewayTimeout, "Operation timed out", nil},
		{"unknown", context.Background(), errors.New("boom"), http.StatusInternalServerError, "Internal server error", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/albums", nil)

			h.fail(c, tt.ctx, tt.err, albumNotFound)

			assert.Equal(t, tt.status, rec.Code)
			resp := Response{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, tt.warnings, resp.Warnings)
		})
	}
}

func TestParseID(t *testing.T) {
	assert.Equal(t, uint64(12), parseID("12"))
	assert.Zero(t, parseID(""))
	assert.Zero(t, parseID("-1"))
	assert.Zero(t, parseID("abc"))
}
