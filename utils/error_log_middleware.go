package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type errorLogWriter struct {
	gin.ResponseWriter
	gc  *gin.Context
	log zerolog.Logger
}

func (w errorLogWriter) Write(b []byte) (int, error) {
	status := w.gc.Writer.Status()
	if status >= 400 {
		w.log.Debug().
			Int("status", status).
			Str("method", w.gc.Request.Method).
			Str("path", w.gc.Request.URL.Path).
			Bytes("body", b).
			Msg("error response")
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs the body of 4xx/5xx responses. Doesn't work with GZIP
func ErrorLogMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &errorLogWriter{gc: c, ResponseWriter: c.Writer, log: log}
		c.Next()
	}
}
