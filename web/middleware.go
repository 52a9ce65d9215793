package web

import (
	"strconv"
	"time"

	"portfolio/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func requestMetrics(c *gin.Context) {
	started := time.Now()
	c.Next()
	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = "unmatched"
	}
	metrics.RequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(started).Seconds())
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		status := c.Writer.Status()
		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(started)).
			Msg("request")
	}
}
