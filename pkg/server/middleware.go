package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	}
}

// abortWithError answers with a fixed message and keeps err in the log only.
func abortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
