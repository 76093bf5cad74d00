package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// GET /
func indexHandler(index string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := os.Stat(index); err != nil {
			requestLog(c).Error().Err(err).Str("index", index).Msg("index document unavailable")
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
			return
		}
		c.File(index)
	}
}
