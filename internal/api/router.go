package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-moviematch/internal/config"
	"go-moviematch/internal/history"
	redisdb "go-moviematch/internal/redis"
	"go-moviematch/internal/refine"
	"go-moviematch/internal/search"
)

// Deps are the services the router hands to its handlers. History and
// Stats are optional.
type Deps struct {
	Searcher *search.Searcher
	Refiner  refine.Refiner
	History  *history.Recorder
	Stats    *redisdb.QueryStats
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(RequestID(), RequestLogger(), Recovery(), CORS())

	// Frontend
	r.GET("/", indexHandler(cfg.Server.Index))
	r.Static("/static", cfg.Server.StaticDir)

	// API
	r.POST("/movie-result", MovieResultHandler(cfg, deps))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method Not Allowed"})
	})
	return r
}
