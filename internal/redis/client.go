package redisdb

import (
	"github.com/redis/go-redis/v9"

	"go-moviematch/internal/config"
)

const (
	DefaultAddr = "localhost:6379"
	DefaultKey  = "moviematch:queries"
)

// NewClient connects to the query stats instance named by the stats section.
func NewClient(cfg *config.Config) *redis.Client {
	addr := cfg.Stats.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   cfg.Stats.Password,
		DB:         cfg.Stats.DB,
		ClientName: "moviematch",
	})
}
