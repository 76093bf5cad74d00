package redisdb

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// QueryStats counts how often each refined query is searched, in a sorted set.
type QueryStats struct {
	rdb *redis.Client
	key string
}

// QueryCount is one member of the popularity ranking.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

func NewQueryStats(rdb *redis.Client, key string) *QueryStats {
	if key == "" {
		key = DefaultKey
	}
	return &QueryStats{rdb: rdb, key: key}
}

// Incr bumps the counter for query. Blank queries are ignored.
func (s *QueryStats) Incr(ctx context.Context, query string) error {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	return s.rdb.ZIncrBy(ctx, s.key, 1, query).Err()
}

// Top returns the n most searched queries, most frequent first.
func (s *QueryStats) Top(ctx context.Context, n int64) ([]QueryCount, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]QueryCount, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, QueryCount{Query: member, Count: int64(z.Score)})
	}
	return out, nil
}
