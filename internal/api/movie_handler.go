package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-moviematch/internal/config"
	"go-moviematch/internal/history"
	"go-moviematch/internal/search"
)

const movieDesField = "movie_des"

// POST /movie-result
func MovieResultHandler(cfg *config.Config, deps Deps) gin.HandlerFunc {
	delay := cfg.Delay()
	return func(c *gin.Context) {
		var payload map[string]any
		if err := c.ShouldBindJSON(&payload); err != nil {
			requestLog(c).Debug().Err(err).Msg("unreadable movie-result body")
		}
		query, ok := movieDescription(payload[movieDesField])
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "movie_des required"})
			return
		}

		// Once started, a request runs to completion even if the client leaves.
		ctx := context.WithoutCancel(c.Request.Context())
		logger := requestLog(c)

		refined, err := deps.Refiner.Refine(ctx, query)
		if err != nil {
			logger.Error().Err(err).Str("query", query).Msg("query refinement failed")
			internalError(c)
			return
		}
		logger.Debug().Str("query", query).Str("refined", refined).Msg("query refined")

		wait(delay)

		results := deps.Searcher.Search(refined)
		record(ctx, c, deps, query, refined, results)
		c.JSON(http.StatusOK, results)
	}
}

// movieDescription applies falsy semantics to the decoded field: absent,
// null, false, zero, and empty strings, arrays and objects are all missing.
// Other non-string values are searched as their JSON text.
func movieDescription(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		if !t {
			return "", false
		}
	case float64:
		if t == 0 {
			return "", false
		}
	case []any:
		if len(t) == 0 {
			return "", false
		}
	case map[string]any:
		if len(t) == 0 {
			return "", false
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// record feeds the optional history and stats sinks. Failures are logged only.
func record(ctx context.Context, c *gin.Context, deps Deps, query, refined string, results []search.Result) {
	if deps.History != nil {
		entry := &history.Search{
			RequestID:  c.GetString(requestIDKey),
			Query:      query,
			Refined:    refined,
			ResultsLen: len(results),
		}
		if len(results) > 0 {
			entry.TopTitle = results[0].Title
		}
		if err := deps.History.Record(ctx, entry); err != nil {
			requestLog(c).Warn().Err(err).Msg("history write failed")
		}
	}
	if deps.Stats != nil {
		if err := deps.Stats.Incr(ctx, refined); err != nil {
			requestLog(c).Warn().Err(err).Msg("query stats update failed")
		}
	}
}
