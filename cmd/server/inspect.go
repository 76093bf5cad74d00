package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"go-moviematch/internal/db"
	"go-moviematch/internal/history"
	"go-moviematch/internal/logging"
	redisdb "go-moviematch/internal/redis"
)

var (
	errHistoryDisabled = errors.New("history is disabled (history.enabled=false)")
	errStatsDisabled   = errors.New("query stats are disabled (stats.enabled=false)")
)

func showHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if !cfg.History.Enabled {
		return errHistoryDisabled
	}

	conn, err := db.Open(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	rows, err := history.NewRecorder(conn).Recent(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tQUERY\tREFINED\tRESULTS\tTOP")
	for _, s := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.CreatedAt.Format(time.RFC3339), s.Query, s.Refined, s.ResultsLen, s.TopTitle)
	}
	return w.Flush()
}

func showTop(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if !cfg.Stats.Enabled {
		return errStatsDisabled
	}

	rdb := redisdb.NewClient(cfg)
	defer rdb.Close()
	top, err := redisdb.NewQueryStats(rdb, cfg.Stats.Key).Top(c.Context, c.Int64("n"))
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COUNT\tQUERY")
	for _, q := range top {
		fmt.Fprintf(w, "%d\t%s\n", q.Count, q.Query)
	}
	return w.Flush()
}
