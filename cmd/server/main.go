package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"go-moviematch/internal/api"
	"go-moviematch/internal/config"
	"go-moviematch/internal/db"
	"go-moviematch/internal/history"
	"go-moviematch/internal/logging"
	"go-moviematch/internal/movie"
	redisdb "go-moviematch/internal/redis"
	"go-moviematch/internal/refine"
	"go-moviematch/internal/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "moviematch",
		Usage: "find movies from a free-text description",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.json", Usage: "config file (.json or .yaml)"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the config"},
			&cli.StringFlag{Name: "dataset", Usage: "gzip JSON movie dataset"},
			&cli.StringFlag{Name: "addr", Usage: "listen address host:port"},
			&cli.IntFlag{Name: "delay", Value: -1, Usage: "artificial delay before results, in milliseconds"},
			&cli.StringFlag{Name: "refiner", Usage: "refiner provider: openai, langchain or passthrough"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "history",
				Usage:  "print the most recent searches from the history store",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20}},
				Action: showHistory,
			},
			{
				Name:   "top",
				Usage:  "print the most searched refined queries",
				Flags:  []cli.Flag{&cli.Int64Flag{Name: "n", Value: 10}},
				Action: showTop,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, fmt.Errorf("env file: %w", err)
	}
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if v := c.String("dataset"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := c.String("addr"); v != "" {
		if err := cfg.SetAddr(v); err != nil {
			return nil, err
		}
	}
	if v := c.Int("delay"); v >= 0 {
		cfg.Search.DelayMS = v
	}
	if v := c.String("refiner"); v != "" {
		cfg.Refiner.Provider = v
	}
	return cfg, cfg.Validate()
}

// build wires every service the router needs. Any error here is fatal.
func build(cfg *config.Config) (*gin.Engine, error) {
	catalog, err := movie.Load(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	log.Info().Int("movies", catalog.Len()).Str("path", cfg.Dataset.Path).Msg("movie dataset loaded")

	refiner, err := refine.New(cfg.Refiner)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", cfg.Refiner.Provider).Str("model", cfg.Refiner.Model).Msg("query refiner ready")

	deps := api.Deps{
		Searcher: search.NewSearcher(catalog, cfg.Search.MaxResults),
		Refiner:  refiner,
	}

	if cfg.History.Enabled {
		conn, err := db.Open(cfg.History.Driver, cfg.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		deps.History = history.NewRecorder(conn)
	}
	if cfg.Stats.Enabled {
		deps.Stats = redisdb.NewQueryStats(redisdb.NewClient(cfg), cfg.Stats.Key)
		log.Info().Str("addr", cfg.Stats.Addr).Msg("query stats enabled")
	}

	return api.SetupRouter(cfg, deps), nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(gin.ReleaseMode)

	r, err := build(cfg)
	if err != nil {
		return err
	}

	addr := cfg.Addr()
	log.Info().Str("addr", addr).Dur("delay", cfg.Delay()).Msg("starting server")
	return r.Run(addr)
}
