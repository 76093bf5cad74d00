package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type RefinerConfig struct {
	Provider       string  `json:"provider" yaml:"provider"`
	BaseURL        string  `json:"base_url" yaml:"base_url"`
	Model          string  `json:"model" yaml:"model"`
	Temperature    float32 `json:"temperature" yaml:"temperature"`
	APIKeyEnv      string  `json:"api_key_env" yaml:"api_key_env"`
	APIKey         string  `json:"-" yaml:"-"`
	TimeoutSeconds int     `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type Config struct {
	Server struct {
		Host      string `json:"host" yaml:"host"`
		Port      int    `json:"port" yaml:"port"`
		Index     string `json:"index" yaml:"index"`
		StaticDir string `json:"static_dir" yaml:"static_dir"`
	} `json:"server" yaml:"server"`
	Dataset struct {
		Path string `json:"path" yaml:"path"`
	} `json:"dataset" yaml:"dataset"`
	Refiner RefinerConfig `json:"refiner" yaml:"refiner"`
	Search  struct {
		MaxResults int `json:"max_results" yaml:"max_results"`
		DelayMS    int `json:"delay_ms" yaml:"delay_ms"`
	} `json:"search" yaml:"search"`
	Log struct {
		Level  string `json:"level" yaml:"level"`
		Pretty bool   `json:"pretty" yaml:"pretty"`
	} `json:"log" yaml:"log"`
	History struct {
		Enabled bool   `json:"enabled" yaml:"enabled"`
		Driver  string `json:"driver" yaml:"driver"`
		DSN     string `json:"dsn" yaml:"dsn"`
	} `json:"history" yaml:"history"`
	Stats struct {
		Enabled  bool   `json:"enabled" yaml:"enabled"`
		Addr     string `json:"addr" yaml:"addr"`
		Password string `json:"password" yaml:"password"`
		DB       int    `json:"db" yaml:"db"`
		Key      string `json:"key" yaml:"key"`
	} `json:"stats" yaml:"stats"`
}

const (
	DefaultModel   = "llama-3.1-8b-instant"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultDelayMS = 4500
)

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	c := &Config{}
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8000
	c.Server.Index = "./frontend/index.html"
	c.Server.StaticDir = "./static"
	c.Dataset.Path = "movies.json.gz"
	c.Refiner = RefinerConfig{
		Provider:    "openai",
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: 0.2,
		APIKeyEnv:   "GROQ_API_KEY",
	}
	c.Search.MaxResults = 10
	c.Search.DelayMS = DefaultDelayMS
	c.Log.Level = "info"
	c.History.Driver = "sqlite"
	c.History.DSN = "history.db"
	c.Stats.Addr = "localhost:6379"
	c.Stats.Key = "moviematch:queries"
	return c
}

// LoadConfig reads the config file from disk (singleton). A missing file
// yields the defaults; environment overrides are applied either way.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		c, err := load(path)
		if err != nil {
			cfgErr = err
			return
		}
		cfg = c
	})
	return cfg, cfgErr
}

func load(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(path, raw, c); err != nil {
			return nil, fmt.Errorf("invalid config format: %w", err)
		}
	}
	if err := applyEnv(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(path string, raw []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, c)
	default:
		return json.Unmarshal(raw, c)
	}
}

func applyEnv(c *Config) error {
	if v := os.Getenv("MOVIEMATCH_DATASET"); v != "" {
		c.Dataset.Path = v
	}
	if v := os.Getenv("MOVIEMATCH_ADDR"); v != "" {
		if err := c.SetAddr(v); err != nil {
			return fmt.Errorf("MOVIEMATCH_ADDR: %w", err)
		}
	}
	if v := os.Getenv("MOVIEMATCH_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MOVIEMATCH_DELAY_MS: %w", err)
		}
		c.Search.DelayMS = ms
	}
	if v := os.Getenv("MOVIEMATCH_REFINER"); v != "" {
		c.Refiner.Provider = v
	}
	if v := os.Getenv("MOVIEMATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if c.Refiner.APIKeyEnv != "" {
		c.Refiner.APIKey = os.Getenv(c.Refiner.APIKeyEnv)
	}
	return nil
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return errors.New("dataset.path must be set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Search.DelayMS < 0 {
		return fmt.Errorf("search.delay_ms must not be negative: %d", c.Search.DelayMS)
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
		return fmt.Errorf("search.max_results must be between 1 and 10: %d", c.Search.MaxResults)
	}
	if c.Refiner.Temperature < 0 || c.Refiner.Temperature > 2 {
		return fmt.Errorf("refiner.temperature must be between 0 and 2: %v", c.Refiner.Temperature)
	}
	return nil
}

// SetAddr splits a host:port listen address into the server section. A bare
// port keeps the current host.
func (c *Config) SetAddr(addr string) error {
	host, portStr := c.Server.Host, addr
	if strings.Contains(addr, ":") {
		var err error
		if host, portStr, err = net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", addr, err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid listen address %q: port out of range", addr)
	}
	c.Server.Host = host
	c.Server.Port = port
	return nil
}

// Delay is the pause inserted between refinement and search.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Search.DelayMS) * time.Millisecond
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
