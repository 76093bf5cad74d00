package db

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-moviematch/internal/history"
)

// Open connects to the history database and migrates its tables.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, err
	}

	if err := conn.AutoMigrate(&history.Search{}); err != nil {
		return nil, err
	}

	log.Info().Str("driver", dialector.Name()).Msg("history database connected and migrated")
	return conn, nil
}
