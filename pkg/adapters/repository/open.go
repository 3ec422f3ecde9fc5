package repository

import (
	"fmt"
	"strings"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/repository/gormstore"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/ports"
)

// Store is a LinkArchive that holds a connection to release.
type Store interface {
	ports.LinkArchive
	Close() error
}

// Open selects a backend from the database URL:
//
//	memory                       in-process, lost on exit
//	postgres:// | postgresql://  GORM on Postgres
//	anything else                SQLite file or libsql:// (Turso)
func Open(databaseURL string) (Store, error) {
	switch {
	case databaseURL == "memory":
		return memory.NewStore(), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		repo, err := gormstore.OpenPostgres(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return repo, nil
	default:
		repo, err := sqlite.NewSQLiteRepository(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return repo, nil
	}
}
