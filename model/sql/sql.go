package sql

import (
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/Brawl345/epicture/logger"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

var log = logger.New("sql")

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Options struct {
	Driver          string
	DSN             string
	IgnoreMigration bool
}

// New connects to the configured database and applies the embedded migrations.
func New(opts Options) (*sqlx.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialect string
	switch driver {
	case DriverSQLite:
		dialect = "sqlite3"
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	case DriverMySQL:
		dialect = "mysql"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// one connection keeps writes visible to the next read
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	if !opts.IgnoreMigration {
		migrationSource := &migrate.EmbedFileSystemMigrationSource{
			FileSystem: embeddedMigrations,
			Root:       "migrations/" + driver,
		}
		n, err := migrate.Exec(db.DB, dialect, migrationSource, migrate.Up)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if n > 0 {
			log.Info().Msgf("Applied %d migration(s)", n)
		}
	}

	return db, nil
}
