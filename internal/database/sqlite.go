package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BradenHooton/loginlog/internal/config"
	_ "modernc.org/sqlite"
)

// SQLiteDB is the embedded single-file store. All access goes through one
// connection, so inserts are serialized and ids are assigned in order.
type SQLiteDB struct {
	SQL    *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and creates if needed) the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteDB, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite db: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", config.DriverSQLite),
		slog.String("path", path),
	)

	return &SQLiteDB{SQL: db, logger: logger}, nil
}

func (db *SQLiteDB) Close() {
	if db.logger != nil {
		db.logger.Info("closing sqlite database")
	}
	db.SQL.Close()
}

func (db *SQLiteDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// WithTransaction runs fn in a transaction, rolling back on error or panic
func (db *SQLiteDB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}
