package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/stellar/go/support/db"
)

//go:embed sqlmigrations/*.sql
var sqlMigrations embed.FS

var ErrEmptyDB = errors.New("DB is empty")

const (
	metaTableName = "metadata"
)

type DB struct {
	db.SessionInterface
}

func openSQLiteDB(dbFilePath string) (*db.Session, error) {
	// 1. Use Write-Ahead Logging (WAL).
	// 2. Use synchronous=NORMAL, which is faster and still safe in WAL mode.
	// 3. Wait for the lock instead of failing when readers and the writer overlap.
	session, err := db.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbFilePath))
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	if err = runSQLMigrations(session.DB.DB, "sqlite3"); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("could not run SQL migrations: %w", err)
	}
	return session, nil
}

func OpenSQLiteDBWithPrometheusMetrics(dbFilePath string, namespace string, sub db.Subservice, registry *prometheus.Registry) (*DB, error) {
	session, err := openSQLiteDB(dbFilePath)
	if err != nil {
		return nil, err
	}
	return &DB{SessionInterface: db.RegisterMetrics(session, namespace, sub, registry)}, nil
}

func OpenSQLiteDB(dbFilePath string) (*DB, error) {
	session, err := openSQLiteDB(dbFilePath)
	if err != nil {
		return nil, err
	}
	return &DB{SessionInterface: session}, nil
}

// Ready checks that the database answers queries.
func (d *DB) Ready(ctx context.Context) error {
	var one []int
	return d.Select(ctx, &one, sq.Select("1"))
}

func getMetaUint64(ctx context.Context, q db.SessionInterface, key string) (uint64, error) {
	valueStr, err := getMetaValue(ctx, q, key)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(valueStr, 10, 64)
}

func setMetaUint64(ctx context.Context, q db.SessionInterface, key string, value uint64) error {
	query := sq.Replace(metaTableName).
		Values(key, strconv.FormatUint(value, 10))
	_, err := q.Exec(ctx, query)
	return err
}

func getMetaValue(ctx context.Context, q db.SessionInterface, key string) (string, error) {
	sql := sq.Select("value").From(metaTableName).Where(sq.Eq{"key": key})
	var results []string
	if err := q.Select(ctx, &results, sql); err != nil {
		return "", err
	}
	switch len(results) {
	case 0:
		return "", ErrEmptyDB
	case 1:
		// expected length on an initialized DB
	default:
		return "", fmt.Errorf("multiple entries (%d) for key %q in table %q", len(results), key, metaTableName)
	}
	return results[0], nil
}

func runSQLMigrations(db *sql.DB, dialect string) error {
	m := &migrate.AssetMigrationSource{
		Asset: sqlMigrations.ReadFile,
		AssetDir: func(path string) ([]string, error) {
			dirEntry, err := sqlMigrations.ReadDir(path)
			if err != nil {
				return nil, err
			}
			entries := make([]string, 0, len(dirEntry))
			for _, e := range dirEntry {
				entries = append(entries, e.Name())
			}
			return entries, nil
		},
		Dir: "sqlmigrations",
	}
	_, err := migrate.ExecMax(db, dialect, m, migrate.Up, 0)
	return err
}
