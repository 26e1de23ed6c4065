package data

import (
	"database/sql"
	"embed"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// IsPostgres reports whether dsn points to a PostgreSQL server rather than
// a local sqlite file.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func driverName(dsn string) string {
	if IsPostgres(dsn) {
		return driverPostgres
	}
	return driverSQLite
}

// Init creates the schema for the given sqlite path or postgres DSN. It is
// safe to call on an existing database.
func Init(dsn string) error {
	if dsn == "" {
		return errors.New("dsn not specified")
	}

	db, err := GetDB(dsn)
	if err != nil {
		return errors.Wrapf(err, "error opening database: %s", dsn)
	}
	defer db.Close()

	driver := driverName(dsn)
	slog.Debug("applying db schema", "driver", driver)

	b, err := f.ReadFile("sql/" + driver + ".sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.Exec(string(b)); err != nil {
		return errors.Wrapf(err, "failed to create database schema in: %s", dsn)
	}

	slog.Debug("db schema applied")
	return nil
}

// GetDB opens the database; the caller owns closing it.
func GetDB(dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driverName(dsn), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", dsn)
	}
	return conn, nil
}

// rebind converts ? placeholders to $n when db is backed by postgres.
func rebind(db *sql.DB, query string) string {
	if _, ok := db.Driver().(*pq.Driver); !ok {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
