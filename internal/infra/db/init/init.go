package infra_db_init

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/coderacer/core/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

func MustEstablishConn(cfg config.Storage, pg config.Postgres) *sqlx.DB {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = ConnectPostgres(pg)
	case DriverSQLite:
		db, err = ConnectSQLite(cfg.SQLitePath)
	default:
		err = fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		log.Fatalf("failed to migrate %s schema: %v", cfg.Driver, err)
	}
	return db
}

func PostgresDSN(cfg config.Postgres) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
}

func ConnectPostgres(cfg config.Postgres) (*sqlx.DB, error) {
	return sqlx.Connect(DriverPostgres, PostgresDSN(cfg))
}

// ConnectSQLite opens a single-connection database: a transaction then owns
// the whole store, which is what serialises rooms across goroutines.
func ConnectSQLite(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS languages (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS snippets (
	id BIGSERIAL PRIMARY KEY,
	language_id BIGINT REFERENCES languages(id),
	code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id UUID PRIMARY KEY,
	code VARCHAR(6) NOT NULL UNIQUE,
	host_user_id TEXT NOT NULL,
	snippet_id BIGINT NOT NULL,
	status VARCHAR(20) NOT NULL,
	max_players INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS participants (
	room_code VARCHAR(6) NOT NULL REFERENCES rooms(code) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	wpm DOUBLE PRECISION NOT NULL DEFAULT 0,
	accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_finished BOOLEAN NOT NULL DEFAULT FALSE,
	finish_position INTEGER,
	joined_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	PRIMARY KEY (room_code, user_id),
	UNIQUE (room_code, finish_position)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS languages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS snippets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	language_id INTEGER REFERENCES languages(id),
	code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	host_user_id TEXT NOT NULL,
	snippet_id INTEGER NOT NULL,
	status TEXT NOT NULL,
	max_players INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	started_at TIMESTAMP,
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS participants (
	room_code TEXT NOT NULL REFERENCES rooms(code) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	wpm REAL NOT NULL DEFAULT 0,
	accuracy REAL NOT NULL DEFAULT 0,
	is_finished BOOLEAN NOT NULL DEFAULT FALSE,
	finish_position INTEGER,
	joined_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	PRIMARY KEY (room_code, user_id),
	UNIQUE (room_code, finish_position)
);
`
