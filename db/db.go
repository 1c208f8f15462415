package db

import (
	"embed"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

func Initialize(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	slog.Info("Initialised DB connection", slog.String("dsn", dsn))
	return db, nil
}

func ApplyMigrations(db *sqlx.DB, migrations embed.FS) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return err
	}

	return goose.Up(db.DB, ".")
}
