package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/avolkov/lockbox/internal/dbx"
	"github.com/avolkov/lockbox/internal/vault/migrations"
	"github.com/avolkov/lockbox/internal/vault/repositories/secrets"
	"github.com/avolkov/lockbox/internal/vault/repositories/servicetokens"
	"github.com/avolkov/lockbox/internal/vault/repositories/users"
)

type SQLiteRepositoryManager struct {
	db *sql.DB
}

func (m *SQLiteRepositoryManager) Conn() *sql.DB { return m.db }

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) ServiceTokens(db dbx.DBTX) servicetokens.Repository {
	return servicetokens.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Secrets(db dbx.DBTX) secrets.Repository {
	return secrets.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Close() error { return m.db.Close() }

// RunMigrations applies the embedded SQLite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return goose.UpContext(ctx, m.db, "sqlite")
}

// NewSQLite opens (or creates) the local database file and migrates the
// schema. The pool is capped at one connection: sqlite handles a single
// writer, and the vault's operations are short sequential pipelines.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteRepositoryManager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	m := &SQLiteRepositoryManager{db: db}

	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}
