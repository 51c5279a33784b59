// Package repomanager wires repositories to a database connection and runs
// schema migrations. Repository factories take a dbx.DBTX so services can
// bind them either to the pooled connection or to a transaction.
package repomanager

import (
	"database/sql"

	"github.com/avolkov/lockbox/internal/dbx"
	"github.com/avolkov/lockbox/internal/vault/repositories/secrets"
	"github.com/avolkov/lockbox/internal/vault/repositories/servicetokens"
	"github.com/avolkov/lockbox/internal/vault/repositories/users"
)

// RepositoryManager hands out repositories bound to an arbitrary DBTX.
type RepositoryManager interface {
	// Conn exposes the underlying pool for dbx.WithTx.
	Conn() *sql.DB

	Users(db dbx.DBTX) users.Repository
	ServiceTokens(db dbx.DBTX) servicetokens.Repository
	Secrets(db dbx.DBTX) secrets.Repository

	Close() error
}
