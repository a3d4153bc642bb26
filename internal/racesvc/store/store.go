// Package store is the postgres implementation of the engine storage
// interfaces, backed by a pgx connection pool.
package store

import (
	"context"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside one database transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx engine.Tx) error) error {
	pgTx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer pgTx.Rollback(ctx)

	if err := fn(ctx, &sqlTx{tx: pgTx}); err != nil {
		return err
	}
	return pgTx.Commit(ctx)
}

type sqlTx struct {
	tx pgx.Tx
}

func (t *sqlTx) Policies() engine.PolicyRepo { return &PolicyStore{tx: t.tx} }
func (t *sqlTx) Lobbies() engine.LobbyRepo   { return &LobbyStore{tx: t.tx} }
func (t *sqlTx) Racers() engine.RacerRepo    { return &RacerStore{tx: t.tx} }
func (t *sqlTx) Assets() engine.AssetRepo    { return &AssetStore{tx: t.tx} }
func (t *sqlTx) Vaults() engine.VaultRepo    { return &VaultStore{tx: t.tx} }
