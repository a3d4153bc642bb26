package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type VaultStore struct {
	tx pgx.Tx
}

func (s *VaultStore) Get(ctx context.Context, address string) (*models.Vault, error) {
	query := `
		SELECT address, owner, asset, balance, created_at, updated_at
		FROM vaults
		WHERE address = $1
		FOR UPDATE
	`

	vault := &models.Vault{}
	err := s.tx.QueryRow(ctx, query, address).Scan(
		&vault.Address,
		&vault.Owner,
		&vault.Asset,
		&vault.Balance,
		&vault.CreatedAt,
		&vault.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}

	return vault, nil
}

func (s *VaultStore) Create(ctx context.Context, owner, asset string) (*models.Vault, error) {
	now := time.Now()
	vault := &models.Vault{
		Address:   ledger.VaultAddress(owner, asset),
		Owner:     owner,
		Asset:     asset,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO vaults (address, owner, asset, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.tx.Exec(ctx, query,
		vault.Address, vault.Owner, vault.Asset, vault.Balance, vault.CreatedAt, vault.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault: %w", err)
	}
	return vault, nil
}

// Transfer moves base units between two vaults of the same asset. The debit
// is balance guarded at the database level and every movement leaves a row in
// vault_entries.
func (s *VaultStore) Transfer(ctx context.Context, from, to string, amount uint64) error {
	var fromAsset, toAsset string
	err := s.tx.QueryRow(ctx, `
		SELECT f.asset, t.asset
		FROM vaults f, vaults t
		WHERE f.address = $1 AND t.address = $2
		FOR UPDATE
	`, from, to).Scan(&fromAsset, &toAsset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engine.ErrVaultNotFound
		}
		return fmt.Errorf("failed to lock vaults: %w", err)
	}
	if fromAsset != toAsset {
		return engine.ErrInvalidVault
	}

	tag, err := s.tx.Exec(ctx, `
		UPDATE vaults SET balance = balance - $2, updated_at = now()
		WHERE address = $1 AND balance >= $2
	`, from, amount)
	if err != nil {
		return fmt.Errorf("failed to debit vault: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrInsufficientFunds
	}

	if _, err := s.tx.Exec(ctx, `
		UPDATE vaults SET balance = balance + $2, updated_at = now()
		WHERE address = $1
	`, to, amount); err != nil {
		return fmt.Errorf("failed to credit vault: %w", err)
	}

	tref := uuid.New().String()
	if _, err := s.tx.Exec(ctx, `
		INSERT INTO vault_entries (tref, from_vault, to_vault, asset, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, tref, from, to, fromAsset, amount); err != nil {
		return fmt.Errorf("failed to record vault entry: %w", err)
	}
	return nil
}

func (s *VaultStore) Close(ctx context.Context, address string) error {
	vault, err := s.Get(ctx, address)
	if err != nil {
		return err
	}
	if vault == nil {
		return engine.ErrVaultNotFound
	}
	if vault.Balance != 0 {
		return engine.ErrVaultNotEmpty
	}

	if _, err := s.tx.Exec(ctx, `DELETE FROM vaults WHERE address = $1`, address); err != nil {
		return fmt.Errorf("failed to close vault: %w", err)
	}
	return nil
}
