package models

import "time"

// Vault is a custodial asset account. The address is derived from
// (owner, asset) so it doubles as the canonical account check.
type Vault struct {
	Address   string    `json:"address"` // derived address, primary key
	Owner     string    `json:"owner"`
	Asset     string    `json:"asset"`
	Balance   uint64    `json:"balance"` // base units
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
