package models

import "time"

// RacerRegistration is the persistent membership record for one racer asset.
// Lobby and JoinedAt are jointly empty (idle) or jointly set (racing).
type RacerRegistration struct {
	Address        string    `json:"address"` // derived from (asset, stats record)
	Asset          string    `json:"asset"`
	StatsRecord    string    `json:"stats_record"`    // companion program record address
	OwnerAuthority string    `json:"owner_authority"` // authority the stats record was initialized with
	Lobby          string    `json:"lobby"`           // current lobby address, "" when idle
	JoinedAt       uint64    `json:"joined_at"`       // unix seconds, 0 when idle
	FeeVault       string    `json:"fee_vault"`       // holder fee vault used on join, "" when idle
	TotalWins      uint64    `json:"total_wins"`
	TotalLosses    uint64    `json:"total_losses"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Idle reports whether the racer is not in a lobby.
func (r *RacerRegistration) Idle() bool {
	return r.Lobby == "" && r.JoinedAt == 0
}
