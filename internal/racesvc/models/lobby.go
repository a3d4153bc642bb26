package models

import "time"

// Track variants supported by lobby metadata.
const (
	TrackDirt     = "dirt"
	TrackSpace    = "space"
	TrackPavement = "pavement"
	TrackSand     = "sand"
)

// EmptySlot marks a vacant position in a lobby's racer sequence.
const EmptySlot = ""

// LobbyKeys is the fixed address set a lobby references: the assets involved,
// the three custodial vaults owned by the lobby itself, and the owner side
// accounts settlement pays into.
type LobbyKeys struct {
	TrackAsset      string `json:"track_asset"`
	FeeAsset        string `json:"fee_asset"`
	TrackMetadata   string `json:"track_metadata"`
	FeeVault        string `json:"fee_vault"`     // lobby owned, entry fee pool
	TrackVault      string `json:"track_vault"`   // lobby owned, holds the track unit
	NetworkVault    string `json:"network_vault"` // lobby owned, network fee pool
	Owner           string `json:"owner"`
	OwnerTrackVault string `json:"owner_track_vault"`
	OwnerFeeVault   string `json:"owner_fee_vault"`
}

// LobbyData is the session metadata fixed at creation.
type LobbyData struct {
	TotalLaps    uint8  `json:"total_laps"` // 1 - 4
	MinClass     uint8  `json:"min_class"`  // 1 - 5
	EntryFee     uint64 `json:"entry_fee"`  // base units of the fee asset
	Name         string `json:"name"`
	Location     string `json:"location"`
	TrackVariant string `json:"track_variant"`
}

// Lobby is one race session. Racers always has len == Capacity; a slot is
// either EmptySlot or a racer registration address, never duplicated.
type Lobby struct {
	Address    string    `json:"address"` // derived from (owner, track asset)
	Capacity   uint8     `json:"capacity"`
	Started    bool      `json:"started"`
	UnlockTime uint64    `json:"unlock_time"` // unix seconds
	Keys       LobbyKeys `json:"keys"`
	Racers     []string  `json:"racers"`
	Data       LobbyData `json:"data"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
