package comm

import (
	"encoding/json"
	"time"

	"github.com/avvvet/race-services/internal/racesvc/models"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "init", "lobby_view"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

type ServiceHeartbeat struct {
	ID        string    `json:"id"` // service id
	Timestamp time.Time `json:"timestamp"`
}

type ServiceShutdown struct {
	ID string `json:"id"` // service id
}

// RaceOutcome is the settlement request the authority publishes per racer
// once the off-ledger race finishes.
type RaceOutcome struct {
	Lobby          string `json:"lobby"`
	Racer          string `json:"racer"`
	Holder         string `json:"holder"`
	HolderFeeVault string `json:"holder_fee_vault"`
	OwnerFeeVault  string `json:"owner_fee_vault"`
	IsWinner       bool   `json:"is_winner"`
	NewWinPct      uint8  `json:"new_win_pct"`
}

// CacheRaceRequest asks the settlement service to archive a race snapshot.
type CacheRaceRequest struct {
	Lobby     string `json:"lobby"`
	Winner    string `json:"winner"`
	StartedAt uint64 `json:"started_at"`
}

// RaceEvent is the fan-out notification pushed to connected clients.
type RaceEvent struct {
	Type  string `json:"type"` // "lobby_created", "racer_joined", "race_started", "racer_left", "race_settled", "lobby_closed"
	Lobby string `json:"lobby"`
	Racer string `json:"racer,omitempty"`
}

// LobbyView is the client facing lobby state.
type LobbyView struct {
	Lobby    *models.Lobby `json:"lobby"`
	EntryFee string        `json:"entry_fee"` // display units of the fee asset
	Occupied int           `json:"occupied"`
}

// WinPctUpdate is the request/reply payload for the stats record update.
type WinPctUpdate struct {
	Asset          string `json:"asset"`
	Record         string `json:"record"`
	Authority      string `json:"authority"`
	OwnerAuthority string `json:"owner_authority"`
	WinPct         uint8  `json:"win_pct"`
}

// WinPctReply acknowledges a stats record update.
type WinPctReply struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
