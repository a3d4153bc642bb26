package service

import (
	"context"
	"math/big"

	"github.com/avvvet/race-services/internal/comm"
	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/models"
	"github.com/shopspring/decimal"
)

// ViewService shapes engine state into client facing payloads.
type ViewService struct {
	engine *engine.Engine
}

func NewViewService(eng *engine.Engine) *ViewService {
	return &ViewService{engine: eng}
}

// DisplayAmount converts base units to display units of an asset.
func DisplayAmount(baseUnits uint64, decimals uint8) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(baseUnits), -int32(decimals))
	return d.StringFixed(int32(decimals))
}

// LobbyView loads a lobby and renders the entry fee in display units of its
// fee asset.
func (s *ViewService) LobbyView(ctx context.Context, address string) (*comm.LobbyView, error) {
	lobby, err := s.engine.GetLobby(ctx, address)
	if err != nil {
		return nil, err
	}

	decimals := uint8(0)
	if asset, err := s.engine.GetAsset(ctx, lobby.Keys.FeeAsset); err == nil {
		decimals = asset.Decimals
	}

	occupied := 0
	for _, slot := range lobby.Racers {
		if slot != models.EmptySlot {
			occupied++
		}
	}

	return &comm.LobbyView{
		Lobby:    lobby,
		EntryFee: DisplayAmount(lobby.Data.EntryFee, decimals),
		Occupied: occupied,
	}, nil
}
