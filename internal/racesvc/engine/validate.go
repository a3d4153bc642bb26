package engine

import (
	"strings"

	"github.com/avvvet/race-services/internal/racesvc/models"
)

// isTrackValid whitelists genesis track assets: the descriptive record must
// carry a verified attestation from the fixed track creator and the required
// marker in its name.
func (e *Engine) isTrackValid(asset *models.Asset) bool {
	if !asset.HasVerifiedCreator(e.cfg.TrackCreator) {
		return false
	}
	return strings.Contains(asset.Name, e.cfg.TrackNameMarker)
}

// isLobbyMetadataValid checks the session metadata against the fee policy of
// the lobby's class.
func isLobbyMetadataValid(data *models.LobbyData, policy *models.EntryFeePolicy) bool {
	minFee, maxFee := policy.Bounds(data.MinClass)

	return len(data.Name) >= 5 && len(data.Name) <= 32 &&
		len(data.Location) >= 5 && len(data.Location) <= 32 &&
		data.EntryFee >= minFee && data.EntryFee <= maxFee &&
		data.MinClass >= 1 && data.MinClass <= 5 &&
		data.TotalLaps >= 1 && data.TotalLaps < 5 &&
		isTrackVariant(data.TrackVariant)
}

func isTrackVariant(v string) bool {
	switch v {
	case models.TrackDirt, models.TrackSpace, models.TrackPavement, models.TrackSand:
		return true
	}
	return false
}

// fillEmptySlots returns a fresh all-empty racer sequence.
func fillEmptySlots(capacity uint8) []string {
	return make([]string, capacity)
}

// findSlot returns the lowest slot index holding target, or -1. Pass
// models.EmptySlot to find the first vacant slot.
func findSlot(racers []string, target string) int {
	for i, r := range racers {
		if r == target {
			return i
		}
	}
	return -1
}

// hasEmptySlot reports whether at least one slot is vacant.
func hasEmptySlot(racers []string) bool {
	return findSlot(racers, models.EmptySlot) >= 0
}

// isVacant reports whether every slot is empty.
func isVacant(racers []string) bool {
	for _, r := range racers {
		if r != models.EmptySlot {
			return false
		}
	}
	return true
}

// validatePolicy enforces a positive floor and strictly increasing class
// ceilings; the ordering is never repaired, a bad write is rejected whole.
func validatePolicy(p *models.EntryFeePolicy) error {
	if p.MinFee == 0 {
		return ErrInvalidFeePolicy
	}
	ceilings := []uint64{p.MinFee, p.MaxClass1Fee, p.MaxClass2Fee, p.MaxClass3Fee, p.MaxClass4Fee, p.MaxClass5Fee}
	for i := 1; i < len(ceilings); i++ {
		if ceilings[i] <= ceilings[i-1] {
			return ErrInvalidFeePolicy
		}
	}
	return nil
}
