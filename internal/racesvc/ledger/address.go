package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Derive computes a deterministic address from a seed tuple. The same tuple
// always yields the same address, so derived addresses double as an implicit
// capability check: a supplied account is canonical iff it matches the
// derivation for its owner and context.
func Derive(prefix string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(prefix))
	for _, p := range parts {
		h.Write([]byte{0}) // seed separator
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LobbyAddress derives the lobby account address for an owner and track asset.
func LobbyAddress(owner, trackAsset string) string {
	return Derive("lobby", owner, trackAsset)
}

// RacerAddress derives the racer registration address for a racer asset and
// its companion stats record.
func RacerAddress(asset, statsRecord string) string {
	return Derive("racer", asset, statsRecord)
}

// VaultAddress derives the canonical vault address for (owner, asset).
func VaultAddress(owner, asset string) string {
	return Derive("vault", owner, asset)
}

// StatsRecordAddress derives the companion program's stats record address for
// an asset initialized under ownerAuthority.
func StatsRecordAddress(ownerAuthority, asset string) string {
	return Derive("stats", ownerAuthority, asset)
}

// SnapshotAddress derives the race snapshot key address.
func SnapshotAddress(startedAt uint64, lobby, winner string) string {
	return Derive("racedata", strconv.FormatUint(startedAt, 10), lobby, winner)
}
