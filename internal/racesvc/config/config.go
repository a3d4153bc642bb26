package config

import (
	"os"
	"strconv"
)

// Params is the immutable set of fixed system parameters every engine
// operation reads: privileged identities, well known asset identities and the
// fee/time constants. Loaded once at startup and injected into the engine.
type Params struct {
	Authority       string // privileged settlement signer
	Treasury        string // network fee destination
	NativeAsset     string // native wrapped asset identity
	RaceTokenAsset  string // platform fee token identity
	TrackCreator    string // required verified creator on track assets
	TrackNameMarker string // required marker inside a track asset name

	NetworkFee     uint64 // flat network fee per seat, base units
	TrackOwnerPct  uint64 // track owner settlement share, percent
	StaleCooldown  uint64 // seconds since join before a racer is stale
	CloseCooldown  uint64 // seconds a new lobby stays locked against closure
	Maintenance    bool   // gates non admin entry points when set
}

// Load reads Params from the environment, falling back to the fixed defaults.
func Load() Params {
	return Params{
		Authority:       getEnv("RACE_AUTHORITY", "a9f1c3cdd24b53f9775b2be04d1e14b9630cc71f3f1b2b80dd0cb5ae07ba1c11"),
		Treasury:        getEnv("RACE_TREASURY", "5bc2a78a8f3a83f20b8e67c3107a7e4a2b1c81a9276cb3de56c6f2a33c70cd42"),
		NativeAsset:     getEnv("NATIVE_ASSET", "native-wrapped-asset"),
		RaceTokenAsset:  getEnv("RACE_TOKEN_ASSET", "race-track-token"),
		TrackCreator:    getEnv("TRACK_VERIFIED_CREATOR", "1f64a0e83c9a25dc5a67b25b8c07a9d7e84b1f0931a6cf5b0f8736b2de81a904"),
		TrackNameMarker: getEnv("TRACK_NAME_MARKER", "Genesis Track"),
		NetworkFee:      getEnvUint("NETWORK_FEE", 10_000_000),
		TrackOwnerPct:   getEnvUint("TRACK_OWNER_PCT", 20),
		StaleCooldown:   getEnvUint("STALE_COOLDOWN_SEC", 60*30),
		CloseCooldown:   getEnvUint("CLOSE_COOLDOWN_SEC", 60*60*24),
		Maintenance:     os.Getenv("MAINTENANCE_MODE") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
