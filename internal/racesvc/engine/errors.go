package engine

import "errors"

// Failure classes mirror the settlement contract's error set. Every operation
// aborts atomically on the first error; nothing is partially committed.
var (
	ErrMathOverflow         = errors.New("math overflow")
	ErrInvalidTrack         = errors.New("invalid track asset")
	ErrUnauthorized         = errors.New("unauthorized signer")
	ErrUnauthorizedOwner    = errors.New("unauthorized track owner")
	ErrInvalidLobbyMetadata = errors.New("invalid lobby metadata")
	ErrInvalidStatsRecord   = errors.New("invalid stats record")
	ErrUnauthorizedRacer    = errors.New("unauthorized racer")
	ErrLobbyLocked          = errors.New("lobby account locked")
	ErrLobbyOccupied        = errors.New("lobby contains racers")
	ErrLobbyNotFull         = errors.New("lobby is not full")
	ErrLobbyFull            = errors.New("lobby is full")
	ErrVaultNotEmpty        = errors.New("lobby fee vault not empty")
	ErrInvalidVault         = errors.New("vault address does not match derivation")
	ErrInsufficientFee      = errors.New("insufficient entry fee balance")
	ErrInsufficientNetwork  = errors.New("insufficient network fee balance")
	ErrInvalidSlot          = errors.New("racer not in a lobby slot")
	ErrRaceStarted          = errors.New("race has already started")
	ErrRaceNotStarted       = errors.New("race has not started")
	ErrAlreadyRacing        = errors.New("racer already in a race")
	ErrRacerNotStale        = errors.New("racer is not stale")
	ErrInvalidFeePolicy     = errors.New("invalid entry fee policy")
	ErrNonFungibleFeeAsset  = errors.New("only fungible assets are allowed as entry fee")
	ErrInvalidCapacity      = errors.New("capacity cannot be less than 2")
	ErrMaintenance          = errors.New("maintenance mode turned on")

	ErrAssetNotFound    = errors.New("asset not found")
	ErrVaultNotFound    = errors.New("vault not found")
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrRacerNotFound    = errors.New("racer registration not found")
	ErrPolicyNotFound   = errors.New("entry fee policy not found")
	ErrSnapshotNotFound = errors.New("race snapshot not found")

	ErrAlreadyExists     = errors.New("record already exists")
	ErrSnapshotExists    = errors.New("race snapshot already cached")
	ErrInsufficientFunds = errors.New("insufficient vault balance")
)
