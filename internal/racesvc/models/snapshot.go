package models

import "time"

// RaceSnapshot is the immutable audit record of one race instance, captured
// at race start. Keyed by (StartedAt, Lobby, Winner); written at most once.
type RaceSnapshot struct {
	StartedAt  uint64    `bson:"race_started_at" json:"race_started_at"` // unix seconds
	Lobby      string    `bson:"lobby" json:"lobby"`
	Winner     string    `bson:"winner" json:"winner"` // winner racer registration address
	FeeAsset   string    `bson:"fee_asset" json:"fee_asset"`
	TrackAsset string    `bson:"track_asset" json:"track_asset"`
	TrackOwner string    `bson:"track_owner" json:"track_owner"`
	EntryFee   uint64    `bson:"entry_fee" json:"entry_fee"` // fee at race start
	Racers     []string  `bson:"racers" json:"racers"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
