package models

import "time"

// EntryFeePolicy holds the admin governed entry fee bounds for one fee asset.
// MinFee is the floor for every class, MaxClassNFee is the ceiling for class N.
type EntryFeePolicy struct {
	FeeAsset     string    `json:"fee_asset"` // fee asset identity, primary key
	MinFee       uint64    `json:"min_fee"`
	MaxClass1Fee uint64    `json:"max_class_1_fee"`
	MaxClass2Fee uint64    `json:"max_class_2_fee"`
	MaxClass3Fee uint64    `json:"max_class_3_fee"`
	MaxClass4Fee uint64    `json:"max_class_4_fee"`
	MaxClass5Fee uint64    `json:"max_class_5_fee"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Bounds returns the fee floor and ceiling for a track class.
// Unknown classes fall back to the class 1 ceiling.
func (p *EntryFeePolicy) Bounds(class uint8) (uint64, uint64) {
	switch class {
	case 1:
		return p.MinFee, p.MaxClass1Fee
	case 2:
		return p.MinFee, p.MaxClass2Fee
	case 3:
		return p.MinFee, p.MaxClass3Fee
	case 4:
		return p.MinFee, p.MaxClass4Fee
	case 5:
		return p.MinFee, p.MaxClass5Fee
	default:
		return p.MinFee, p.MaxClass1Fee
	}
}
