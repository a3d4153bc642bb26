package models

// Creator is one attestation entry on an asset's descriptive record.
type Creator struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// Asset is a ledger asset definition. Track assets have Supply == 1,
// fee assets are fungible (Supply > 1).
type Asset struct {
	ID       string    `json:"id"` // asset identity, primary key
	Name     string    `json:"name"`
	Supply   uint64    `json:"supply"`
	Decimals uint8     `json:"decimals"`
	Creators []Creator `json:"creators"`
}

// HasVerifiedCreator reports whether the asset record carries a verified
// attestation from the given identity.
func (a *Asset) HasVerifiedCreator(address string) bool {
	for _, c := range a.Creators {
		if c.Address == address && c.Verified {
			return true
		}
	}
	return false
}
