// Package memstore is an in-memory implementation of the engine storage
// interfaces. Atomic clones the whole state, runs the unit of work against
// the clone and swaps it in only on success, so rollback-on-error behaves
// like the transactional backend.
package memstore

import (
	"context"
	"sync"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/ledger"
	"github.com/avvvet/race-services/internal/racesvc/models"
)

type state struct {
	policies map[string]*models.EntryFeePolicy
	lobbies  map[string]*models.Lobby
	racers   map[string]*models.RacerRegistration
	assets   map[string]*models.Asset
	vaults   map[string]*models.Vault
}

func newState() *state {
	return &state{
		policies: map[string]*models.EntryFeePolicy{},
		lobbies:  map[string]*models.Lobby{},
		racers:   map[string]*models.RacerRegistration{},
		assets:   map[string]*models.Asset{},
		vaults:   map[string]*models.Vault{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.policies {
		p := *v
		c.policies[k] = &p
	}
	for k, v := range s.lobbies {
		l := *v
		l.Racers = append([]string(nil), v.Racers...)
		c.lobbies[k] = &l
	}
	for k, v := range s.racers {
		r := *v
		c.racers[k] = &r
	}
	for k, v := range s.assets {
		a := *v
		a.Creators = append([]models.Creator(nil), v.Creators...)
		c.assets[k] = &a
	}
	for k, v := range s.vaults {
		vt := *v
		c.vaults[k] = &vt
	}
	return c
}

// Store holds the whole race state in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

// Atomic runs fn against a clone of the state and commits the clone when fn
// succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx engine.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// PutAsset seeds an asset definition.
func (s *Store) PutAsset(a *models.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	cp.Creators = append([]models.Creator(nil), a.Creators...)
	s.st.assets[a.ID] = &cp
}

// FundVault seeds the canonical vault for (owner, asset) with a balance,
// creating it when missing. Returns the vault address.
func (s *Store) FundVault(owner, asset string, balance uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	address := ledger.VaultAddress(owner, asset)
	v, ok := s.st.vaults[address]
	if !ok {
		v = &models.Vault{Address: address, Owner: owner, Asset: asset}
		s.st.vaults[address] = v
	}
	v.Balance = balance
	return address
}

// Balance returns the balance of a vault, zero when missing.
func (s *Store) Balance(address string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.st.vaults[address]; ok {
		return v.Balance
	}
	return 0
}

type memTx struct {
	st *state
}

func (t *memTx) Policies() engine.PolicyRepo { return &policyRepo{t.st} }
func (t *memTx) Lobbies() engine.LobbyRepo   { return &lobbyRepo{t.st} }
func (t *memTx) Racers() engine.RacerRepo    { return &racerRepo{t.st} }
func (t *memTx) Assets() engine.AssetRepo    { return &assetRepo{t.st} }
func (t *memTx) Vaults() engine.VaultRepo    { return &vaultRepo{t.st} }

type policyRepo struct{ st *state }

func (r *policyRepo) Get(ctx context.Context, feeAsset string) (*models.EntryFeePolicy, error) {
	p, ok := r.st.policies[feeAsset]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *policyRepo) Put(ctx context.Context, policy *models.EntryFeePolicy) error {
	cp := *policy
	r.st.policies[policy.FeeAsset] = &cp
	return nil
}

func (r *policyRepo) Delete(ctx context.Context, feeAsset string) error {
	delete(r.st.policies, feeAsset)
	return nil
}

type lobbyRepo struct{ st *state }

func (r *lobbyRepo) Get(ctx context.Context, address string) (*models.Lobby, error) {
	l, ok := r.st.lobbies[address]
	if !ok {
		return nil, nil
	}
	cp := *l
	cp.Racers = append([]string(nil), l.Racers...)
	return &cp, nil
}

func (r *lobbyRepo) Create(ctx context.Context, lobby *models.Lobby) error {
	if _, ok := r.st.lobbies[lobby.Address]; ok {
		return engine.ErrAlreadyExists
	}
	return r.put(lobby)
}

func (r *lobbyRepo) Update(ctx context.Context, lobby *models.Lobby) error {
	if _, ok := r.st.lobbies[lobby.Address]; !ok {
		return engine.ErrLobbyNotFound
	}
	return r.put(lobby)
}

func (r *lobbyRepo) put(lobby *models.Lobby) error {
	cp := *lobby
	cp.Racers = append([]string(nil), lobby.Racers...)
	r.st.lobbies[lobby.Address] = &cp
	return nil
}

func (r *lobbyRepo) Delete(ctx context.Context, address string) error {
	delete(r.st.lobbies, address)
	return nil
}

type racerRepo struct{ st *state }

func (r *racerRepo) Get(ctx context.Context, address string) (*models.RacerRegistration, error) {
	rr, ok := r.st.racers[address]
	if !ok {
		return nil, nil
	}
	cp := *rr
	return &cp, nil
}

func (r *racerRepo) Create(ctx context.Context, racer *models.RacerRegistration) error {
	if _, ok := r.st.racers[racer.Address]; ok {
		return engine.ErrAlreadyExists
	}
	cp := *racer
	r.st.racers[racer.Address] = &cp
	return nil
}

func (r *racerRepo) Update(ctx context.Context, racer *models.RacerRegistration) error {
	if _, ok := r.st.racers[racer.Address]; !ok {
		return engine.ErrRacerNotFound
	}
	cp := *racer
	r.st.racers[racer.Address] = &cp
	return nil
}

func (r *racerRepo) Delete(ctx context.Context, address string) error {
	delete(r.st.racers, address)
	return nil
}

func (r *racerRepo) ListJoinedBefore(ctx context.Context, cutoff uint64) ([]*models.RacerRegistration, error) {
	var out []*models.RacerRegistration
	for _, rr := range r.st.racers {
		if rr.JoinedAt > 0 && rr.JoinedAt <= cutoff {
			cp := *rr
			out = append(out, &cp)
		}
	}
	return out, nil
}

type assetRepo struct{ st *state }

func (r *assetRepo) Get(ctx context.Context, id string) (*models.Asset, error) {
	a, ok := r.st.assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Creators = append([]models.Creator(nil), a.Creators...)
	return &cp, nil
}

type vaultRepo struct{ st *state }

func (r *vaultRepo) Get(ctx context.Context, address string) (*models.Vault, error) {
	v, ok := r.st.vaults[address]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *vaultRepo) Create(ctx context.Context, owner, asset string) (*models.Vault, error) {
	address := ledger.VaultAddress(owner, asset)
	if _, ok := r.st.vaults[address]; ok {
		return nil, engine.ErrAlreadyExists
	}
	v := &models.Vault{Address: address, Owner: owner, Asset: asset}
	r.st.vaults[address] = v
	cp := *v
	return &cp, nil
}

func (r *vaultRepo) Transfer(ctx context.Context, from, to string, amount uint64) error {
	src, ok := r.st.vaults[from]
	if !ok {
		return engine.ErrVaultNotFound
	}
	dst, ok := r.st.vaults[to]
	if !ok {
		return engine.ErrVaultNotFound
	}
	if src.Asset != dst.Asset {
		return engine.ErrInvalidVault
	}
	if src.Balance < amount {
		return engine.ErrInsufficientFunds
	}
	src.Balance -= amount
	dst.Balance += amount
	return nil
}

func (r *vaultRepo) Close(ctx context.Context, address string) error {
	v, ok := r.st.vaults[address]
	if !ok {
		return engine.ErrVaultNotFound
	}
	if v.Balance != 0 {
		return engine.ErrVaultNotEmpty
	}
	delete(r.st.vaults, address)
	return nil
}
