package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/avvvet/race-services/internal/racesvc/engine"
	"github.com/avvvet/race-services/internal/racesvc/models"
)

// Snapshots is an in-memory snapshot archive with the same write-once key
// semantics as the mongo backed one.
type Snapshots struct {
	mu   sync.Mutex
	byID map[string]*models.RaceSnapshot
}

func NewSnapshots() *Snapshots {
	return &Snapshots{byID: map[string]*models.RaceSnapshot{}}
}

func snapshotKey(startedAt uint64, lobby, winner string) string {
	return fmt.Sprintf("%d/%s/%s", startedAt, lobby, winner)
}

func (s *Snapshots) Create(ctx context.Context, snap *models.RaceSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := snapshotKey(snap.StartedAt, snap.Lobby, snap.Winner)
	if _, ok := s.byID[key]; ok {
		return engine.ErrSnapshotExists
	}
	cp := *snap
	cp.Racers = append([]string(nil), snap.Racers...)
	s.byID[key] = &cp
	return nil
}

func (s *Snapshots) Get(ctx context.Context, startedAt uint64, lobby, winner string) (*models.RaceSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byID[snapshotKey(startedAt, lobby, winner)]
	if !ok {
		return nil, nil
	}
	cp := *snap
	cp.Racers = append([]string(nil), snap.Racers...)
	return &cp, nil
}

func (s *Snapshots) Delete(ctx context.Context, startedAt uint64, lobby, winner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, snapshotKey(startedAt, lobby, winner))
	return nil
}
