package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/humzaiqbal/trash-tracker/internal/storage"
)

// Watch streams the route list: the current value first, then one
// Snapshot per stored change. Corrupt documents are repaired in memory and
// flagged; nothing is written back here. The channel closes when ctx ends
// or the store stops delivering.
func (s *Synchronizer) Watch(ctx context.Context) (<-chan Snapshot, error) {
	// Subscribe before reading so a write between the two is not missed.
	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.store.Subscribe(ctx, storage.RoutesKey)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe routes: %w", err)
	}

	initial, err := s.snapshotNow(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer cancel()
		defer close(out)
		if !send(ctx, out, initial) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !send(ctx, out, s.snapshotOf(change.Value, change.Revision)) {
					return
				}
			}
		}
	}()
	return out, nil
}

// RunRepairLoop watches the route document and writes back a repair
// whenever a corrupt value shows up. It returns nil once ctx is cancelled.
func (s *Synchronizer) RunRepairLoop(ctx context.Context) error {
	snapshots, err := s.Watch(ctx)
	if err != nil {
		return err
	}
	slog.Info("Route repair loop started")
	for snap := range snapshots {
		if !snap.Repaired {
			continue
		}
		s.metrics.Repair("watch")
		if err := s.write(context.WithoutCancel(ctx), snap.Routes); err != nil {
			slog.Error("Failed to write repaired route document", "error", err, "revision", snap.Revision)
			continue
		}
		slog.Warn("Repaired corrupt route document", "revision", snap.Revision, "routes", len(snap.Routes))
	}
	if ctx.Err() != nil {
		slog.Info("Route repair loop stopped")
		return nil
	}
	return errors.New("route change feed closed")
}

func (s *Synchronizer) snapshotNow(ctx context.Context) (Snapshot, error) {
	raw, err := s.store.Get(ctx, storage.RoutesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Snapshot{Routes: s.Catalog()}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read routes: %w", err)
	}
	return s.snapshotOf(raw, ""), nil
}

func (s *Synchronizer) snapshotOf(raw json.RawMessage, revision string) Snapshot {
	if s.DetectCorruption(raw) {
		return Snapshot{Routes: s.Repair(raw), Revision: revision, Repaired: true}
	}
	return Snapshot{Routes: s.normalize(raw), Revision: revision}
}

func send(ctx context.Context, out chan<- Snapshot, snap Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
