// Package storagetest holds the behaviour every storage.Store must share,
// run by each backend's own tests.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/humzaiqbal/trash-tracker/internal/storage"
)

// Run exercises store against the storage.Store contract.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Set then Get round trips the document", func(t *testing.T) {
		doc := json.RawMessage(`[{"id":1,"name":"Main Street","people":["Carol"]}]`)
		if err := store.Set(ctx, storage.RoutesKey, doc); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, storage.RoutesKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !jsonEqual(t, doc, got) {
			t.Errorf("Get = %s, want %s", got, doc)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		key := storage.UserKey("bx_bob")
		if err := store.Set(ctx, key, json.RawMessage(`{"name":"Bob"}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Set(ctx, key, json.RawMessage(`{"name":"Robert"}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !jsonEqual(t, json.RawMessage(`{"name":"Robert"}`), got) {
			t.Errorf("Get = %s", got)
		}
	})

	t.Run("Subscribe receives later writes to its key only", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		changes, err := store.Subscribe(subCtx, storage.RoutesKey)
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}

		if err := store.Set(ctx, storage.UserKey("someone"), json.RawMessage(`{}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		doc := json.RawMessage(`[{"id":1,"name":"A","people":[]}]`)
		if err := store.Set(ctx, storage.RoutesKey, doc); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		select {
		case change := <-changes:
			if change.Key != storage.RoutesKey {
				t.Errorf("change key = %q", change.Key)
			}
			if change.Revision == "" {
				t.Error("expected a revision")
			}
			if !jsonEqual(t, doc, change.Value) {
				t.Errorf("change value = %s", change.Value)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no change delivered")
		}
	})

	t.Run("cancelled subscription closes", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(ctx)
		changes, err := store.Subscribe(subCtx, storage.RoutesKey)
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		cancel()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("subscription not closed after cancel")
			}
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func jsonEqual(t *testing.T, a, b json.RawMessage) bool {
	t.Helper()
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		t.Fatalf("unmarshal %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	ab, _ := json.Marshal(av)
	bb, _ := json.Marshal(bv)
	return string(ab) == string(bb)
}
