package redisstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/humzaiqbal/trash-tracker/internal/storage"
	"github.com/humzaiqbal/trash-tracker/internal/storage/storagetest"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	storagetest.Run(t, store)
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("not a url"); err == nil {
		t.Fatal("expected error for malformed url")
	}
}

func TestDocumentsArePrefixed(t *testing.T) {
	store, s := setupTestRedis(t)

	if err := store.Set(context.Background(), storage.RoutesKey, json.RawMessage(`[]`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get("board:routes")
	if err != nil {
		t.Fatalf("miniredis Get failed: %v", err)
	}
	if got != `[]` {
		t.Errorf("stored value = %q", got)
	}
}

func TestGetReadsValuesWrittenByOtherClients(t *testing.T) {
	store, s := setupTestRedis(t)

	// A legacy writer that stored people as bare strings.
	if err := s.Set("board:routes", `[{"id":1,"name":"Main Street","people":["Carol"]}]`); err != nil {
		t.Fatalf("miniredis Set failed: %v", err)
	}
	got, err := store.Get(context.Background(), storage.RoutesKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `[{"id":1,"name":"Main Street","people":["Carol"]}]` {
		t.Errorf("Get = %s", got)
	}
}

func TestPingAfterServerStops(t *testing.T) {
	store, s := setupTestRedis(t)
	s.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail after server stops")
	}
}
