package feed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/humzaiqbal/trash-tracker/internal/storage"
)

func change(key, value string) storage.Change {
	return storage.Change{Key: key, Value: json.RawMessage(value), Revision: value}
}

func TestPublishReachesSubscribersOfKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New()
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	routes := b.Subscribe(ctx, "routes")
	users := b.Subscribe(ctx, "users/bob")

	b.Publish(change("routes", `[1]`))

	select {
	case got := <-routes:
		if got.Revision != `[1]` {
			t.Errorf("revision = %q", got.Revision)
		}
	case <-time.After(time.Second):
		t.Fatal("routes subscriber got nothing")
	}
	select {
	case got := <-users:
		t.Fatalf("users subscriber got %+v", got)
	default:
	}
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New(WithSubscriberCapacity(2))
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := b.Subscribe(ctx, "routes")
	for _, v := range []string{`1`, `2`, `3`, `4`} {
		b.Publish(change("routes", v))
	}

	first, second := <-ch, <-ch
	if first.Revision != `3` || second.Revision != `4` {
		t.Errorf("got %s,%s; want 3,4", first.Revision, second.Revision)
	}
}

func TestCancelClosesChannel(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New()
	defer b.Close()
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx, "routes")
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if n := b.Subscribers("routes"); n != 0 {
		t.Errorf("Subscribers() = %d after cancel", n)
	}
	b.Publish(change("routes", `1`))
}

func TestCloseEndsSubscriptions(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New()
	ch := b.Subscribe(context.Background(), "routes")
	b.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after Close")
	}
	late := b.Subscribe(context.Background(), "routes")
	if _, ok := <-late; ok {
		t.Fatal("subscription after Close should be closed")
	}
}
