package statebus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/checkin"
	"github.com/fossasia/eventyay-checkin/internal/clock"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func subscribe(t *testing.T, rdb *redis.Client, channel string) *redis.PubSub {
	t.Helper()
	sub := rdb.Subscribe(context.Background(), channel)
	t.Cleanup(func() { sub.Close() })
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe confirmation: %v", err)
	}
	return sub
}

func receiveState(t *testing.T, sub *redis.PubSub) checkin.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("ReceiveMessage: %v", err)
	}
	var st checkin.State
	if err := json.Unmarshal([]byte(msg.Payload), &st); err != nil {
		t.Fatalf("payload is not a state: %v (%s)", err, msg.Payload)
	}
	return st
}

// ── StateChanged ──────────────────────────────────────────────────────────────

func TestStateChanged_PublishesJSON(t *testing.T) {
	_, rdb := newTestRedis(t)
	p := NewPublisher(rdb, "", zap.NewNop())
	if p.Channel() != DefaultChannel {
		t.Fatalf("Channel: got %q", p.Channel())
	}
	sub := subscribe(t, rdb, DefaultChannel)

	p.StateChanged(checkin.State{
		Status:   checkin.StatusSuccess,
		Message:  &checkin.Message{Text: "Check-in successful!", Attendee: "Jane Doe"},
		BadgeURL: "/b/1",
	})

	st := receiveState(t, sub)
	if st.Status != checkin.StatusSuccess || st.BadgeURL != "/b/1" {
		t.Errorf("state: %+v", st)
	}
	if st.Message == nil || st.Message.Attendee != "Jane Doe" {
		t.Errorf("message: %+v", st.Message)
	}
}

func TestStateChanged_AsSessionObserver(t *testing.T) {
	_, rdb := newTestRedis(t)
	p := NewPublisher(rdb, "kiosk:1", zap.NewNop())
	sub := subscribe(t, rdb, "kiosk:1")

	s := checkin.NewSession(clock.NewRecorder(time.Unix(0, 0)))
	s.Subscribe(p)
	s.Reset()

	if st := receiveState(t, sub); st.Status != checkin.StatusIdle {
		t.Errorf("Status: got %q want idle", st.Status)
	}
}

func TestStateChanged_StoresNothing(t *testing.T) {
	mr, rdb := newTestRedis(t)
	NewPublisher(rdb, "", zap.NewNop()).StateChanged(checkin.State{Status: checkin.StatusIdle})

	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("keys written: %v", keys)
	}
}

func TestStateChanged_RedisDownDoesNotPanic(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	// Must return without blocking past the publish timeout.
	done := make(chan struct{})
	go func() {
		NewPublisher(rdb, "", zap.NewNop()).StateChanged(checkin.State{Status: checkin.StatusError})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("StateChanged blocked with Redis down")
	}
}
