package server

import (
	"context"
	"encoding/json"
	"testing"
)

func TestBrokerPublishReachesSessionSubscribers(t *testing.T) {
	b := NewBroker(nil)

	ch1 := b.Subscribe("s1")
	ch2 := b.Subscribe("s1")
	other := b.Subscribe("s2")

	b.Publish(context.Background(), ScoreEvent{
		Type:      "totals_updated",
		SessionID: "s1",
		PlayerID:  "p1",
		Totals:    map[string]float64{"p1": 5},
	})

	for _, ch := range []chan []byte{ch1, ch2} {
		select {
		case data := <-ch:
			var ev ScoreEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("decoding event: %v", err)
			}
			if ev.Type != "totals_updated" || ev.SessionID != "s1" || ev.Totals["p1"] != 5 {
				t.Errorf("unexpected event: %+v", ev)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	select {
	case data := <-other:
		t.Fatalf("subscriber of another session received %s", data)
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker(nil)

	ch := b.Subscribe("s1")
	b.Unsubscribe("s1", ch)

	b.Publish(context.Background(), ScoreEvent{Type: "totals_updated", SessionID: "s1"})

	select {
	case data := <-ch:
		t.Fatalf("unsubscribed channel received %s", data)
	default:
	}
}

func TestBrokerDropsSlowSubscribers(t *testing.T) {
	b := NewBroker(nil)

	ch := b.Subscribe("s1")
	// Fill the buffer past capacity; extra events are dropped rather
	// than blocking the publisher.
	for i := 0; i < cap(ch)+5; i++ {
		b.Publish(context.Background(), ScoreEvent{Type: "totals_updated", SessionID: "s1"})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered %d events, want %d", got, cap(ch))
	}
}
