package server

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ScoreEvent is the payload published to session subscribers.
type ScoreEvent struct {
	Type      string             `json:"type"`
	SessionID string             `json:"sessionId"`
	PlayerID  string             `json:"playerId,omitempty"`
	FieldID   string             `json:"fieldId,omitempty"`
	Totals    map[string]float64 `json:"totals,omitempty"`
}

const eventChannelPrefix = "scores."

// Broker is a pub/sub for score events, keyed by session ID. Without
// Redis it is purely in-process; with Redis every publish goes through
// a channel per session so edits land on subscribers of any instance.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
	rdb  *redis.Client
}

func NewBroker(rdb *redis.Client) *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
		rdb:  rdb,
	}
}

// Run pumps Redis messages to local subscribers until ctx is done.
// Without Redis there is nothing to pump.
func (b *Broker) Run(ctx context.Context) error {
	if b.rdb == nil {
		<-ctx.Done()
		return nil
	}

	sub := b.rdb.PSubscribe(ctx, eventChannelPrefix+"*")
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			sessionID := strings.TrimPrefix(msg.Channel, eventChannelPrefix)
			b.deliver(sessionID, []byte(msg.Payload))
		}
	}
}

// Subscribe returns a channel receiving JSON-encoded events for the
// given session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the session's subscribers.
func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the event's session.
func (b *Broker) Publish(ctx context.Context, event ScoreEvent) {
	data, _ := json.Marshal(event)
	if b.rdb != nil {
		// Local delivery happens via the Run subscription.
		b.rdb.Publish(ctx, eventChannelPrefix+event.SessionID, data)
		return
	}
	b.deliver(event.SessionID, data)
}

func (b *Broker) deliver(sessionID string, data []byte) {
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
