package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const changeChannel = "kurikulum:changes"

// Notifier bridges the local change bus over Redis pub/sub so that every
// server instance sees writes issued by the others. Changes published locally
// are forwarded to Redis; changes received from Redis are re-injected into
// the local bus tagged with a sender ID to break the echo loop.
type Notifier struct {
	client *redis.Client
	bus    *Bus
	sender string
	cancel context.CancelFunc
	unsub  func()
}

type wireChange struct {
	Sender string `json:"sender"`
	Change Change `json:"change"`
}

// NewNotifier wires the bus to Redis and starts the receive loop.
func NewNotifier(ctx context.Context, client *redis.Client, bus *Bus) (*Notifier, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if bus == nil {
		return nil, fmt.Errorf("bus is nil")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		client: client,
		bus:    bus,
		sender: generateID(),
		cancel: cancel,
	}

	n.unsub = bus.Subscribe("", n.forward)

	sub := client.Subscribe(ctx, changeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		n.unsub()
		return nil, fmt.Errorf("subscribing to %s: %w", changeChannel, err)
	}

	go n.receive(runCtx, sub)
	return n, nil
}

// Close stops the receive loop and detaches from the bus.
func (n *Notifier) Close() {
	n.cancel()
	n.unsub()
}

func (n *Notifier) forward(change Change) {
	if change.remote {
		return
	}

	payload, err := json.Marshal(wireChange{Sender: n.sender, Change: change})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if err := n.client.Publish(ctx, changeChannel, payload).Err(); err != nil {
		slog.Warn("failed to publish change", "collection", change.Collection, "error", err)
	}
}

func (n *Notifier) receive(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var wc wireChange
			if err := json.Unmarshal([]byte(msg.Payload), &wc); err != nil {
				slog.Warn("ignoring malformed change payload", "error", err)
				continue
			}
			if wc.Sender == n.sender {
				continue
			}
			wc.Change.remote = true
			n.bus.Publish(wc.Change)
		}
	}
}
