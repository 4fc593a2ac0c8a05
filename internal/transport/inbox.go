package transport

import (
	"context"
	"sync/atomic"
	"time"
)

// Message is one telemetry payload as received.
type Message struct {
	Source   string
	Topic    string
	Payload  []byte
	Received time.Time
}

// Inbox hands payloads from the transports to the ingestion worker. It holds at most
// one message: a newer payload replaces an unread older one, since only the latest
// telemetry matters.
type Inbox struct {
	ch       chan Message
	received atomic.Uint64
	dropped  atomic.Uint64
}

func NewInbox() *Inbox {
	return &Inbox{ch: make(chan Message, 1)}
}

// Put stores m, discarding any message not yet taken. It never blocks.
func (in *Inbox) Put(m Message) {
	in.received.Add(1)
	for {
		select {
		case in.ch <- m:
			return
		default:
		}
		select {
		case <-in.ch:
			in.dropped.Add(1)
		default:
		}
	}
}

// Take waits for the next message or for ctx to end.
func (in *Inbox) Take(ctx context.Context) (Message, error) {
	select {
	case m := <-in.ch:
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Counts reports how many messages were put and how many were replaced unread.
func (in *Inbox) Counts() (received, dropped uint64) {
	return in.received.Load(), in.dropped.Load()
}
