package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives every published event synchronously on the publisher's
// goroutine. Implementations must return quickly and swallow their own
// failures.
type Sink interface {
	Consume(event SecurityEvent)
}

// Bus fans stage decisions out to subscriber channels and the Sink list.
// Sends to subscribers never block: a full channel drops the event, and a
// subscriber that stays full long enough is evicted and its channel closed.
type Bus struct {
	mu          sync.Mutex
	subscribers []*subscriber
	sinks       []Sink
	closed      bool

	buffer     int
	evictAfter int

	published atomic.Uint64
	dropped   atomic.Uint64
	evicted   atomic.Uint64

	log *zap.Logger
}

type subscriber struct {
	ch    chan SecurityEvent
	drops int // consecutive full-buffer sends
}

// BusOption is a functional option for configuring a Bus.
type BusOption func(*Bus)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithEvictAfter sets how many consecutive dropped sends a subscriber
// survives before it is evicted.
func WithEvictAfter(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.evictAfter = n
		}
	}
}

// NewBus creates an event bus. A nil logger disables bus logging.
func NewBus(log *zap.Logger, opts ...BusOption) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{
		buffer:     64,
		evictAfter: 32,
		log:        log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddSink registers a synchronous consumer for every published event.
func (b *Bus) AddSink(s Sink) {
	if s == nil {
		return
	}
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// Subscribe returns a channel receiving every event published after the
// call. The channel is closed on Unsubscribe, eviction, or bus Close.
func (b *Bus) Subscribe() <-chan SecurityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan SecurityEvent, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, &subscriber{ch: ch})
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan SecurityEvent) {
	if ch == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub.ch == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Publish stamps the event with an id, a UTC timestamp, and an empty
// metadata map where missing, then delivers it to every sink and
// subscriber. The stamped event is returned.
func (b *Bus) Publish(ev SecurityEvent) SecurityEvent {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}

	b.published.Add(1)

	b.mu.Lock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.Unlock()
	for _, s := range sinks {
		s.Consume(ev)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ev
	}

	kept := b.subscribers[:0]
	for _, sub := range b.subscribers {
		select {
		case sub.ch <- ev:
			sub.drops = 0
			kept = append(kept, sub)
		default:
			sub.drops++
			b.dropped.Add(1)
			if sub.drops >= b.evictAfter {
				close(sub.ch)
				b.evicted.Add(1)
				b.log.Warn("evicting stalled event subscriber",
					zap.Int("consecutive_drops", sub.drops))
				continue
			}
			kept = append(kept, sub)
		}
	}
	for i := len(kept); i < len(b.subscribers); i++ {
		b.subscribers[i] = nil
	}
	b.subscribers = kept

	return ev
}

// Close evicts all subscribers and rejects future ones. Publishing after
// Close still feeds sinks.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subscribers {
		close(sub.ch)
	}
	b.subscribers = nil
}

// Stats returns current bus counters.
func (b *Bus) Stats() BusStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BusStats{
		Subscribers: len(b.subscribers),
		Sinks:       len(b.sinks),
		Published:   b.published.Load(),
		Dropped:     b.dropped.Load(),
		Evicted:     b.evicted.Load(),
	}
}

// BusStats holds event bus counters.
type BusStats struct {
	Subscribers int    `json:"subscribers"`
	Sinks       int    `json:"sinks"`
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
	Evicted     uint64 `json:"evicted"`
}
