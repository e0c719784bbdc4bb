package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-subscription queue length used when none is configured.
const DefaultBuffer = 64

// Event is one inserted row on a named relation. Row keeps the column names
// of the table (snake_case) so filters can address them directly.
type Event struct {
	Table string          `json:"table"`
	Row   json.RawMessage `json:"row"`
}

// NewEvent marshals row into an Event for table.
func NewEvent(table string, row interface{}) (Event, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s row: %w", table, err)
	}
	return Event{Table: table, Row: data}, nil
}

// Decode unmarshals the row into v.
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Row, v)
}

// Filter is an equality predicate on one column. The zero Filter matches every row.
type Filter struct {
	Column string
	Value  string
}

// Eq builds a Filter for column = value.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

func (f Filter) matches(row map[string]interface{}) bool {
	if f.Column == "" {
		return true
	}
	v, ok := row[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

// Publisher accepts inserted rows. Both Broker and test doubles implement it.
type Publisher interface {
	Publish(ev Event)
}

// Subscriber opens filtered subscriptions on a relation.
type Subscriber interface {
	Subscribe(relation string, filter Filter) *Subscription
}

// Subscription delivers matching events on C until Close is called.
type Subscription struct {
	C <-chan Event

	ch       chan Event
	relation string
	filter   Filter
	broker   *Broker
	once     sync.Once
}

// Close releases the subscription and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

// Broker fans inserted rows out to subscribers of the same relation.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger zerolog.Logger
}

// NewBroker creates a Broker. A buffer of zero or less uses DefaultBuffer.
func NewBroker(logger zerolog.Logger, buffer int) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers interest in inserts on relation that satisfy filter.
func (b *Broker) Subscribe(relation string, filter Filter) *Subscription {
	ch := make(chan Event, b.buffer)
	sub := &Subscription{
		C:        ch,
		ch:       ch,
		relation: relation,
		filter:   filter,
		broker:   b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[relation]; !ok {
		b.subs[relation] = make(map[*Subscription]struct{})
	}
	b.subs[relation][sub] = struct{}{}

	b.logger.Debug().
		Str("relation", relation).
		Str("filterColumn", filter.Column).
		Str("filterValue", filter.Value).
		Msg("Subscription opened")
	return sub
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subs[sub.relation]; ok {
		if _, ok := subs[sub]; ok {
			delete(subs, sub)
			close(sub.ch)
			if len(subs) == 0 {
				delete(b.subs, sub.relation)
			}
		}
	}
	b.logger.Debug().Str("relation", sub.relation).Msg("Subscription closed")
}

// Publish delivers ev to every matching subscriber without blocking.
// A subscriber whose queue is full misses the event.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs, ok := b.subs[ev.Table]
	if !ok || len(subs) == 0 {
		return
	}

	var row map[string]interface{}
	if err := json.Unmarshal(ev.Row, &row); err != nil {
		b.logger.Error().Err(err).Str("relation", ev.Table).Msg("Dropping undecodable row event")
		return
	}

	for sub := range subs {
		if !sub.filter.matches(row) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn().
				Str("relation", ev.Table).
				Str("filterValue", sub.filter.Value).
				Msg("Skipped slow subscriber")
		}
	}
}

// SubscriberCount returns the number of open subscriptions on relation.
func (b *Broker) SubscriberCount(relation string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[relation])
}
