package coordinator

import "shelf/pkg/provider"

// EventKind identifies an Event.
type EventKind int

const (
	// EventStatusChanged is sent for every status change of a tracked record.
	EventStatusChanged EventKind = iota
	// EventOperationFinished is sent after an operation delivered its Result.
	EventOperationFinished
	// EventBackendUpdated is sent when a backend's bulk update concludes.
	EventBackendUpdated
)

// Event is a notification for presentation layers.
type Event struct {
	Kind    EventKind
	Record  provider.RecordView
	From    provider.Status
	To      provider.Status
	Result  Result
	Backend BackendResult
}

// Subscribe returns a channel of events and a function that cancels the
// subscription. Events are dropped while the channel buffer is full.
func (c *Coordinator) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subsMu.Unlock()

	return ch, func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

func (c *Coordinator) publish(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.log.Warn().Int("kind", int(ev.Kind)).Msg("subscriber full, event dropped")
		}
	}
}

func (c *Coordinator) publishStatus(r *provider.Record, from, to provider.Status) {
	c.publish(Event{Kind: EventStatusChanged, Record: r.View(), From: from, To: to})
}
