package job

import "github.com/google/uuid"

// EventType names a change in the job collection.
type EventType string

const (
	EventAdded   EventType = "added"
	EventUpdated EventType = "updated"
	EventRemoved EventType = "removed"
	EventReset   EventType = "reset"
	EventError   EventType = "error"
)

// Event is published to subscribers after each change.
type Event struct {
	Type  EventType
	JobID uuid.UUID
	Job   *Job // snapshot after the change; nil for removed and reset
	Error string
}

const subscriberBuffer = 64

// Subscribe returns a channel receiving every subsequent event and a func
// that ends the subscription. Slow subscribers miss events rather than
// stall the manager.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
		m.subMu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) publish(evt Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- evt:
		default:
			m.logger.Debug("subscriber lagging, event dropped", "type", evt.Type, "job_id", evt.JobID)
		}
	}
}
