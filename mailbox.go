package trellis

import "sync"

// message pairs a weak reference to the target node with the operation to
// apply to it.
type message struct {
	target WeakPointer
	op     operation
}

// mailbox is the multi-producer, single-consumer queue between handles and
// the Hub. Sends append under a short lock and never wait for the consumer;
// the queue is unbounded so producers are never blocked by a slow frame.
type mailbox struct {
	mu     sync.Mutex
	queue  []message
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{queue: make([]message, 0, 64)}
}

// send enqueues msg. It fails with ErrHubClosed once the receiving Hub has
// been closed.
func (m *mailbox) send(msg message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrHubClosed
	}
	m.queue = append(m.queue, msg)
	return nil
}

// drain hands every queued message to the caller and resets the queue to the
// caller's spare buffer. It never waits for new messages.
func (m *mailbox) drain(spare []message) []message {
	m.mu.Lock()
	out := m.queue
	m.queue = spare[:0]
	m.mu.Unlock()
	return out
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.queue = nil
	m.mu.Unlock()
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
