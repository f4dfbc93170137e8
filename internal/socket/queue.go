package socket

// enqueue appends a frame to the inbound FIFO queue and signals the
// dispatch loop.
func (m *Manager) enqueue(frame []byte) {
	m.queueMu.Lock()
	m.queue = append(m.queue, frame)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// ConsumeMessages atomically drains and returns the entire queue. Frames
// appended while the caller processes the batch land in a fresh queue and
// are picked up by the next drain, so nothing is processed twice and
// nothing is lost between drains.
func (m *Manager) ConsumeMessages() [][]byte {
	m.queueMu.Lock()
	frames := m.queue
	m.queue = nil
	m.queueMu.Unlock()
	return frames
}

// QueueLen reports the number of buffered frames.
func (m *Manager) QueueLen() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	return len(m.queue)
}

// Wake returns a channel that receives a signal whenever frames arrive.
// The signal is coalesced: one pending wakeup at most.
func (m *Manager) Wake() <-chan struct{} { return m.wake }
