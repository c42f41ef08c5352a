package loopback

import "sync"

// mailbox runs posted tasks one at a time, in order, on its own goroutine.
// Every event of a transport's connections goes through its mailbox, so
// delivery is asynchronous to the sender and ordered per endpoint.
type mailbox struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	quit  bool
}

func newMailbox() *mailbox {
	m := &mailbox{wake: make(chan struct{}, 1)}
	go m.run()
	return m
}

func (m *mailbox) post(f func()) {
	m.mu.Lock()
	if m.quit {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, f)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// stop lets already posted tasks drain, then ends the goroutine.
func (m *mailbox) stop() {
	m.post(func() {
		m.mu.Lock()
		m.quit = true
		m.queue = nil
		m.mu.Unlock()
	})
}

func (m *mailbox) run() {
	for range m.wake {
		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				quit := m.quit
				m.mu.Unlock()
				if quit {
					return
				}
				break
			}
			f := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			f()
		}
	}
}
