package core

import "sync"

// ConnEvents is the latched event set shared by PeerConn implementations.
type ConnEvents struct {
	mu      sync.Mutex
	opened  bool
	closed  bool
	err     error
	onOpen  func()
	onData  func([]byte)
	onClose func()
	onError func(error)
}

func (e *ConnEvents) OnOpen(fn func()) {
	e.mu.Lock()
	e.onOpen = fn
	fire := e.opened && !e.closed
	e.mu.Unlock()
	if fire && fn != nil {
		fn()
	}
}

func (e *ConnEvents) OnData(fn func([]byte)) {
	e.mu.Lock()
	e.onData = fn
	e.mu.Unlock()
}

func (e *ConnEvents) OnClose(fn func()) {
	e.mu.Lock()
	e.onClose = fn
	fire := e.closed && e.err == nil
	e.mu.Unlock()
	if fire && fn != nil {
		fn()
	}
}

func (e *ConnEvents) OnError(fn func(error)) {
	e.mu.Lock()
	e.onError = fn
	err := e.err
	e.mu.Unlock()
	if err != nil && fn != nil {
		fn(err)
	}
}

// IsOpen reports whether the connection opened and has not closed since.
func (e *ConnEvents) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened && !e.closed
}

func (e *ConnEvents) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// FireOpen is a no-op after the first call or after close.
func (e *ConnEvents) FireOpen() {
	e.mu.Lock()
	if e.opened || e.closed {
		e.mu.Unlock()
		return
	}
	e.opened = true
	fn := e.onOpen
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *ConnEvents) FireData(data []byte) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fn := e.onData
	e.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

// FireClose terminates the event stream. Returns false if it already ended.
func (e *ConnEvents) FireClose() bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.closed = true
	fn := e.onClose
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
	return true
}

// FireError terminates the event stream with err. Returns false if it already ended.
func (e *ConnEvents) FireError(err error) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.closed = true
	e.err = err
	fn := e.onError
	e.mu.Unlock()
	if fn != nil {
		fn(err)
	}
	return true
}
