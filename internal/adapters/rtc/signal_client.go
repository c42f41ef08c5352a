package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/adapters/signal"
)

const writeWait = 10 * time.Second

// signalClient is the websocket link to the rendezvous server. Frames are
// read on one goroutine and handed to handle in arrival order.
type signalClient struct {
	ws     *websocket.Conn
	wmu    sync.Mutex
	handle func(signal.Envelope)
	done   chan struct{}
}

func dialSignal(ctx context.Context, url string, handle func(signal.Envelope)) (*signalClient, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &signalClient{ws: ws, handle: handle, done: make(chan struct{})}
	go c.readLoop()
	return c, nil
}

func (c *signalClient) readLoop() {
	defer close(c.done)
	for {
		var env signal.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "rtc").Msg("signal read")
			}
			return
		}
		c.handle(env)
	}
}

func (c *signalClient) send(env signal.Envelope) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(env)
}

// Done is closed when the read loop ends.
func (c *signalClient) Done() <-chan struct{} { return c.done }

func (c *signalClient) Close() error {
	c.wmu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.wmu.Unlock()
	return c.ws.Close()
}
