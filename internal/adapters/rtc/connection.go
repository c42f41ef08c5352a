package rtc

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

const channelLabel = "lobby"

var ErrPeerFailed = errors.New("peer connection failed")

// WebRTCConfig builds a configuration from a list of ICE server URLs.
func WebRTCConfig(iceServers []string) webrtc.Configuration {
	if len(iceServers) == 0 {
		return webrtc.Configuration{}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceServers}},
	}
}

// WebRTCConnection is one PeerConnection carrying one ordered data channel.
type WebRTCConnection struct {
	core.ConnEvents
	pc   *webrtc.PeerConnection
	peer domain.PeerID

	mu sync.Mutex
	dc *webrtc.DataChannel

	once     sync.Once
	onClosed func(*WebRTCConnection)
}

var _ core.PeerConn = (*WebRTCConnection)(nil)

func NewWebRTCConnection(cfg webrtc.Configuration, peer domain.PeerID) (*WebRTCConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	c := &WebRTCConnection{pc: pc, peer: peer}

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Debug().Str("module", "webrtc").Str("peer", string(peer)).Str("peer_connection_state", s.String()).Msg("Peer state")
		switch s {
		case webrtc.PeerConnectionStateFailed:
			c.finish(ErrPeerFailed)
		case webrtc.PeerConnectionStateClosed:
			c.finish(nil)
		}
	})
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != channelLabel {
			log.Warn().Str("module", "webrtc").Str("label", dc.Label()).Msg("unexpected data channel")
			return
		}
		c.attach(dc)
	})
	return c, nil
}

// CreateChannel opens the ordered data channel on the offering side.
func (c *WebRTCConnection) CreateChannel() error {
	ordered := true
	dc, err := c.pc.CreateDataChannel(channelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return err
	}
	c.attach(dc)
	return nil
}

func (c *WebRTCConnection) attach(dc *webrtc.DataChannel) {
	c.mu.Lock()
	c.dc = dc
	c.mu.Unlock()

	dc.OnOpen(func() {
		log.Info().Str("module", "webrtc").Str("peer", string(c.peer)).Msg("data channel open")
		c.FireOpen()
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		c.FireData(msg.Data)
	})
	dc.OnClose(func() { c.finish(nil) })
	dc.OnError(func(err error) { c.finish(err) })
}

// CreateOffer returns a complete (non-trickle) offer.
func (c *WebRTCConnection) CreateOffer() (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	<-gatherComplete
	return c.pc.LocalDescription(), nil
}

func (c *WebRTCConnection) ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}

	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	<-gatherComplete

	return c.pc.LocalDescription(), nil
}

func (c *WebRTCConnection) ApplyAnswer(answer webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(answer)
}

func (c *WebRTCConnection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *WebRTCConnection) PeerID() domain.PeerID { return c.peer }

func (c *WebRTCConnection) Send(data []byte) error {
	c.mu.Lock()
	dc := c.dc
	c.mu.Unlock()
	if dc == nil || !c.IsOpen() {
		return core.ErrConnClosed
	}
	return dc.Send(data)
}

func (c *WebRTCConnection) Close() error {
	c.finish(nil)
	return nil
}

// Fail ends the connection with err, e.g. when signaling reports the peer gone.
func (c *WebRTCConnection) Fail(err error) { c.finish(err) }

// OnClosed sets the cleanup callback run once the connection ends.
func (c *WebRTCConnection) OnClosed(fn func(*WebRTCConnection)) { c.onClosed = fn }

// finish ends the event stream once. pion callbacks call it too, so the
// PeerConnection is closed off the callback goroutine.
func (c *WebRTCConnection) finish(err error) {
	c.once.Do(func() {
		if err != nil {
			c.FireError(err)
		} else {
			c.FireClose()
		}
		if c.onClosed != nil {
			c.onClosed(c)
		}
		go func() {
			if err := c.pc.Close(); err != nil {
				log.Error().Err(err).Str("module", "webrtc").Str("peer", string(c.peer)).Msg("close error")
			} else {
				log.Info().Str("module", "webrtc").Str("peer", string(c.peer)).Msg("closed")
			}
		}()
	})
}
