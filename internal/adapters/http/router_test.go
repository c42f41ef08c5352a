package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Lobby/internal/adapters/signal"
	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/dkeye/Lobby/internal/domain"
)

func testServer(t *testing.T, registerLimit int) (*httptest.Server, *app.Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{
		Mode:       "test",
		StaticPath: t.TempDir(),
		Secret:     "test-secret",
		ReadLimit:  32768,
		PingPeriod: time.Minute,
		PublicURL:  "https://lobby.example.com/",
	}
	orch := app.NewOrchestrator(app.SimplePolicy{}, app.NewRateLimiter(registerLimit, time.Minute, clockwork.NewRealClock()))
	srv := httptest.NewServer(SetupRouter(ctx, cfg, orch))
	t.Cleanup(srv.Close)
	return srv, orch
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(env signal.Envelope) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(env))
}

func (c *wsClient) recv() signal.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env signal.Envelope
	require.NoError(c.t, c.conn.ReadJSON(&env))
	return env
}

func (c *wsClient) register(id domain.PeerID) signal.Envelope {
	c.t.Helper()
	c.send(signal.Envelope{Type: signal.TypeRegister, ID: id})
	return c.recv()
}

func TestRegisterAndRelay(t *testing.T) {
	srv, _ := testServer(t, 10)
	host := dial(t, srv)
	joiner := dial(t, srv)

	got := host.register("AB12CD")
	assert.Equal(t, signal.TypeRegistered, got.Type)
	assert.Equal(t, domain.PeerID("AB12CD"), got.ID)

	got = joiner.register("")
	require.Equal(t, signal.TypeRegistered, got.Type)
	joinerID := got.ID
	assert.NotEmpty(t, joinerID)

	joiner.send(signal.Envelope{Type: signal.TypeOffer, To: "AB12CD", SDP: "v=0 offer"})
	offer := host.recv()
	assert.Equal(t, signal.TypeOffer, offer.Type)
	assert.Equal(t, joinerID, offer.From)
	assert.Empty(t, offer.To)
	assert.Equal(t, "v=0 offer", offer.SDP)

	cand := json.RawMessage(`{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host","sdpMid":"0"}`)
	host.send(signal.Envelope{Type: signal.TypeCandidate, To: joinerID, Candidate: cand})
	got = joiner.recv()
	assert.Equal(t, signal.TypeCandidate, got.Type)
	assert.Equal(t, domain.PeerID("AB12CD"), got.From)
	assert.JSONEq(t, string(cand), string(got.Candidate))
}

func TestRegisterTaken(t *testing.T) {
	srv, _ := testServer(t, 10)
	a, b := dial(t, srv), dial(t, srv)
	require.Equal(t, signal.TypeRegistered, a.register("AB12CD").Type)

	got := b.register("AB12CD")
	assert.Equal(t, signal.TypeError, got.Type)
	assert.Equal(t, signal.ErrCodeIDTaken, got.Error)
}

func TestRegisterRateLimited(t *testing.T) {
	srv, _ := testServer(t, 1)
	c := dial(t, srv)
	require.Equal(t, signal.TypeRegistered, c.register("").Type)

	got := c.register("")
	assert.Equal(t, signal.ErrCodeRateLimited, got.Error)
}

func TestRelayToMissingPeer(t *testing.T) {
	srv, _ := testServer(t, 10)
	c := dial(t, srv)
	c.register("")

	c.send(signal.Envelope{Type: signal.TypeOffer, To: "NOPE00", SDP: "x"})
	got := c.recv()
	assert.Equal(t, signal.TypeError, got.Type)
	assert.Equal(t, signal.ErrCodePeerUnavailable, got.Error)
	assert.Equal(t, domain.PeerID("NOPE00"), got.Peer)
}

func TestRelayRequiresRegistration(t *testing.T) {
	srv, _ := testServer(t, 10)
	c := dial(t, srv)
	c.send(signal.Envelope{Type: signal.TypeOffer, To: "AB12CD"})
	assert.Equal(t, signal.ErrCodeNotRegistered, c.recv().Error)
}

func TestPingPong(t *testing.T) {
	srv, _ := testServer(t, 10)
	c := dial(t, srv)
	c.send(signal.Envelope{Type: signal.TypePing})
	assert.Equal(t, signal.TypePong, c.recv().Type)
}

func TestLeaveAndDisconnectRelease(t *testing.T) {
	srv, orch := testServer(t, 10)
	c := dial(t, srv)
	c.register("AB12CD")
	require.True(t, orch.Registry.Online("AB12CD"))

	c.send(signal.Envelope{Type: signal.TypeLeave})
	assert.Equal(t, signal.TypeLeft, c.recv().Type)
	assert.False(t, orch.Registry.Online("AB12CD"))

	c.register("AB12CD")
	require.True(t, orch.Registry.Online("AB12CD"))
	require.NoError(t, c.conn.Close())
	assert.Eventually(t, func() bool { return !orch.Registry.Online("AB12CD") }, 2*time.Second, 10*time.Millisecond)
}

func TestRoomLookup(t *testing.T) {
	srv, _ := testServer(t, 10)
	host := dial(t, srv)
	host.register("AB12CD")

	get := func(path string) (*http.Response, RoomResponse) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body RoomResponse
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		}
		return resp, body
	}

	resp, body := get("/api/rooms/ab12cd")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, RoomResponse{Room: "AB12CD", Online: true}, body)

	_, body = get("/api/rooms/ZZ99ZZ")
	assert.False(t, body.Online)

	resp, _ = get("/api/rooms/!!")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinRedirect(t *testing.T) {
	srv, _ := testServer(t, 10)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(srv.URL + "/join?room=ab12cd")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	code, err := domain.ParseJoinTarget(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("AB12CD"), code)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "https://lobby.example.com/"))

	resp, err = client.Get(srv.URL + "/join")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientTokenCookie(t *testing.T) {
	srv, _ := testServer(t, 10)
	resp, err := http.Get(srv.URL + "/api/session")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Client string `json:"client"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Client)

	var names []string
	for _, ck := range resp.Cookies() {
		names = append(names, ck.Name)
	}
	assert.Contains(t, names, "ct")
}
