// Package console is the line-oriented front end of the lobby CLI. It owns a
// session, maps text commands onto its lifecycle operations and prints what
// the session observers report.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/domain"
	"github.com/dkeye/Lobby/internal/session"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

const Help = `commands:
  host [CODE]          create a room
  join CODE|URL        join a room
  state JSON           replace the shared state
  signal NAME [JSON]   send a one-off signal
  status | peers | count
  delete               delete the hosted room
  leave                disconnect
  ack                  dismiss a deleted room
  quit`

type Console struct {
	s           *session.Session
	joinTimeout time.Duration

	outMu sync.Mutex
	out   io.Writer
	unsub []func()
}

func New(s *session.Session, out io.Writer, joinTimeout time.Duration) *Console {
	c := &Console{s: s, out: out, joinTimeout: joinTimeout}
	c.unsub = []func(){
		s.SubscribeSnapshots(func(snap domain.Snapshot) { c.printf("state %s", snap) }),
		s.SubscribeMessages(c.onMessage),
		s.SubscribeCount(func(n session.Count) { c.printf("count %d max %d", n.Current, n.Max) }),
		s.SubscribeStatus(func(st session.Status) { c.printf("status %s", formatStatus(st)) }),
	}
	return c
}

func (c *Console) onMessage(m session.Message) {
	switch m.Kind {
	case session.KindSignal:
		if len(m.Payload) > 0 {
			c.printf("signal %s %s from %s", m.Signal, m.Payload, m.From)
		} else {
			c.printf("signal %s from %s", m.Signal, m.From)
		}
	case session.KindRoomDeleted:
		c.printf("room deleted")
	}
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func formatStatus(st session.Status) string {
	out := fmt.Sprintf("%s role=%s self=%s", st.State, st.Role, st.Self)
	if st.Room != "" {
		out += " room=" + string(st.Room)
	}
	return out
}

// Execute runs one command line. quit reports that the console should stop.
func (c *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return false, nil
	case "help":
		c.printf("%s", Help)
	case "host":
		var code domain.RoomCode
		if rest != "" {
			if code, err = domain.NormalizeRoomCode(rest); err != nil {
				return false, err
			}
		}
		room, err := c.s.CreateRoom(ctx, code)
		if err != nil {
			return false, err
		}
		c.printf("room %s", room)
	case "join":
		if rest == "" {
			return false, fmt.Errorf("%w: join CODE|URL", ErrUsage)
		}
		code, err := domain.ParseJoinTarget(rest)
		if err != nil {
			return false, err
		}
		jctx, cancel := context.WithTimeout(ctx, c.joinTimeout)
		defer cancel()
		if err := c.s.JoinRoom(jctx, code); err != nil {
			return false, err
		}
	case "state":
		if !json.Valid([]byte(rest)) {
			return false, fmt.Errorf("%w: state JSON", ErrUsage)
		}
		return false, c.s.UpdateState(domain.Snapshot(rest))
	case "signal":
		name, payload, _ := strings.Cut(rest, " ")
		payload = strings.TrimSpace(payload)
		if name == "" || (payload != "" && !json.Valid([]byte(payload))) {
			return false, fmt.Errorf("%w: signal NAME [JSON]", ErrUsage)
		}
		var raw json.RawMessage
		if payload != "" {
			raw = json.RawMessage(payload)
		}
		return false, c.s.SendSignal(name, raw)
	case "status":
		c.printf("status %s", formatStatus(c.s.Status()))
	case "peers":
		peers := c.s.Peers()
		names := make([]string, len(peers))
		for i, p := range peers {
			names[i] = string(p)
		}
		c.printf("peers %d %s", len(peers), strings.Join(names, " "))
	case "count":
		n := c.s.Count()
		c.printf("count %d max %d", n.Current, n.Max)
	case "delete":
		return false, c.s.DeleteRoom(ctx)
	case "leave":
		c.s.Disconnect()
	case "ack":
		return false, c.s.Acknowledge()
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return false, nil
}

// Run reads commands from in until quit, EOF or ctx is done. Command errors
// are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			quit, err := c.Execute(ctx, line)
			if err != nil {
				log.Debug().Err(err).Str("module", "console").Str("line", line).Msg("command failed")
				c.printf("error: %v", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Close detaches the observers. The session stays open.
func (c *Console) Close() {
	for _, u := range c.unsub {
		u()
	}
	c.unsub = nil
}
