package domain

import (
	"errors"
	"math/rand"
	"net/url"
	"strings"
)

const (
	DefaultRoomCodeLen = 6
	RoomQueryParam     = "room"

	roomAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var ErrInvalidRoomCode = errors.New("invalid room code")

// RoomCode is a short human-typeable code. It equals the host's PeerID.
type RoomCode string

// NewRoomCode draws n random base-36 characters, upper-cased.
func NewRoomCode(n int) RoomCode {
	if n <= 0 {
		n = DefaultRoomCodeLen
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = roomAlphabet[rand.Intn(len(roomAlphabet))]
	}
	return RoomCode(b)
}

// NormalizeRoomCode trims and upper-cases user input and rejects anything
// outside the base-36 alphabet.
func NormalizeRoomCode(raw string) (RoomCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" || len(code) > MaxPeerIDLen {
		return "", ErrInvalidRoomCode
	}
	for _, r := range code {
		if !strings.ContainsRune(roomAlphabet, r) {
			return "", ErrInvalidRoomCode
		}
	}
	return RoomCode(code), nil
}

func (c RoomCode) PeerID() PeerID { return PeerID(c) }

func (c RoomCode) String() string { return string(c) }

// JoinURL builds the deep link shared via copy-link / QR code.
func JoinURL(base string, code RoomCode) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(RoomQueryParam, string(code))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseJoinTarget accepts either a bare room code or a URL carrying ?room=.
func ParseJoinTarget(s string) (RoomCode, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "://") || strings.Contains(s, "?") {
		u, err := url.Parse(s)
		if err != nil {
			return "", ErrInvalidRoomCode
		}
		return NormalizeRoomCode(u.Query().Get(RoomQueryParam))
	}
	return NormalizeRoomCode(s)
}
