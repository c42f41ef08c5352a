package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnEventsLatchOpen(t *testing.T) {
	var ev ConnEvents
	ev.FireOpen()

	opened := 0
	ev.OnOpen(func() { opened++ })
	assert.Equal(t, 1, opened)
	assert.True(t, ev.IsOpen())

	ev.FireOpen()
	assert.Equal(t, 1, opened)
}

func TestConnEventsCloseOnce(t *testing.T) {
	var ev ConnEvents
	closes := 0
	ev.OnClose(func() { closes++ })
	ev.FireOpen()

	assert.True(t, ev.FireClose())
	assert.False(t, ev.FireClose())
	assert.False(t, ev.FireError(errors.New("late")))
	assert.Equal(t, 1, closes)

	data := 0
	ev.OnData(func([]byte) { data++ })
	ev.FireData([]byte("x"))
	assert.Zero(t, data)
	assert.False(t, ev.IsOpen())
}

func TestConnEventsLatchError(t *testing.T) {
	var ev ConnEvents
	boom := errors.New("boom")
	ev.FireError(boom)

	var got error
	ev.OnError(func(err error) { got = err })
	assert.ErrorIs(t, got, boom)

	closed := false
	ev.OnClose(func() { closed = true })
	assert.False(t, closed)

	opened := false
	ev.OnOpen(func() { opened = true })
	ev.FireOpen()
	assert.False(t, opened)
}
