package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMachineHostPath(t *testing.T) {
	var m roleMachine
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, RoleHost, m.Role())

	require.NoError(t, m.Host("AB12CD"))
	assert.Equal(t, StateHosting, m.State())
	assert.Equal(t, RoleHost, m.Role())
	assert.EqualValues(t, "AB12CD", m.Room())

	assert.ErrorIs(t, m.Host("ZZZZZZ"), ErrInvalidTransition)
	assert.ErrorIs(t, m.Deleted(), ErrInvalidTransition)

	require.NoError(t, m.Reset())
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.Room())
}

func TestRoleMachineJoinerPath(t *testing.T) {
	var m roleMachine
	require.NoError(t, m.Connect("AB12CD"))
	assert.Equal(t, RoleJoiner, m.Role())
	assert.ErrorIs(t, m.Host("AB12CD"), ErrInvalidTransition)

	require.NoError(t, m.Connected())
	assert.Equal(t, StateConnected, m.State())

	require.NoError(t, m.Deleted())
	assert.Equal(t, StateRoomDeleted, m.State())
	assert.Equal(t, RoleJoiner, m.Role())
	assert.ErrorIs(t, m.Reset(), ErrInvalidTransition)
	assert.ErrorIs(t, m.Connect("X"), ErrInvalidTransition)

	require.NoError(t, m.Acknowledge())
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, RoleHost, m.Role())
}

func TestRoleMachineHostingToConnecting(t *testing.T) {
	var m roleMachine
	require.NoError(t, m.Host("AB12CD"))
	require.NoError(t, m.Connect("QQ99QQ"))
	assert.Equal(t, RoleJoiner, m.Role())
	assert.EqualValues(t, "QQ99QQ", m.Room())

	assert.ErrorIs(t, m.Acknowledge(), ErrInvalidTransition)
	require.NoError(t, m.Reset())
	assert.Equal(t, StateIdle, m.State())
}
