package runner

import (
	"testing"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"play", CmdPlay},
		{"  PAUSE ", CmdPause},
		{"p", CmdToggle},
		{"f", CmdFollow},
		{"s", CmdStatus},
		{"pos", CmdPositions},
		{"?", CmdHelp},
		{"exit", CmdQuit},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCommand("rewind")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDispatch_Toggle(t *testing.T) {
	ctrl := newFakeController()

	reply := Dispatch(ctrl, CmdToggle)
	require.Empty(t, reply.Error)
	require.NotNil(t, reply.Status)
	assert.Equal(t, domain.StatePlaying, reply.Status.State)

	reply = Dispatch(ctrl, CmdToggle)
	assert.Equal(t, domain.StatePaused, reply.Status.State)
}

func TestDispatch_Follow(t *testing.T) {
	ctrl := newFakeController()

	reply := Dispatch(ctrl, CmdFollow)
	assert.Equal(t, "follow on", reply.Message)
	assert.True(t, reply.Status.Following)

	reply = Dispatch(ctrl, CmdFollow)
	assert.Equal(t, "follow off", reply.Message)
}

func TestDispatch_Positions(t *testing.T) {
	ctrl := newFakeController()
	ctrl.positions = map[string]domain.Vec3{"earth": {X: 1}}

	reply := Dispatch(ctrl, CmdPositions)
	assert.Nil(t, reply.Status)
	assert.Equal(t, domain.Vec3{X: 1}, reply.Positions["earth"])
}

func TestDispatch_ClosedSession(t *testing.T) {
	ctrl := newFakeController()
	require.NoError(t, ctrl.Close())

	reply := Dispatch(ctrl, CmdPlay)
	assert.Equal(t, domain.ErrSessionClosed.Error(), reply.Error)
	assert.Nil(t, reply.Status)
}

func TestDispatch_Unknown(t *testing.T) {
	reply := Dispatch(newFakeController(), "rewind")
	assert.Contains(t, reply.Error, "unknown command")
}
