package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/orrery/pkg/domain"
	"github.com/aretw0/orrery/pkg/ports"
)

// Command names understood by the console.
const (
	CmdPlay      = "play"
	CmdPause     = "pause"
	CmdToggle    = "toggle"
	CmdFollow    = "follow"
	CmdStatus    = "status"
	CmdPositions = "positions"
	CmdHelp      = "help"
	CmdQuit      = "quit"
)

// ErrUnknownCommand is returned by ParseCommand for input it cannot map.
var ErrUnknownCommand = errors.New("unknown command")

var aliases = map[string]string{
	"p":          CmdToggle,
	"space":      CmdToggle,
	"resume":     CmdPlay,
	"f":          CmdFollow,
	"s":          CmdStatus,
	"pos":        CmdPositions,
	"h":          CmdHelp,
	"?":          CmdHelp,
	"q":          CmdQuit,
	"exit":       CmdQuit,
	CmdPlay:      CmdPlay,
	CmdPause:     CmdPause,
	CmdToggle:    CmdToggle,
	CmdFollow:    CmdFollow,
	CmdStatus:    CmdStatus,
	CmdPositions: CmdPositions,
	CmdHelp:      CmdHelp,
	CmdQuit:      CmdQuit,
}

// ParseCommand maps a line of input to a command name.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseCommand(line string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(line))
	if cmd, ok := aliases[key]; ok {
		return cmd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, key)
}

// Reply is the outcome of one command.
type Reply struct {
	Command   string                 `json:"cmd"`
	Status    *domain.Status         `json:"status,omitempty"`
	Positions map[string]domain.Vec3 `json:"positions,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// HelpText lists the console commands.
const HelpText = `Commands:

- **play** / **pause** / **toggle** (p): control the clock
- **follow** (f): toggle centroid following
- **status** (s): show the buffer and clock
- **positions** (pos): latest position of every entity
- **quit** (q): stop playback`

// Dispatch applies cmd to ctrl. Control errors are reported in the reply.
func Dispatch(ctrl ports.Controller, cmd string) Reply {
	reply := Reply{Command: cmd}
	var err error
	switch cmd {
	case CmdPlay:
		err = ctrl.Play()
	case CmdPause:
		err = ctrl.Pause()
	case CmdToggle:
		if ctrl.Status().State == domain.StatePlaying {
			err = ctrl.Pause()
		} else {
			err = ctrl.Play()
		}
	case CmdFollow:
		var on bool
		on, err = ctrl.ToggleFollow()
		if err == nil {
			reply.Message = fmt.Sprintf("follow %s", onOff(on))
		}
	case CmdPositions:
		reply.Positions = ctrl.Positions()
		return reply
	case CmdHelp:
		reply.Message = HelpText
		return reply
	case CmdQuit:
		reply.Message = "bye"
		return reply
	case CmdStatus:
	default:
		reply.Error = fmt.Sprintf("%v: %q", ErrUnknownCommand, cmd)
		return reply
	}
	if err != nil {
		reply.Error = err.Error()
		return reply
	}
	st := ctrl.Status()
	reply.Status = &st
	return reply
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
