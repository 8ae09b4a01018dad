package service

import (
	"errors"

	"github.com/hapkiduki/desk-planner/internal/domain/entity"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
	"gonum.org/v1/gonum/spatial/r3"
)

// Command errors.
var (
	ErrUnknownAction   = errors.New("unknown command action")
	ErrMissingArgument = errors.New("command is missing a required argument")
	ErrTooManyMonitors = errors.New("monitor limit reached")
)

// Action names a mutation of an existing monitor.
type Action string

const (
	ActionUpdateSpec     Action = "update_spec"
	ActionMove           Action = "move"
	ActionRotate         Action = "rotate"
	ActionLock           Action = "lock"
	ActionUnlock         Action = "unlock"
	ActionToggleLock     Action = "toggle_lock"
	ActionTogglePortrait Action = "toggle_portrait"
	ActionReset          Action = "reset"
	ActionRename         Action = "rename"
)

// Command is a message dispatched to a monitor. Only the arguments its
// Action needs are read.
type Command struct {
	Action   Action
	Spec     *valueobject.MonitorSpec
	Position *r3.Vec
	Yaw      *float64
	Name     string
}

// commandFunc mutates a monitor in place.
type commandFunc func(m *entity.Monitor, cmd Command) error

// commandEntry is one row of the dispatch table.
type commandEntry struct {
	apply commandFunc

	// rest re-seats the panel on the desk after the spec changed.
	rest bool

	// respawn moves the panel back to the default spawn transform.
	respawn bool
}

// commandTable builds the dispatch table used by LayoutService.Execute.
func commandTable() map[Action]commandEntry {
	return map[Action]commandEntry{
		ActionUpdateSpec: {apply: updateSpec, rest: true},
		ActionMove:       {apply: move},
		ActionRotate:     {apply: rotate},
		ActionLock: {apply: func(m *entity.Monitor, _ Command) error {
			m.Lock()
			return nil
		}},
		ActionUnlock: {apply: func(m *entity.Monitor, _ Command) error {
			m.Unlock()
			return nil
		}},
		ActionToggleLock: {apply: func(m *entity.Monitor, _ Command) error {
			m.ToggleLock()
			return nil
		}},
		ActionTogglePortrait: {apply: func(m *entity.Monitor, _ Command) error {
			m.TogglePortrait()
			return nil
		}, rest: true},
		ActionReset: {apply: func(*entity.Monitor, Command) error { return nil }, respawn: true},
		ActionRename: {apply: func(m *entity.Monitor, cmd Command) error {
			if cmd.Name == "" {
				return ErrMissingArgument
			}
			m.Rename(cmd.Name)
			return nil
		}},
	}
}

func updateSpec(m *entity.Monitor, cmd Command) error {
	if cmd.Spec == nil {
		return ErrMissingArgument
	}
	m.ApplySpec(*cmd.Spec)
	return nil
}

func move(m *entity.Monitor, cmd Command) error {
	if cmd.Position == nil {
		return ErrMissingArgument
	}
	return m.MoveTo(geometry.Transform{Position: *cmd.Position})
}

func rotate(m *entity.Monitor, cmd Command) error {
	if cmd.Yaw == nil {
		return ErrMissingArgument
	}
	return m.RotateTo(*cmd.Yaw)
}
