package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibe/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionEvent MsgKind = iota
	MsgEventsClosed
	MsgActionDone
	MsgToastExpired
	MsgThemeSaved
)

// sessionEventMsg is the constructor for [MsgSessionEvent]
func sessionEventMsg(ev models.Event) Msg {
	return Msg{kind: MsgSessionEvent, data: ev}
}

// eventsClosedMsg is the constructor for [MsgEventsClosed]
func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{
		kind: MsgActionDone,
		data: struct {
			action string
			err    error
		}{action, err},
	}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id int) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}

// themeSavedMsg is the constructor for [MsgThemeSaved]
func themeSavedMsg(theme models.Theme, err error) Msg {
	return Msg{
		kind: MsgThemeSaved,
		data: struct {
			theme models.Theme
			err   error
		}{theme, err},
	}
}
