package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Bindings other than quit, focus and back only apply while the result list has focus, since the search box
// consumes printable keys.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	focus    key.Binding
	back     key.Binding
	toggle   key.Binding
	next     key.Binding
	prev     key.Binding
	itunes   key.Binding
	jiosaavn key.Binding
	theme    key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play from here")),
		focus:    key.NewBinding(key.WithKeys("tab", "/"), key.WithHelp("tab", "search")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "results")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
		itunes:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "iTunes")),
		jiosaavn: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "JioSaavn")),
		theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.focus, k.enter, k.toggle, k.next, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.toggle, k.next, k.prev},
		{k.itunes, k.jiosaavn, k.theme},
		{k.focus, k.back, k.quit},
	}
}
