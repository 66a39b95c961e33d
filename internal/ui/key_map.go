package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Letter keys are only bound outside the search view, where they would otherwise be typed.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	clear   key.Binding
	saved   key.Binding
	save    key.Binding
	trailer key.Binding
	remove  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		saved:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "saved")),
		save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save/unsave")),
		trailer: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trailer")),
		remove:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.clear, k.back, k.saved},
		{k.save, k.trailer, k.remove, k.quit},
	}
}

func (k keyMap) searchHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.enter, k.clear, k.saved, k.quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.save, k.trailer, k.back, k.quit}
}

func (k keyMap) savedHelp() []key.Binding {
	return []key.Binding{k.enter, k.remove, k.back, k.quit}
}
