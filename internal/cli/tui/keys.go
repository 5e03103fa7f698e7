package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Refresh  key.Binding
	Next     key.Binding
	Prev     key.Binding
	Up       key.Binding
	Down     key.Binding
	Overview key.Binding
	CPU      key.Binding
	Memory   key.Binding
	Disks    key.Binding
	Temps    key.Binding
	Alerts   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Next:     key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "scroll")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "scroll")),
		Overview: key.NewBinding(key.WithKeys("1")),
		CPU:      key.NewBinding(key.WithKeys("2")),
		Memory:   key.NewBinding(key.WithKeys("3")),
		Disks:    key.NewBinding(key.WithKeys("4")),
		Temps:    key.NewBinding(key.WithKeys("5")),
		Alerts:   key.NewBinding(key.WithKeys("6")),
	}
}

func (k keyMap) helpLine() string {
	line := "1-6:view"
	for _, b := range []key.Binding{k.Next, k.Refresh, k.Quit} {
		h := b.Help()
		line += " " + h.Key + ":" + h.Desc
	}
	return line
}
