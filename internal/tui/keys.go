package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Back     key.Binding
	Help     key.Binding
	Enter    key.Binding
	Up       key.Binding
	Down     key.Binding
	Tab      key.Binding
	Industry key.Binding
	File     key.Binding
	Remove   key.Binding
	Profile  key.Binding
	Generate key.Binding
	Prompt   key.Binding
	SaveText key.Binding
	SavePDF  key.Binding
	Reset    key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next preset"),
	),
	Industry: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "industry"),
	),
	File: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "load file"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove file"),
	),
	Profile: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "select profile"),
	),
	Generate: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "generate"),
	),
	Prompt: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "show prompt"),
	),
	SaveText: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "download .txt"),
	),
	SavePDF: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "download .pdf"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
}
