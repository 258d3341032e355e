package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	SubmitMessage       key.Binding
	NewConversation     key.Binding
	PrevConversation    key.Binding
	NextConversation    key.Binding
	DeleteConversation  key.Binding
	DismissNotification key.Binding
	ScrollUp            key.Binding
	ScrollDown          key.Binding

	Help key.Binding
	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	SubmitMessage: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "send"),
	),
	NewConversation: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "new conversation"),
	),
	PrevConversation: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "previous conversation"),
	),
	NextConversation: key.NewBinding(
		key.WithKeys("ctrl+j"),
		key.WithHelp("ctrl+j", "next conversation"),
	),
	DeleteConversation: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "delete conversation"),
	),
	DismissNotification: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "dismiss"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("shift+pgup", "pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("shift+pgdown", "pgdown"),
		key.WithHelp("pgdown", "scroll down"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SubmitMessage, k.NewConversation, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SubmitMessage, k.DismissNotification, k.ScrollUp, k.ScrollDown},
		{k.NewConversation, k.PrevConversation, k.NextConversation, k.DeleteConversation},
		{k.Help, k.Quit},
	}
}
