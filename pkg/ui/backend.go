package ui

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/docqa/pkg/events"
)

// StateChangedMsg tells the model to re-read the orchestrator state.
type StateChangedMsg struct {
	Event events.Event
}

// OrchestratorForwardFunc forwards orchestrator events from the router to
// the bubbletea program. The message is acked before p.Send so a publisher
// blocked on the ack never waits on the UI loop.
func OrchestratorForwardFunc(p *tea.Program) func(msg *message.Message) error {
	forward := events.EventHandler(func(_ context.Context, e events.Event) error {
		p.Send(StateChangedMsg{Event: e})
		return nil
	})

	return func(msg *message.Message) error {
		msg.Ack()
		return forward(msg)
	}
}
