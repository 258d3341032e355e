package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/docqa/pkg/client"
	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/go-go-golems/docqa/pkg/orchestrator"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// UploadCommand prefixes an input line that uploads files instead of asking.
const UploadCommand = "/upload"

const maxSidebarWidth = 32

type errMsg error

// operationDoneMsg is returned by the commands that call into the
// orchestrator.
type operationDoneMsg struct {
	op  string
	err error
}

// Model is the chat TUI. It renders orchestrator snapshots and runs every
// orchestrator call in a command, never inside Update.
type Model struct {
	ctx  context.Context
	orch *orchestrator.Orchestrator

	state orchestrator.State

	viewport viewport.Model
	textArea textarea.Model
	spinner  spinner.Model
	help     help.Model

	keyMap KeyMap
	style  *Style

	renderer      *glamour.TermRenderer
	rendererWidth int

	width  int
	height int

	err error
}

func NewModel(ctx context.Context, orch *orchestrator.Orchestrator) Model {
	ret := Model{
		ctx:      ctx,
		orch:     orch,
		style:    DefaultStyles(),
		keyMap:   DefaultKeyMap,
		viewport: viewport.New(0, 0),
		help:     help.New(),
	}

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = "Ask a question about your documents, or /upload file.pdf"
	ret.textArea.SetHeight(3)
	ret.textArea.Focus()

	ret.spinner = spinner.New()
	ret.spinner.Spinner = spinner.Dot
	ret.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	ret.state = orch.State()

	return ret
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.run("initialize", m.orch.Initialize),
	)
}

// run wraps an orchestrator call into a command.
func (m Model) run(op string, f func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return operationDoneMsg{op: op, err: f(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.SubmitMessage):
			cmds = append(cmds, m.submit())

		case key.Matches(msg, m.keyMap.NewConversation):
			cmds = append(cmds, m.run("new", func(ctx context.Context) error {
				_, err := m.orch.NewConversation(ctx)
				return err
			}))

		case key.Matches(msg, m.keyMap.PrevConversation):
			cmds = append(cmds, m.selectRelative(-1))

		case key.Matches(msg, m.keyMap.NextConversation):
			cmds = append(cmds, m.selectRelative(1))

		case key.Matches(msg, m.keyMap.DeleteConversation):
			if id := m.state.ActiveConversationID; id != "" {
				cmds = append(cmds, m.run("delete", func(ctx context.Context) error {
					return m.orch.DeleteConversation(ctx, id)
				}))
			}

		case key.Matches(msg, m.keyMap.DismissNotification):
			m.err = nil
			cmds = append(cmds, m.run("dismiss", func(context.Context) error {
				m.orch.DismissNotification()
				return nil
			}))

		case key.Matches(msg, m.keyMap.ScrollUp, m.keyMap.ScrollDown):
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)

		case key.Matches(msg, m.keyMap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.recomputeSize()

		default:
			m.textArea, cmd = m.textArea.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recomputeSize()

	case StateChangedMsg:
		m.refresh()

	case operationDoneMsg:
		if msg.err != nil {
			log.Debug().Err(msg.err).Str("op", msg.op).Msg("Operation failed")
			if isShownInline(msg.err) {
				m.err = nil
			} else {
				m.err = msg.err
			}
		}
		m.refresh()

	case errMsg:
		m.err = msg

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// isShownInline reports errors the orchestrator already surfaced in the
// transcript or as a notification.
func isShownInline(err error) bool {
	var sendErr *orchestrator.SendPipelineError
	var uploadErr *orchestrator.UploadError
	var creationErr *orchestrator.ConversationCreationError
	return errors.As(err, &sendErr) || errors.As(err, &uploadErr) || errors.As(err, &creationErr)
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.textArea.Value())
	if text == "" {
		return nil
	}
	m.textArea.Reset()
	m.err = nil

	if paths, ok := parseUploadCommand(text); ok {
		if len(paths) == 0 {
			return func() tea.Msg {
				return errMsg(errors.New("usage: /upload <file.pdf>..."))
			}
		}
		return m.run("upload", func(ctx context.Context) error {
			docs, err := client.LoadDocuments(paths...)
			if err != nil {
				return err
			}
			return m.orch.UploadDocuments(ctx, docs)
		})
	}

	return m.run("send", func(ctx context.Context) error {
		return m.orch.SendMessage(ctx, text)
	})
}

func parseUploadCommand(text string) ([]string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != UploadCommand {
		return nil, false
	}
	return fields[1:], true
}

// selectRelative selects the conversation delta positions away from the
// active one in the sidebar. Without an active conversation it starts at
// the top.
func (m Model) selectRelative(delta int) tea.Cmd {
	convs := m.state.Conversations
	if len(convs) == 0 {
		return nil
	}

	idx := -1
	for i, c := range convs {
		if c.ID == m.state.ActiveConversationID {
			idx = i
			break
		}
	}

	next := 0
	if idx >= 0 {
		next = idx + delta
	}
	if next < 0 || next >= len(convs) || next == idx {
		return nil
	}

	id := convs[next].ID
	return m.run("select", func(ctx context.Context) error {
		return m.orch.SelectConversation(ctx, id)
	})
}

func (m *Model) refresh() {
	m.state = m.orch.State()
	if m.width == 0 {
		m.viewport.SetContent(m.transcriptView())
		return
	}
	// status and toast lines come and go with the state
	m.recomputeSize()
}

func (m Model) sidebarWidth() int {
	w := m.width / 4
	if w > maxSidebarWidth {
		w = maxSidebarWidth
	}
	return w
}

func (m Model) mainWidth() int {
	w := m.width - m.sidebarWidth() - m.style.Sidebar.GetHorizontalFrameSize()
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) recomputeSize() {
	mainWidth := m.mainWidth()

	h := m.style.FocusedInput.GetHorizontalFrameSize()
	m.textArea.SetWidth(mainWidth - h)

	headerHeight := lipgloss.Height(m.headerView())
	statusHeight := lipgloss.Height(m.statusView())
	inputHeight := lipgloss.Height(m.inputView())
	helpHeight := lipgloss.Height(m.help.View(m.keyMap))

	height := m.height - headerHeight - statusHeight - inputHeight - helpHeight
	if height < 0 {
		height = 0
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = height

	if m.rendererWidth != mainWidth {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(mainWidth-4),
		)
		if err != nil {
			log.Warn().Err(err).Msg("Could not create markdown renderer")
			r = nil
		}
		m.renderer = r
		m.rendererWidth = mainWidth
	}

	m.viewport.SetContent(m.transcriptView())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	title := "DOCQA"
	for _, c := range m.state.Conversations {
		if c.ID == m.state.ActiveConversationID {
			title = fmt.Sprintf("DOCQA · %s", c.Title)
			break
		}
	}
	header := m.style.Header.Render(truncateText(title, m.mainWidth()))

	if n := m.state.Notification; n != nil {
		toast := m.style.SuccessToast
		if n.Kind == orchestrator.NotificationFailure {
			toast = m.style.FailureToast
		}
		text := wrapWords(n.Text, m.mainWidth()-toast.GetHorizontalFrameSize())
		header = lipgloss.JoinVertical(lipgloss.Left, header, toast.Render(text))
	}
	return header
}

func (m Model) transcriptView() string {
	width := m.mainWidth()
	if len(m.state.ActiveMessages) == 0 {
		return m.style.Status.Render(wrapWords("No messages yet. Ask a question or upload a PDF with /upload.", width))
	}

	var sb strings.Builder
	for _, msg := range m.state.ActiveMessages {
		sb.WriteString(m.messageView(msg, width))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) messageView(msg *conversation.Message, width int) string {
	switch {
	case msg.Role == conversation.RoleUser:
		s := m.style.UserMessage
		return s.Width(width - s.GetHorizontalBorderSize()).
			Render(wrapWords(msg.Content, width-s.GetHorizontalFrameSize()))

	case strings.HasPrefix(msg.Content, orchestrator.ErrorMarker):
		s := m.style.ErrorMessage
		return s.Width(width - s.GetHorizontalBorderSize()).
			Render(wrapWords(msg.Content, width-s.GetHorizontalFrameSize()))

	default:
		s := m.style.AssistantMessage
		body := msg.Content
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(msg.Content); err == nil {
				body = strings.Trim(rendered, "\n")
			}
		}
		if len(msg.Sources) > 0 {
			sources := "Sources: " + strings.Join(msg.Sources, ", ")
			body += "\n" + m.style.Sources.Render(wrapWords(sources, width-s.GetHorizontalFrameSize()-1))
		}
		return s.Width(width - s.GetHorizontalBorderSize()).Render(body)
	}
}

func (m Model) statusView() string {
	var parts []string
	if m.state.Sending {
		parts = append(parts, m.spinner.View()+" Thinking...")
	}
	if m.state.Uploading {
		parts = append(parts, m.spinner.View()+" Analyzing documents...")
	}
	if m.err != nil {
		parts = append(parts, m.style.StatusError.Render(wrapWords(m.err.Error(), m.mainWidth())))
	}
	return strings.Join(parts, "  ")
}

func (m Model) inputView() string {
	return m.style.FocusedInput.Render(m.textArea.View())
}

func (m Model) sidebarView() string {
	width := m.sidebarWidth()
	lines := []string{m.style.SidebarTitle.Render("Conversations")}
	if len(m.state.Conversations) == 0 {
		lines = append(lines, m.style.Status.Render(wrapWords("ctrl+n to start", width)))
	}
	for _, c := range m.state.Conversations {
		title := truncateText(c.Title, width-2)
		if c.ID == m.state.ActiveConversationID {
			lines = append(lines, m.style.ActiveConversation.Render(title))
		} else {
			lines = append(lines, m.style.Conversation.Render(title))
		}
	}

	return m.style.Sidebar.
		Width(width).
		Height(m.height - lipgloss.Height(m.help.View(m.keyMap))).
		Render(strings.Join(lines, "\n"))
}

func (m Model) View() string {
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.statusView(),
		m.inputView(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), content)
	return body + "\n" + m.help.View(m.keyMap)
}
