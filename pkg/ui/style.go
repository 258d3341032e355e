package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Sidebar            lipgloss.Style
	SidebarTitle       lipgloss.Style
	Conversation       lipgloss.Style
	ActiveConversation lipgloss.Style

	Header           lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	ErrorMessage     lipgloss.Style
	Sources          lipgloss.Style
	Status           lipgloss.Style
	StatusError      lipgloss.Style

	FocusedInput lipgloss.Style

	SuccessToast lipgloss.Style
	FailureToast lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Selected   string
	Focused    string
	Success    string
	Failure    string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#CCCCCC",
		Selected:   "#FFB6C1",
		Focused:    "#FFFF99",
		Success:    "#2E8B57",
		Failure:    "#CC3333",
	}

	darkModeColors := BorderColors{
		Unselected: "#444444",
		Selected:   "#DD7090",
		Focused:    "#DDDD77",
		Success:    "#66BB6A",
		Failure:    "#EF5350",
	}

	color := func(f func(BorderColors) string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: f(lightModeColors), Dark: f(darkModeColors)}
	}
	unselected := color(func(c BorderColors) string { return c.Unselected })
	selected := color(func(c BorderColors) string { return c.Selected })
	focused := color(func(c BorderColors) string { return c.Focused })
	success := color(func(c BorderColors) string { return c.Success })
	failure := color(func(c BorderColors) string { return c.Failure })

	return &Style{
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(unselected).
			PaddingRight(1),
		SidebarTitle:       lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Conversation:       lipgloss.NewStyle().PaddingLeft(2),
		ActiveConversation: lipgloss.NewStyle().Bold(true).Foreground(selected).PaddingLeft(1).SetString("›"),

		Header: lipgloss.NewStyle().Bold(true),
		UserMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(unselected),
		AssistantMessage: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(selected),
		ErrorMessage: lipgloss.NewStyle().Border(lipgloss.ThickBorder()).
			Padding(0, 1).
			BorderForeground(failure).
			Foreground(failure),
		Sources:     lipgloss.NewStyle().Italic(true).Faint(true).PaddingLeft(1),
		Status:      lipgloss.NewStyle().Faint(true),
		StatusError: lipgloss.NewStyle().Foreground(failure),

		FocusedInput: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			BorderForeground(focused),

		SuccessToast: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			BorderForeground(success).
			Foreground(success),
		FailureToast: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			BorderForeground(failure).
			Foreground(failure),
	}
}
