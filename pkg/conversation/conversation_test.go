package conversation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	t.Run("short content is kept", func(t *testing.T) {
		assert.Equal(t, "What is the dosage for drug X?", DeriveTitle("What is the dosage for drug X?"))
	})

	t.Run("exactly fifty characters is kept", func(t *testing.T) {
		s := strings.Repeat("a", 50)
		assert.Equal(t, s, DeriveTitle(s))
	})

	t.Run("long content is truncated with ellipsis", func(t *testing.T) {
		s := strings.Repeat("b", 51)
		assert.Equal(t, strings.Repeat("b", 50)+"...", DeriveTitle(s))
	})

	t.Run("truncation counts runes", func(t *testing.T) {
		s := strings.Repeat("é", 60)
		got := DeriveTitle(s)
		assert.Equal(t, strings.Repeat("é", 50)+"...", got)
	})
}

func TestConversationAppendMessageSetsTitleOnce(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := New("c1", DefaultTitle, t0)

	c.AppendMessage(NewAssistantMessage("welcome"), t0.Add(time.Second))
	assert.Equal(t, DefaultTitle, c.Title)
	assert.False(t, c.TitleSet)

	long := strings.Repeat("x", 70)
	c.AppendMessage(NewUserMessage(long), t0.Add(2*time.Second))
	assert.Equal(t, strings.Repeat("x", 50)+"...", c.Title)
	assert.True(t, c.TitleSet)

	c.AppendMessage(NewUserMessage("another question"), t0.Add(3*time.Second))
	assert.Equal(t, strings.Repeat("x", 50)+"...", c.Title)
	assert.Equal(t, t0.Add(3*time.Second), c.UpdatedAt)
	assert.Equal(t, t0, c.CreatedAt)
	require.Len(t, c.Messages, 3)

	c.Overwrite(nil, t0.Add(4*time.Second))
	assert.Empty(t, c.Messages)
	c.AppendMessage(NewUserMessage("fresh start"), t0.Add(5*time.Second))
	assert.Equal(t, strings.Repeat("x", 50)+"...", c.Title)
}

func TestConversationAppendPreservesOrder(t *testing.T) {
	c := New("c1", DefaultTitle, time.Now())
	first := NewUserMessage("same")
	second := NewUserMessage("same")
	c.AppendMessage(first, time.Now())
	c.AppendMessage(second, time.Now())

	require.Len(t, c.Messages, 2)
	assert.Equal(t, first.ID, c.Messages[0].ID)
	assert.Equal(t, second.ID, c.Messages[1].ID)
}

func TestMessagesHistory(t *testing.T) {
	msgs := Messages{
		NewUserMessage("q1"),
		NewAssistantMessage("a1", WithSources([]string{"doc1.pdf"})),
		NewUserMessage("q2"),
	}
	assert.Equal(t, []HistoryEntry{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
	}, msgs.History())
}

func TestNewMessageIDsAreOrdered(t *testing.T) {
	a := NewMessageID()
	b := NewMessageID()
	assert.NotEqual(t, a, b)
	assert.True(t, a < b, "expected %s < %s", a, b)
}

func TestCloneIsDeep(t *testing.T) {
	c := New("c1", DefaultTitle, time.Now())
	c.AppendMessage(NewAssistantMessage("a", WithSources([]string{"s"})), time.Now())

	cp := c.Clone()
	cp.Messages[0].Sources[0] = "changed"
	cp.Messages = append(cp.Messages, NewUserMessage("u"))

	assert.Equal(t, "s", c.Messages[0].Sources[0])
	assert.Len(t, c.Messages, 1)
}

func TestDisplayTitle(t *testing.T) {
	c := New("c1", "", time.Now())
	assert.Equal(t, UntitledTitle, c.DisplayTitle())
	assert.Equal(t, UntitledTitle, c.Summary().Title)
}
