package cmds

import (
	"context"
	"testing"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/go-go-golems/docqa/pkg/store"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(t *testing.T, row types.Row, field string) interface{} {
	t.Helper()
	v, ok := row.Get(field)
	require.True(t, ok, "missing field %s", field)
	return v
}

func newTestStore(t *testing.T) (*store.InMemoryStore, []string) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := store.NewInMemoryStore(store.WithInMemoryClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	}))

	older, err := st.Create(ctx, conversation.DefaultTitle)
	require.NoError(t, err)
	newer, err := st.Create(ctx, conversation.DefaultTitle)
	require.NoError(t, err)

	require.NoError(t, st.AppendMessage(ctx, newer, conversation.NewUserMessage("What is the dosage for drug X?")))
	require.NoError(t, st.AppendMessage(ctx, newer, conversation.NewAssistantMessage("10mg",
		conversation.WithSources([]string{"doc1.pdf", "doc2.pdf"}))))

	return st, []string{newer, older}
}

func TestSummaryRowsKeepFullIDs(t *testing.T) {
	st, ids := newTestStore(t)

	rows, err := summaryRows(context.Background(), st, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, ids[0], cell(t, rows[0], "id"))
	assert.Len(t, cell(t, rows[0], "id"), 36)
	assert.Equal(t, "What is the dosage for drug X?", cell(t, rows[0], "title"))
	assert.Equal(t, 2, cell(t, rows[0], "messages"))

	assert.Equal(t, ids[1], cell(t, rows[1], "id"))
	assert.Equal(t, conversation.DefaultTitle, cell(t, rows[1], "title"))
	assert.Equal(t, 0, cell(t, rows[1], "messages"))
}

func TestSummaryRowsLimit(t *testing.T) {
	st, ids := newTestStore(t)

	rows, err := summaryRows(context.Background(), st, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ids[0], cell(t, rows[0], "id"))
}

func TestMessageRows(t *testing.T) {
	st, ids := newTestStore(t)
	ctx := context.Background()

	rows, err := messageRows(ctx, st, ids[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "user", cell(t, rows[0], "role"))
	assert.Equal(t, "What is the dosage for drug X?", cell(t, rows[0], "content"))
	assert.Equal(t, "", cell(t, rows[0], "sources"))
	assert.Equal(t, "assistant", cell(t, rows[1], "role"))
	assert.Equal(t, "10mg", cell(t, rows[1], "content"))
	assert.Equal(t, "doc1.pdf, doc2.pdf", cell(t, rows[1], "sources"))

	_, err = messageRows(ctx, st, "missing")
	assert.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestConversationsCommandTree(t *testing.T) {
	cmd, err := NewConversationsCommand()
	require.NoError(t, err)

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show", "delete"}, names)

	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	assert.NotNil(t, list.Flags().Lookup("output"), "list renders through the glazed output flags")
	assert.NotNil(t, list.Flags().Lookup("limit"))
}
