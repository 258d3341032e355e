package cmds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/go-go-golems/docqa/pkg/store"
	"github.com/go-go-golems/glazed/pkg/cli"
	glazed_cmds "github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	glazed_settings "github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewConversationsCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Inspect and manage stored conversations",
	}

	listCmd, err := NewListConversationsCommand()
	if err != nil {
		return nil, err
	}
	listCobraCmd, err := cli.BuildCobraCommandFromGlazeCommand(listCmd)
	if err != nil {
		return nil, err
	}

	showCmd, err := NewShowConversationCommand()
	if err != nil {
		return nil, err
	}
	showCobraCmd, err := cli.BuildCobraCommandFromGlazeCommand(showCmd)
	if err != nil {
		return nil, err
	}

	cmd.AddCommand(listCobraCmd)
	cmd.AddCommand(showCobraCmd)
	cmd.AddCommand(newDeleteConversationCommand())

	return cmd, nil
}

type ListConversationsCommand struct {
	*glazed_cmds.CommandDescription
}

var _ glazed_cmds.GlazeCommand = &ListConversationsCommand{}

type ListConversationsSettings struct {
	Limit int `glazed.parameter:"limit"`
}

func NewListConversationsCommand() (*ListConversationsCommand, error) {
	glazedParameterLayer, err := glazed_settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}

	return &ListConversationsCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"list",
			glazed_cmds.WithShort("List conversations, most recently updated first"),
			glazed_cmds.WithFlags(
				parameters.NewParameterDefinition(
					"limit",
					parameters.ParameterTypeInteger,
					parameters.WithHelp("Only list this many conversations (0 lists all)"),
					parameters.WithDefault(0),
				),
			),
			glazed_cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *ListConversationsCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &ListConversationsSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return err
	}

	_, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	rows, err := summaryRows(ctx, st, s.Limit)
	if err != nil {
		return err
	}
	return addRows(ctx, gp, rows)
}

type ShowConversationCommand struct {
	*glazed_cmds.CommandDescription
}

var _ glazed_cmds.GlazeCommand = &ShowConversationCommand{}

type ShowConversationSettings struct {
	ConversationID string `glazed.parameter:"conversation-id"`
}

func NewShowConversationCommand() (*ShowConversationCommand, error) {
	glazedParameterLayer, err := glazed_settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, err
	}

	return &ShowConversationCommand{
		CommandDescription: glazed_cmds.NewCommandDescription(
			"show",
			glazed_cmds.WithShort("Print the messages of a conversation"),
			glazed_cmds.WithArguments(
				parameters.NewParameterDefinition(
					"conversation-id",
					parameters.ParameterTypeString,
					parameters.WithHelp("Id of the conversation, as printed by list"),
					parameters.WithRequired(true),
				),
			),
			glazed_cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *ShowConversationCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &ShowConversationSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return err
	}

	_, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	rows, err := messageRows(ctx, st, s.ConversationID)
	if err != nil {
		return err
	}
	return addRows(ctx, gp, rows)
}

func newDeleteConversationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id...>",
		Short: "Delete conversations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = st.Close()
			}()

			for _, id := range args {
				if err := st.Delete(ctx, id); err != nil {
					return errors.Wrapf(err, "could not delete %s", id)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}
}

// summaryRows lists the conversations of st, most recent first. A positive
// limit truncates the list.
func summaryRows(ctx context.Context, st store.Store, limit int) ([]types.Row, error) {
	convs, err := st.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not list conversations")
	}
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}

	ret := make([]types.Row, 0, len(convs))
	for _, s := range conversation.Summaries(convs) {
		ret = append(ret, types.NewRow(
			types.MRP("id", s.ID),
			types.MRP("title", s.Title),
			types.MRP("messages", s.MessageCount),
			types.MRP("created_at", s.CreatedAt.Format(time.RFC3339)),
			types.MRP("updated_at", s.UpdatedAt.Format(time.RFC3339)),
		))
	}
	return ret, nil
}

// messageRows returns one row per message of conversation id.
func messageRows(ctx context.Context, st store.Store, id string) ([]types.Row, error) {
	c, ok, err := st.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load conversation %s", id)
	}
	if !ok {
		return nil, &store.NotFoundError{ID: id}
	}

	ret := make([]types.Row, 0, len(c.Messages))
	for _, m := range c.Messages {
		ret = append(ret, types.NewRow(
			types.MRP("conversation", c.DisplayTitle()),
			types.MRP("timestamp", m.Timestamp.Format(time.RFC3339)),
			types.MRP("role", string(m.Role)),
			types.MRP("content", m.Content),
			types.MRP("sources", strings.Join(m.Sources, ", ")),
			types.MRP("id", m.ID),
		))
	}
	return ret, nil
}

func addRows(ctx context.Context, gp middlewares.Processor, rows []types.Row) error {
	for _, row := range rows {
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
