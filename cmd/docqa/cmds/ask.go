package cmds

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/docqa/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewAskCommand() *cobra.Command {
	var conversationID string
	var plain bool

	cmd := &cobra.Command{
		Use:   "ask [--conversation ID] <question...>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.useConversation(ctx, conversationID); err != nil {
				return err
			}

			sendErr := a.orchestrator.SendMessage(ctx, strings.Join(args, " "))

			state := a.orchestrator.State()
			msgs := state.ActiveMessages
			if len(msgs) > 0 {
				last := msgs[len(msgs)-1]
				if last.Role == conversation.RoleAssistant {
					if err := printAnswer(cmd, last, plain || sendErr != nil); err != nil {
						return err
					}
				}
			}
			if state.ActiveConversationID != "" {
				cmd.PrintErrf("conversation: %s\n", state.ActiveConversationID)
			}

			if sendErr != nil {
				return errors.Wrap(sendErr, "ask failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Continue this conversation instead of starting a new one")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the answer without markdown rendering")

	return cmd
}

func printAnswer(cmd *cobra.Command, msg *conversation.Message, plain bool) error {
	out := msg.Content
	if !plain {
		styled, err := glamour.Render(msg.Content, "dark")
		if err != nil {
			return err
		}
		out = styled
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
	if err != nil {
		return err
	}

	if len(msg.Sources) > 0 {
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nSources:\n")
		if err != nil {
			return err
		}
		for _, s := range msg.Sources {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", s); err != nil {
				return err
			}
		}
	}
	return nil
}
