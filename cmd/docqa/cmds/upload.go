package cmds

import (
	"fmt"

	"github.com/go-go-golems/docqa/pkg/client"
	"github.com/spf13/cobra"
)

func NewUploadCommand() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "upload [--conversation ID] <file.pdf...>",
		Short: "Upload PDF documents to the ingestion service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := client.LoadDocuments(args...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.useConversation(ctx, conversationID); err != nil {
				return err
			}

			uploadErr := a.orchestrator.UploadDocuments(ctx, docs)

			state := a.orchestrator.State()
			if n := state.Notification; n != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), n.Text)
			}
			if state.ActiveConversationID != "" {
				cmd.PrintErrf("conversation: %s\n", state.ActiveConversationID)
			}
			return uploadErr
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Attach the documents to this conversation")

	return cmd
}
