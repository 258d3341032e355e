package cmds

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/docqa/pkg/events"
	"github.com/go-go-golems/docqa/pkg/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

// tuiLogWriter is where logs go while the terminal UI owns the screen: the
// --log-file when set, nowhere otherwise.
func tuiLogWriter(logFile string) io.Writer {
	if logFile == "" {
		return io.Discard
	}
	return zerolog.ConsoleWriter{
		NoColor: true,
		Out: &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		},
	}
}

func NewChatCommand() *cobra.Command {
	var eventsLog string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with your documents in an interactive terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			previousLogger := log.Logger
			log.Logger = log.Logger.Output(tuiLogWriter(viper.GetString("log-file")))
			defer func() {
				log.Logger = previousLogger
			}()

			options := []events.EventRouterOption{events.WithVerbose(verbose)}
			if eventsLog != "" {
				f, err := os.OpenFile(eventsLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return errors.Wrap(err, "could not open events log")
				}
				defer func() {
					_ = f.Close()
				}()
				options = append(options, events.WithDumpWriter(f))
			}

			router, err := events.NewEventRouter(options...)
			if err != nil {
				return err
			}
			defer func() {
				_ = router.Close()
			}()

			a, err := newApp(ctx, router.Sink(events.TopicOrchestrator))
			if err != nil {
				return err
			}
			defer a.Close()

			p := tea.NewProgram(
				ui.NewModel(ctx, a.orchestrator),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)

			router.AddHandler("ui-forward", events.TopicOrchestrator, ui.OrchestratorForwardFunc(p))
			if eventsLog != "" {
				router.AddHandler("events-log", events.TopicOrchestrator, router.DumpRawEvents)
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return router.Run(ctx)
			})
			eg.Go(func() error {
				defer cancel()
				<-router.Running()

				if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
					return errors.Wrap(err, "chat UI failed")
				}
				log.Debug().Msg("Chat UI exited")
				return nil
			})

			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&eventsLog, "events-log", "", "Append every orchestrator event as JSON to this file")
	cmd.Flags().BoolVar(&verbose, "verbose-events", false, "Log the event router internals")

	return cmd
}
