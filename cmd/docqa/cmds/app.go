package cmds

import (
	"context"
	"net/http"

	"github.com/go-go-golems/docqa/pkg/client"
	"github.com/go-go-golems/docqa/pkg/events"
	"github.com/go-go-golems/docqa/pkg/orchestrator"
	"github.com/go-go-golems/docqa/pkg/settings"
	"github.com/go-go-golems/docqa/pkg/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// app bundles what a command needs to talk to the services and the store.
type app struct {
	settings     *settings.Settings
	store        store.Store
	orchestrator *orchestrator.Orchestrator
}

func loadSettings() (*settings.Settings, error) {
	s, err := settings.NewFromViper(viper.GetViper())
	if err != nil {
		return nil, errors.Wrap(err, "invalid settings")
	}
	return s, nil
}

func openStore(ctx context.Context) (*settings.Settings, store.Store, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(ctx, s.Store)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not open conversation store")
	}
	return s, st, nil
}

func newApp(ctx context.Context, sink events.EventSink) (*app, error) {
	s, st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: s.HTTPTimeout}
	qa := client.NewQAClient(s.LLMQAURL, client.WithQAHTTPClient(httpClient))
	ingest := client.NewIngestClient(s.IngestorURL, client.WithIngestHTTPClient(httpClient))

	options := []orchestrator.Option{
		orchestrator.WithNotificationTimeout(s.NotificationTimeout),
	}
	if sink != nil {
		options = append(options, orchestrator.WithEventSink(sink))
	}

	log.Debug().
		Str("llm_qa_url", s.LLMQAURL).
		Str("ingestor_url", s.IngestorURL).
		Str("store", s.Store.Driver).
		Msg("Starting docqa")

	return &app{
		settings:     s,
		store:        st,
		orchestrator: orchestrator.New(st, qa, ingest, options...),
	}, nil
}

// useConversation selects id when given, so the next send or upload targets it.
func (a *app) useConversation(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return a.orchestrator.SelectConversation(ctx, id)
}

func (a *app) Close() {
	a.orchestrator.Close()
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close conversation store")
	}
}
