package cmds

import (
	"github.com/go-go-golems/docqa/pkg/settings"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// effectiveConfig renders durations as strings, yaml.v3 would print nanoseconds.
type effectiveConfig struct {
	ConfigFile          string                 `yaml:"config-file,omitempty"`
	LLMQAURL            string                 `yaml:"llm-qa-url"`
	IngestorURL         string                 `yaml:"ingestor-url"`
	HTTPTimeout         string                 `yaml:"http-timeout"`
	NotificationTimeout string                 `yaml:"notification-timeout"`
	StrictURLs          bool                   `yaml:"strict-urls"`
	Store               settings.StoreSettings `yaml:"store"`
}

func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(effectiveConfig{
				ConfigFile:          viper.ConfigFileUsed(),
				LLMQAURL:            s.LLMQAURL,
				IngestorURL:         s.IngestorURL,
				HTTPTimeout:         s.HTTPTimeout.String(),
				NotificationTimeout: s.NotificationTimeout.String(),
				StrictURLs:          s.StrictURLs,
				Store:               s.Store,
			}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
