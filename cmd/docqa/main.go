package main

import (
	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/docqa/cmd/docqa/cmds"
	"github.com/go-go-golems/docqa/pkg/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "docqa"

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "docqa asks questions about your PDF documents",
	Long: "docqa talks to a question-answering service and a document ingestion service " +
		"and keeps the conversation history in a local or shared store.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// --log-level and --log-file are only known once flags are parsed
		cobra.CheckErr(clay.InitLogger())
	},
}

func main() {
	// settings flags first, so InitViper binds them with the logging flags
	settings.AddFlags(rootCmd.PersistentFlags())

	cobra.CheckErr(clay.InitViper(appName, rootCmd))
	cobra.CheckErr(settings.BindEnv(viper.GetViper(), "DOCQA"))
	cobra.CheckErr(viper.BindPFlags(rootCmd.PersistentFlags()))
	cobra.CheckErr(clay.InitLogger())

	log.Debug().Str("config", viper.ConfigFileUsed()).Msg("Loaded configuration")

	conversationsCmd, err := cmds.NewConversationsCommand()
	cobra.CheckErr(err)

	rootCmd.AddCommand(cmds.NewChatCommand())
	rootCmd.AddCommand(cmds.NewAskCommand())
	rootCmd.AddCommand(cmds.NewUploadCommand())
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(cmds.NewConfigCommand())

	cobra.CheckErr(rootCmd.Execute())
}
