package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"musiclip/config"
	"musiclip/logger"
)

var rootCmd = &cobra.Command{
	Use:   "musiclip",
	Short: "Musiclip builds and serves a music similarity catalogue.",
	Long: `Musiclip ingests Apple Music playlists into a vector index of audio
embeddings and serves text and song similarity queries over HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogPath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
