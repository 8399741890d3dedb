package cmd

import (
	"github.com/spf13/cobra"

	"musiclip/config"
	"musiclip/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the query service",
	Long:  `Serve text and song similarity queries against the music embedding index.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(config.Load())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
