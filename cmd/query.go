package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"musiclip/config"
	"musiclip/server"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Interactive similarity query shell",
	Long: `Query the music embedding index from the terminal.

A free-text line searches by text; a line wrapped in brackets, like
[1234567890], finds songs similar to that song ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx := context.Background()

		handler, cleanup, err := server.NewHandlerFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		handler.InteractiveShell(ctx, os.Stdin, os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
