package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"musiclip/config"
	"musiclip/storage"
)

var (
	storagePrefix string
	storageStats  bool
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect the clip bucket",
	Long:  `List stored clip objects or show bucket statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ctx := context.Background()

		store, err := storage.NewClipStore(cfg)
		if err != nil {
			log.Fatalf("Failed to create clip store: %v", err)
		}

		if storageStats {
			count, totalSize, err := store.Stats(ctx, storagePrefix)
			if err != nil {
				log.Fatalf("Failed to read bucket stats: %v", err)
			}
			fmt.Printf("Bucket: %s\n", store.Bucket())
			fmt.Printf("Objects: %d\n", count)
			fmt.Printf("Total size: %.2f MB\n", float64(totalSize)/(1024*1024))
			return
		}

		clips, err := store.ListClips(ctx, storagePrefix)
		if err != nil {
			log.Fatalf("Failed to list clips: %v", err)
		}
		if len(clips) == 0 {
			fmt.Println("No objects found.")
			return
		}
		for _, clip := range clips {
			fmt.Printf("%10d  %s\n", clip.Size, clip.Name)
		}
	},
}

func init() {
	storageCmd.Flags().StringVar(&storagePrefix, "prefix", "", "Only list objects under this prefix")
	storageCmd.Flags().BoolVar(&storageStats, "stats", false, "Show bucket statistics instead of listing")
	rootCmd.AddCommand(storageCmd)
}
