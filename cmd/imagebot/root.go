package main

import (
	"fmt"
	"os"

	"github.com/anatolykoptev/go-imagebot/internal/config"
	"github.com/anatolykoptev/go-imagebot/internal/logging"
	"github.com/spf13/cobra"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "imagebot",
	Short: "LINE image search bot",
	Long: `imagebot answers LINE text messages with an image found by keyword
search, validated for display, plus a short generated description.

Commands:
  imagebot serve            Run the webhook server
  imagebot search <query>   Run one image search and print the result
  imagebot validate <url>   Run the image checks against one URL`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Setup(cfg.Log)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("imagebot (%s)\n", Build)
	},
}

func init() {
	config.AddFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
