package main

import (
	"fmt"

	"github.com/anatolykoptev/go-imagebot"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one image search and print the result",
	Long: `Query the image search API, validate the candidates and print the
chosen image URL, or the message a chat user would get instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateSearch(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	bot, err := newBot(cmd.Context(), nil, nil)
	if err != nil {
		return err
	}

	res := bot.Searcher.Search(cmd.Context(), args[0])
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "outcome: %s\n", res.Outcome)
	if res.Outcome != imagebot.OutcomeFound {
		fmt.Fprintf(out, "reason:  %s\n", res.Reason)
	}
	fmt.Fprintln(out, res.String())
	return nil
}
