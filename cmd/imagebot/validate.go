package main

import (
	"fmt"

	"github.com/anatolykoptev/go-imagebot"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <url>",
	Short: "Check whether an image URL can be sent to LINE",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	v := imagebot.NewValidator(nil, cfg.Images.RestrictedDomains)
	verdict := v.Inspect(cmd.Context(), args[0])

	out := cmd.OutOrStdout()
	c := verdict.Candidate
	if c.Status != 0 {
		fmt.Fprintf(out, "status:         %d\n", c.Status)
		fmt.Fprintf(out, "content-type:   %s\n", c.ContentType)
		fmt.Fprintf(out, "content-length: %s\n", c.ContentLength)
	}
	if !verdict.Accepted() {
		return fmt.Errorf("rejected by %s", verdict.Rejection)
	}

	meta, err := v.ReadMetadata(cmd.Context(), c.URL)
	if err != nil {
		fmt.Fprintf(out, "metadata:       %v\n", err)
	}
	c.Metadata = meta

	la := imagebot.AssessLicense(c)
	fmt.Fprintf(out, "accepted (license: %s", la.License)
	if la.Attribution != "" {
		fmt.Fprintf(out, ", credit: %s", la.Attribution)
	}
	fmt.Fprintln(out, ")")
	return nil
}
