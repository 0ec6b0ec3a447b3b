package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVocabularyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vocabulary",
		Short: "List recognizable signs in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SIGN\tKEYWORD\tCONFIDENCE\tPATTERNS")
			for _, s := range rt.vocab.Signs() {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", s.ID, rt.vocab.Keyword(s.ID), s.Confidence, strings.Join(s.Patterns, ","))
			}
			return tw.Flush()
		},
	}
}
