package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/replay"
)

func newReplayCommand(opts *globalOptions) *cobra.Command {
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a recorded landmark stream and print its transcript",
		Long: "Replay reads one frame message per line, {\"t\":ms,\"hand\":{...}|null},\n" +
			"drives a session on the recorded timestamps and prints the transcript\n" +
			"followed by its summary as JSON. Use - to read standard input.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			player, err := replay.NewPlayer(rt.cfg.Recognition, rt.log, rt.sessionOptions()...)
			if err != nil {
				return err
			}
			res, err := player.Play(cmd.Context(), in)
			if err != nil {
				return err
			}
			rt.log.WithField("frames", res.Frames).WithField("degraded", res.Degraded).Debug("replay complete")
			return printResult(cmd.OutOrStdout(), res, summaryOnly)
		},
	}
	cmd.Flags().BoolVar(&summaryOnly, "summary-only", false, "print only the summary JSON")
	return cmd
}

func printResult(w io.Writer, res *replay.Result, summaryOnly bool) error {
	if !summaryOnly {
		if _, err := fmt.Fprintln(w, res.Transcript.Text); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Transcript.Summary)
}
