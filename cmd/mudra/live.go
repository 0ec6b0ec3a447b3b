package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
)

func newLiveCommand(opts *globalOptions) *cobra.Command {
	var (
		duration time.Duration
		cameraID int
		file     string
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Record from a camera or video file and print the transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("camera") {
				rt.cfg.Detector.CameraID = cameraID
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var det detector.Detector
			mp, err := detector.NewMediaPipeDetector(rt.cfg.Detector.Config)
			if err != nil {
				rt.log.WithError(err).Warn("landmark model unavailable")
			} else {
				det = mp
				defer mp.Close()
			}

			s, err := session.New("live", rt.cfg.Recognition, rt.sessionOptions()...)
			if err != nil {
				return err
			}

			cam := capture.NewCamera(rt.cfg.Detector.CameraID)
			if file != "" {
				cam = capture.NewVideoFile(file)
			}
			a := app.New(app.Config{Duration: duration}, cam, det, s, rt.log)

			fmt.Fprintf(cmd.ErrOrStderr(), "Recording for %s, press Ctrl+C to stop early\n", duration)
			t, err := a.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Text)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 10*time.Second, "recording length")
	cmd.Flags().IntVar(&cameraID, "camera", 0, "camera device id (overrides detector.camera_id)")
	cmd.Flags().StringVar(&file, "file", "", "read frames from a recorded video instead of a camera")
	return cmd
}
