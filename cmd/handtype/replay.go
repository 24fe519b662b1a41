package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ayusman/handtype/internal/replay"
	"github.com/ayusman/handtype/internal/session"
)

var replayFlags struct {
	required int
	cooldown time.Duration
	quiet    bool
}

var replayCmd = &cobra.Command{
	Use:   "replay <recording.jsonl|->",
	Short: "Feed a recorded landmark stream through the gesture engine",
	Long: `Replay reads a JSON-lines recording, one frame per line:

  {"t":0,"hands":[{"points":[{"x":0.5,"y":0.9,"z":0}, ...]}]}

and prints every committed gesture followed by the resulting text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tunables, err := cfg.Tunables()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if cmd.Flags().Changed("required") {
			tunables.RequiredConsecutive = replayFlags.required
		}
		if cmd.Flags().Changed("cooldown") {
			tunables.Cooldown = replayFlags.cooldown
		}

		frames, err := readRecording(args[0])
		if err != nil {
			return err
		}

		sess, err := session.New("replay", session.Options{Config: tunables, Logger: logger})
		if err != nil {
			return err
		}
		defer sess.Close()

		var bar *progressbar.ProgressBar
		if !replayFlags.quiet {
			bar = progressbar.NewOptions(len(frames),
				progressbar.OptionSetDescription("Replaying"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}

		out := cmd.OutOrStdout()
		sum, err := replay.Run(cmd.Context(), frames, sess, time.Unix(0, 0), func(f replay.Frame, r session.Result) {
			if bar != nil {
				bar.Add(1)
			}
			if r.Action != nil {
				fmt.Fprintf(out, "%8dms  line %-6d %s\n", f.Offset.Milliseconds(), f.Line, r.Action.Gesture)
			}
		})
		if bar != nil {
			bar.Finish()
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "frames=%d hands=%d actions=%d\n", sum.Frames, sum.Hands, len(sum.Actions))
		fmt.Fprintf(out, "text: %q\n", sum.Text)
		return nil
	},
}

func init() {
	f := replayCmd.Flags()
	f.IntVar(&replayFlags.required, "required", 0, "consecutive frames needed to commit (default from config)")
	f.DurationVar(&replayFlags.cooldown, "cooldown", 0, "minimum time between actions (default from config)")
	f.BoolVarP(&replayFlags.quiet, "quiet", "q", false, "hide the progress bar")
}

func readRecording(path string) ([]replay.Frame, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	frames, err := replay.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}
