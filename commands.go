package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"timelapse-deflicker/internal/correct"
	"timelapse-deflicker/internal/frameio"
	"timelapse-deflicker/internal/report"
)

var (
	errNoInput        = errors.New("one of --path or --input is required")
	errInvalidQuality = errors.New("--jpeg-quality must be in [1, 100]")
)

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string
	root := &cobra.Command{
		Use:           "deflicker",
		Short:         "Remove exposure flicker from timelapse frame sequences",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error.")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json.")

	root.AddCommand(newRunCmd(), newAnalyzeCmd(), newStrategiesCmd())
	return root
}

func setupLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	switch format {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// input selects the frames of a command: a glob, or a directory optionally narrowed
// to explicit names kept in the given order.
type input struct {
	path string
	dir  string
}

func (in *input) register(flags *pflag.FlagSet) {
	flags.StringVar(&in.path, "path", "", "Path to frames which supports glob formatting. Ex: 'Shoot/*.jpeg'.")
	flags.StringVar(&in.dir, "input", "", "Directory holding the frames. Extra arguments name frames in capture order.")
}

func (in *input) sequence(names []string) (frameio.Sequence, error) {
	switch {
	case in.path != "" && in.dir != "":
		return frameio.Sequence{}, errors.New("--path and --input are mutually exclusive")
	case in.path != "":
		if len(names) > 0 {
			return frameio.Sequence{}, errors.New("frame names can only be given with --input")
		}
		return frameio.Glob(in.path)
	case in.dir != "" && len(names) > 0:
		return frameio.FromNames(in.dir, names)
	case in.dir != "":
		return frameio.Dir(in.dir)
	default:
		return frameio.Sequence{}, errNoInput
	}
}

func newRunCmd() *cobra.Command {
	var (
		in         input
		strategy   string
		output     string
		quality    int
		reportPath string
		measure    bool
	)
	p := correct.DefaultParams()

	cmd := &cobra.Command{
		Use:   "run [frame names...]",
		Short: "Correct a frame sequence with one strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := in.sequence(args)
			if err != nil {
				return err
			}
			if quality < 1 || quality > 100 {
				return fmt.Errorf("%w, got %d", errInvalidQuality, quality)
			}
			s, err := correct.New(strategy, p)
			if err != nil {
				return err
			}
			store := frameio.NewStore(seq)
			run := report.NewRun(strategy, p)
			run.Input, run.Output, run.FramesIn = describe(in), output, store.Len()

			log := logrus.WithFields(logrus.Fields{
				"function": "run",
				"run_id":   run.ID,
				"strategy": strategy,
			})
			if measure && reportPath != "" {
				before, err := report.Analyze(cmd.Context(), store)
				if err != nil {
					return err
				}
				run.FlickerIn = &before.Flicker
			}

			var (
				sink     correct.Sink = frameio.NewExporter(output, quality)
				measured *report.MeasuringSink
			)
			if reportPath != "" {
				measured = report.Measure(sink)
				sink = measured
			}
			log.WithFields(logrus.Fields{
				"frames": store.Len(),
				"output": output,
			}).Info("Correcting sequence")
			start := time.Now()
			runErr := s.Run(cmd.Context(), store, sink)
			run.Finish(measured, runErr)

			if reportPath != "" {
				if err := report.WriteYAML(reportPath, run); err != nil {
					log.WithError(err).Error("Failed to write run report")
				}
			}
			if runErr != nil {
				return runErr
			}
			log.WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).
				Info("Sequence corrected")
			return nil
		},
	}

	flags := cmd.Flags()
	in.register(flags)
	flags.StringVar(&strategy, "strategy", correct.Default, "Correction strategy, see 'deflicker strategies'.")
	flags.StringVar(&output, "output", frameio.DefaultOutputDir, "Directory corrected frames are written to, created if absent.")
	flags.IntVar(&quality, "jpeg-quality", frameio.DefaultJPEGQuality, "Quality of JPEG output, 1 to 100.")
	flags.StringVar(&reportPath, "report", "", "Write a YAML run report to this file ('-' for stdout).")
	flags.BoolVar(&measure, "measure-input", false, "Also measure input flicker for the report (decodes every frame once more).")

	flags.IntVar(&p.Threshold, "threshold", p.Threshold, "threshold_point: brightness jump treated as a scene change.")
	flags.IntVar(&p.MaxStep, "max-step", p.MaxStep, "threshold_point: largest brightness change per frame.")
	flags.Float64Var(&p.Weight, "weight", p.Weight, "average_point: accumulation weight.")
	flags.BoolVar(&p.NormalizeWeights, "normalize-weights", p.NormalizeWeights, "average_point: weigh the three frames equally.")
	flags.BoolVar(&p.EmitLast, "emit-last", p.EmitLast, "average_point: also write the last frame unmodified.")
	flags.IntVar(&p.HalfWindow, "window", p.HalfWindow, "average_frame_hsv, average_delta_frames: sliding window half-width.")
	flags.Float64Var(&p.OutlierThreshold, "outlier-threshold", p.OutlierThreshold, "average_delta_frames: pixel difference ignored as motion.")
	flags.IntVar(&p.DarkCutoff, "dark-cutoff", p.DarkCutoff, "average_delta_frames: pixels at or below this in any channel are left alone.")
	flags.IntVar(&p.Frames, "frames", p.Frames, "temporal_matching: odd number of frames averaged.")
	flags.Float64Var(&p.Sigma, "N", p.Sigma, "temporal_matching: reject samples more than N standard deviations from the pixel mean (0 disables).")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		in         input
		reportPath string
	)
	cmd := &cobra.Command{
		Use:   "analyze [frame names...]",
		Short: "Print per-frame channel means and the brightness flicker of a sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := in.sequence(args)
			if err != nil {
				return err
			}
			a, err := report.Analyze(cmd.Context(), frameio.NewStore(seq))
			if err != nil {
				return err
			}
			if reportPath != "" {
				return report.WriteYAML(reportPath, a)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "frame, hue, saturation, brightness")
			for _, f := range a.Frames {
				fmt.Fprintf(out, "%s, %.3f, %.3f, %.3f\n", f.Name, f.Hue, f.Saturation, f.Brightness)
			}
			fmt.Fprintf(out, "brightness flicker: %.4f\n", a.Flicker)
			return nil
		},
	}
	in.register(cmd.Flags())
	cmd.Flags().StringVar(&reportPath, "report", "", "Write the analysis as YAML to this file ('-' for stdout).")
	return cmd
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List correction strategies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range correct.Names() {
				if name == correct.Default {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", name)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func describe(in input) string {
	if in.path != "" {
		return in.path
	}
	return in.dir
}
