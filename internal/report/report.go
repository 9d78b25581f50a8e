// Package report measures sequences before and after correction and writes YAML
// summaries of runs.
package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"timelapse-deflicker/internal/correct"
	"timelapse-deflicker/internal/frame"
	"timelapse-deflicker/internal/series"
)

// FrameStats are the HSV channel means of one frame.
type FrameStats struct {
	Name       string  `yaml:"name"`
	Hue        float64 `yaml:"hue"`
	Saturation float64 `yaml:"saturation"`
	Brightness float64 `yaml:"brightness"`
}

// Analysis describes the brightness behaviour of a sequence.
type Analysis struct {
	Frames  []FrameStats `yaml:"frames"`
	Flicker float64      `yaml:"brightness_flicker"`
}

// Brightness returns the brightness series of the analysed frames.
func (a *Analysis) Brightness() series.Series {
	s := make(series.Series, len(a.Frames))
	for i, f := range a.Frames {
		s[i] = f.Brightness
	}
	return s
}

func (a *Analysis) add(name string, f *frame.Frame) {
	m := series.ChannelMeans(f.ToHSV())
	a.Frames = append(a.Frames, FrameStats{
		Name:       name,
		Hue:        m[frame.H],
		Saturation: m[frame.S],
		Brightness: m[frame.V],
	})
}

func (a *Analysis) finish() error {
	if len(a.Frames) == 0 {
		return nil
	}
	flicker, err := series.Flicker(a.Brightness())
	if err != nil {
		return err
	}
	a.Flicker = flicker
	return nil
}

// Analyze decodes every frame of src and records its channel means.
func Analyze(ctx context.Context, src correct.Source) (*Analysis, error) {
	a := &Analysis{}
	for i := 0; i < src.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := src.Load(i)
		if err != nil {
			return nil, fmt.Errorf("load frame %d (%s): %w", i, src.Name(i), err)
		}
		a.add(src.Name(i), f)
	}
	if err := a.finish(); err != nil {
		return nil, err
	}
	return a, nil
}

// MeasuringSink records the channel means of every frame passing through to Next.
type MeasuringSink struct {
	Next     correct.Sink
	analysis Analysis
}

func Measure(next correct.Sink) *MeasuringSink {
	return &MeasuringSink{Next: next}
}

func (m *MeasuringSink) Write(name string, f *frame.Frame) error {
	if err := m.Next.Write(name, f); err != nil {
		return err
	}
	m.analysis.add(name, f)
	return nil
}

// Analysis returns the statistics of the frames written so far.
func (m *MeasuringSink) Analysis() (*Analysis, error) {
	out := Analysis{Frames: append([]FrameStats(nil), m.analysis.Frames...)}
	if err := out.finish(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Run summarises one correction run.
type Run struct {
	ID         string         `yaml:"id"`
	Strategy   string         `yaml:"strategy"`
	Params     correct.Params `yaml:"params"`
	Input      string         `yaml:"input"`
	Output     string         `yaml:"output"`
	FramesIn   int            `yaml:"frames_in"`
	FramesOut  int            `yaml:"frames_out"`
	Started    time.Time      `yaml:"started"`
	Duration   string         `yaml:"duration"`
	FlickerIn  *float64       `yaml:"brightness_flicker_in,omitempty"`
	FlickerOut *float64       `yaml:"brightness_flicker_out,omitempty"`
	Error      string         `yaml:"error,omitempty"`
}

// NewRun starts a report with a fresh run id.
func NewRun(strategy string, p correct.Params) *Run {
	return &Run{
		ID:       uuid.NewString(),
		Strategy: strategy,
		Params:   p,
		Started:  time.Now(),
	}
}

// Finish fills in the outcome of the run from the measuring sink.
func (r *Run) Finish(out *MeasuringSink, runErr error) {
	r.Duration = time.Since(r.Started).Round(time.Millisecond).String()
	if runErr != nil {
		r.Error = runErr.Error()
	}
	if out == nil {
		return
	}
	a, err := out.Analysis()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Finish",
			"run_id":   r.ID,
			"error":    err.Error(),
		}).Warn("Failed to measure corrected frames")
		return
	}
	r.FramesOut = len(a.Frames)
	if len(a.Frames) > 0 {
		r.FlickerOut = &a.Flicker
	}
}

// WriteYAML stores v as YAML in path, or on stdout when path is "-".
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
