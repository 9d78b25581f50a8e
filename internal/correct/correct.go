// Package correct implements the temporal flicker correction strategies.
//
// Every strategy reads frames from a Source in sequence order and hands each corrected
// frame to a Sink as soon as it is produced. Strategies hold at most a bounded window of
// whole frames plus per-frame scalar statistics; nothing outlives a single Run.
package correct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"timelapse-deflicker/internal/frame"
	"timelapse-deflicker/internal/series"
)

var (
	// ErrSequenceTooShort is returned when a sequence has fewer frames than a strategy needs.
	ErrSequenceTooShort = errors.New("sequence too short")

	// ErrInvalidParameter is returned by Params.Validate.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownStrategy is returned by New for names that are not registered.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Source is an ordered, positional collection of decoded frames.
type Source interface {
	Len() int
	Name(i int) string
	// Load decodes frame i. Returned frames are in the RGB model.
	Load(i int) (*frame.Frame, error)
}

// Sink receives corrected frames under the name of the input they replace.
type Sink interface {
	Write(name string, f *frame.Frame) error
}

// Strategy is one temporal correction algorithm.
type Strategy interface {
	Name() string
	// MinFrames is the shortest sequence Run accepts.
	MinFrames() int
	Run(ctx context.Context, src Source, dst Sink) error
}

// runner is the load/check/write scaffold shared by all strategies.
type runner struct {
	strategy string
	src      Source
	dst      Sink
	n        int
	ref      *frame.Frame
	written  int
	started  time.Time
}

func newRunner(s Strategy, src Source, dst Sink) (*runner, error) {
	n := src.Len()
	if need := max(s.MinFrames(), 1); n < need {
		return nil, fmt.Errorf("%w: %s needs at least %d frames, got %d", ErrSequenceTooShort, s.Name(), need, n)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"strategy": s.Name(),
		"frames":   n,
	}).Info("Starting correction run")
	return &runner{strategy: s.Name(), src: src, dst: dst, n: n, started: time.Now()}, nil
}

// load decodes frame i and checks it against the first frame loaded in this run.
func (r *runner) load(ctx context.Context, i int) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := r.src.Load(i)
	if err != nil {
		return nil, fmt.Errorf("load frame %d (%s): %w", i, r.src.Name(i), err)
	}
	if r.ref == nil {
		r.ref = f
	} else if err := frame.CheckSameSize(r.ref, f); err != nil {
		return nil, fmt.Errorf("frame %d (%s): %w", i, r.src.Name(i), err)
	}
	return f, nil
}

func (r *runner) write(i int, f *frame.Frame) error {
	name := r.src.Name(i)
	if err := r.dst.Write(name, f); err != nil {
		return fmt.Errorf("write frame %d (%s): %w", i, name, err)
	}
	r.written++
	logrus.WithFields(logrus.Fields{
		"function": "write",
		"strategy": r.strategy,
		"index":    i,
		"frame":    name,
	}).Debug("Frame written")
	return nil
}

// passthrough writes frame i exactly as decoded.
func (r *runner) passthrough(ctx context.Context, i int) error {
	f, err := r.load(ctx, i)
	if err != nil {
		return err
	}
	return r.write(i, f)
}

// each loads every frame in order, applies fn and writes the result.
func (r *runner) each(ctx context.Context, fn func(i int, f *frame.Frame) (*frame.Frame, error)) error {
	for i := 0; i < r.n; i++ {
		f, err := r.load(ctx, i)
		if err != nil {
			return err
		}
		out, err := fn(i, f)
		if err != nil {
			return fmt.Errorf("correct frame %d (%s): %w", i, r.src.Name(i), err)
		}
		if err := r.write(i, out); err != nil {
			return err
		}
	}
	return nil
}

// means collects per-channel frame means in the given colour model.
func (r *runner) means(ctx context.Context, model frame.Model) (series.Channels, error) {
	var out series.Channels
	for i := 0; i < r.n; i++ {
		f, err := r.load(ctx, i)
		if err != nil {
			return out, err
		}
		if model == frame.HSV {
			f = f.ToHSV()
		}
		out.Append(series.ChannelMeans(f))
	}
	return out, nil
}

func (r *runner) finish() {
	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"strategy": r.strategy,
		"frames":   r.n,
		"written":  r.written,
		"elapsed":  time.Since(r.started).String(),
	}).Info("Correction run finished")
}
