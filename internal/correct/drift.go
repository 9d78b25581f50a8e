package correct

import (
	"context"
	"math"

	"timelapse-deflicker/internal/frame"
	"timelapse-deflicker/internal/series"
)

// averageDeltaFrames estimates global colour drift by integrating the mean per-pixel
// difference of consecutive frames, ignoring differences larger than outlier (moving
// objects), then pulls every frame towards the windowed drift estimate.
//
// Outliers are only excluded while estimating. The correction itself is applied to
// every pixel brighter than dark in all three channels.
type averageDeltaFrames struct {
	outlier    float64
	halfWindow int
	dark       uint8
}

func (s *averageDeltaFrames) Name() string   { return AverageDeltaFrames }
func (s *averageDeltaFrames) MinFrames() int { return 1 }

func (s *averageDeltaFrames) Run(ctx context.Context, src Source, dst Sink) error {
	r, err := newRunner(s, src, dst)
	if err != nil {
		return err
	}
	drift, means, err := s.estimate(ctx, r)
	if err != nil {
		return err
	}
	var targets series.Channels
	for c := range drift {
		if targets[c], err = series.Smooth(drift[c], s.halfWindow); err != nil {
			return err
		}
	}
	err = r.each(ctx, func(i int, f *frame.Frame) (*frame.Frame, error) {
		var diff [frame.Channels]float64
		for c := range diff {
			diff[c] = targets[c][i] - means[c][i]
		}
		return applyDrift(f, diff, s.dark), nil
	})
	if err != nil {
		return err
	}
	r.finish()
	return nil
}

// estimate returns the integrated drift series, seeded with frame 0's true means, and
// the true per-channel means of every frame.
func (s *averageDeltaFrames) estimate(ctx context.Context, r *runner) (drift, means series.Channels, err error) {
	prev, err := r.load(ctx, 0)
	if err != nil {
		return drift, means, err
	}
	m := series.ChannelMeans(prev)
	drift.Append(m)
	means.Append(m)
	for i := 1; i < r.n; i++ {
		next, err := r.load(ctx, i)
		if err != nil {
			return drift, means, err
		}
		delta := meanDelta(prev, next, s.outlier)
		last := drift.At(i - 1)
		for c := range last {
			last[c] += delta[c]
		}
		drift.Append(last)
		means.Append(series.ChannelMeans(next))
		prev = next
	}
	return drift, means, nil
}

// meanDelta averages next-prev per channel over all pixels, counting differences whose
// magnitude exceeds outlier as zero.
func meanDelta(prev, next *frame.Frame, outlier float64) [frame.Channels]float64 {
	var out [frame.Channels]float64
	n := prev.Pixels()
	if n == 0 {
		return out
	}
	for c := 0; c < frame.Channels; c++ {
		a, b := prev.Plane(c), next.Plane(c)
		var sum float64
		for p := range a {
			d := float64(b[p]) - float64(a[p])
			if math.Abs(d) > outlier {
				continue
			}
			sum += d
		}
		out[c] = sum / float64(n)
	}
	return out
}

// applyDrift adds diff to every pixel whose channels are all above dark.
func applyDrift(f *frame.Frame, diff [frame.Channels]float64, dark uint8) *frame.Frame {
	out := f.Clone()
	r, g, b := out.Plane(frame.R), out.Plane(frame.G), out.Plane(frame.B)
	for p := range r {
		if r[p] <= dark || g[p] <= dark || b[p] <= dark {
			continue
		}
		r[p] = frame.Saturate(float64(r[p]) + diff[frame.R])
		g[p] = frame.Saturate(float64(g[p]) + diff[frame.G])
		b[p] = frame.Saturate(float64(b[p]) + diff[frame.B])
	}
	return out
}
