package correct

import (
	"context"

	"timelapse-deflicker/internal/frame"
	"timelapse-deflicker/internal/series"
)

// averageFrameExp shifts each frame's brightness so its mean matches the mean of the
// five frames centred on it. The first and last two frames are written unmodified,
// so sequences shorter than five frames come out unchanged.
type averageFrameExp struct{}

func (s *averageFrameExp) Name() string   { return AverageFrameExp }
func (s *averageFrameExp) MinFrames() int { return 1 }

func (s *averageFrameExp) Run(ctx context.Context, src Source, dst Sink) error {
	r, err := newRunner(s, src, dst)
	if err != nil {
		return err
	}
	if r.n < 2*expHalfWindow+1 {
		for i := 0; i < r.n; i++ {
			if err := r.passthrough(ctx, i); err != nil {
				return err
			}
		}
		r.finish()
		return nil
	}
	means, err := r.means(ctx, frame.HSV)
	if err != nil {
		return err
	}
	brightness := means[frame.V]
	err = r.each(ctx, func(i int, f *frame.Frame) (*frame.Frame, error) {
		if i < expHalfWindow || i >= r.n-expHalfWindow {
			return f, nil
		}
		target, err := series.WindowMean(brightness, i, expHalfWindow)
		if err != nil {
			return nil, err
		}
		hsv := f.ToHSV()
		hsv.AddSaturating(frame.V, target-brightness[i])
		return hsv.ToRGB(), nil
	})
	if err != nil {
		return err
	}
	r.finish()
	return nil
}

// averageFrameHSV shifts hue, saturation and brightness of every frame so each
// channel mean matches its boundary clipped sliding window mean.
type averageFrameHSV struct {
	halfWindow int
}

func (s *averageFrameHSV) Name() string   { return AverageFrameHSV }
func (s *averageFrameHSV) MinFrames() int { return 1 }

func (s *averageFrameHSV) Run(ctx context.Context, src Source, dst Sink) error {
	r, err := newRunner(s, src, dst)
	if err != nil {
		return err
	}
	means, err := r.means(ctx, frame.HSV)
	if err != nil {
		return err
	}
	var targets series.Channels
	for c := range means {
		if targets[c], err = series.Smooth(means[c], s.halfWindow); err != nil {
			return err
		}
	}
	err = r.each(ctx, func(i int, f *frame.Frame) (*frame.Frame, error) {
		hsv := f.ToHSV()
		for c := 0; c < frame.Channels; c++ {
			hsv.AddSaturating(c, targets[c][i]-means[c][i])
		}
		return hsv.ToRGB(), nil
	})
	if err != nil {
		return err
	}
	r.finish()
	return nil
}
