package correct

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	"timelapse-deflicker/internal/frame"
)

// temporalMatching replaces each frame's brightness with the per-pixel mean brightness
// of the frames window around it. Hue and saturation come from the centre frame.
// The first and last frames/2 frames lack a full window and are written unmodified.
//
// With sigma > 0 every pixel's window is sigma-clipped first: samples further than
// sigma standard deviations from the window mean (a passing car, a blinking light)
// are dropped before averaging.
type temporalMatching struct {
	frames int
	sigma  float64
}

func (s *temporalMatching) Name() string   { return TemporalMatching }
func (s *temporalMatching) MinFrames() int { return s.frames }

func (s *temporalMatching) Run(ctx context.Context, src Source, dst Sink) error {
	r, err := newRunner(s, src, dst)
	if err != nil {
		return err
	}
	half := s.frames / 2
	win := newRing(s.frames)
	for i := 0; i < s.frames; i++ {
		next, err := loadSlot(ctx, r, i)
		if err != nil {
			return err
		}
		win.push(next)
	}
	for i := 0; i < half; i++ {
		if err := r.write(i, win.at(i).raw); err != nil {
			return err
		}
	}

	sums := make([]int, r.ref.Pixels())
	for i := half; i < r.n-half; i++ {
		var out *frame.Frame
		if s.sigma > 0 {
			out = clippedAverage(win, s.sigma)
		} else {
			out = temporalAverage(win, sums)
		}
		if err := r.write(i, out.ToRGB()); err != nil {
			return err
		}
		if i+1 < r.n-half {
			next, err := loadSlot(ctx, r, i+1+half)
			if err != nil {
				return err
			}
			win.push(next)
		}
	}

	for j := half + 1; j < s.frames; j++ {
		if err := r.write(r.n-s.frames+j, win.at(j).raw); err != nil {
			return err
		}
	}
	r.finish()
	return nil
}

// temporalAverage builds the output for the centre of w. sums is scratch space of
// one int per pixel.
func temporalAverage(w *ring, sums []int) *frame.Frame {
	clear(sums)
	for j := 0; j < w.size(); j++ {
		for p, v := range w.at(j).hsv.Plane(frame.V) {
			sums[p] += int(v)
		}
	}
	out := w.at(w.size() / 2).hsv.Clone()
	v := out.Plane(frame.V)
	n := float64(w.size())
	for p, sum := range sums {
		v[p] = frame.Saturate(float64(sum) / n)
	}
	return out
}

// clippedAverage is temporalAverage with per-pixel sigma clipping.
func clippedAverage(w *ring, sigma float64) *frame.Frame {
	out := w.at(w.size() / 2).hsv.Clone()
	v := out.Plane(frame.V)
	samples := make(stats.Float64Data, w.size())
	kept := make(stats.Float64Data, 0, w.size())
	for p := range v {
		for j := range samples {
			samples[j] = float64(w.at(j).hsv.Plane(frame.V)[p])
		}
		v[p] = frame.Saturate(clippedMean(samples, kept, sigma))
	}
	return out
}

// clippedMean averages the samples within sigma sample standard deviations of their
// mean. It falls back to the plain mean when the filter would remove every sample.
// kept is scratch space with capacity for all samples.
func clippedMean(samples, kept stats.Float64Data, sigma float64) float64 {
	mean, err := stats.Mean(samples)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviationSample(samples)
	if err != nil || math.IsNaN(sd) {
		return mean
	}
	kept = kept[:0]
	for _, v := range samples {
		if math.Abs(v-mean) <= sigma*sd {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return mean
	}
	m, err := stats.Mean(kept)
	if err != nil {
		return mean
	}
	return m
}

// slot keeps the decoded frame next to its HSV form so passthrough frames are written
// without a colour round trip.
type slot struct {
	raw *frame.Frame
	hsv *frame.Frame
}

func loadSlot(ctx context.Context, r *runner, i int) (slot, error) {
	f, err := r.load(ctx, i)
	if err != nil {
		return slot{}, err
	}
	return slot{raw: f, hsv: f.ToHSV()}, nil
}

// ring is a fixed-size window of frames. Offset 0 is the oldest frame; push drops it.
type ring struct {
	slots []slot
	start int
	count int
}

func newRing(size int) *ring {
	return &ring{slots: make([]slot, size)}
}

func (w *ring) size() int {
	return len(w.slots)
}

func (w *ring) at(offset int) slot {
	if offset < 0 || offset >= w.count {
		panic("ring: offset out of range")
	}
	return w.slots[(w.start+offset)%len(w.slots)]
}

func (w *ring) push(s slot) {
	if w.count < len(w.slots) {
		w.slots[(w.start+w.count)%len(w.slots)] = s
		w.count++
		return
	}
	w.slots[w.start] = s
	w.start = (w.start + 1) % len(w.slots)
}
