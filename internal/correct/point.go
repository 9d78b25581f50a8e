package correct

import (
	"context"
	"math"

	"timelapse-deflicker/internal/frame"
)

// averagePoint smooths brightness per pixel with a running weighted accumulator over
// the previous corrected frame, the current frame and the next one.
//
// The accumulator is never reset, so older frames keep a decaying share of every
// output. The last frame is not written unless emitLast is set.
type averagePoint struct {
	weight    float64
	normalize bool
	emitLast  bool
}

func (s *averagePoint) Name() string   { return AveragePoint }
func (s *averagePoint) MinFrames() int { return 3 }

func (s *averagePoint) Run(ctx context.Context, src Source, dst Sink) error {
	r, err := newRunner(s, src, dst)
	if err != nil {
		return err
	}
	first, err := r.load(ctx, 0)
	if err != nil {
		return err
	}
	if err := r.write(0, first); err != nil {
		return err
	}
	prev := first.ToHSV().Plane(frame.V)
	acc := newPointAccumulator(prev, s.weight, s.normalize)

	cur, err := r.load(ctx, 1)
	if err != nil {
		return err
	}
	curHSV := cur.ToHSV()
	var nextRaw *frame.Frame
	for i := 1; i < r.n-1; i++ {
		nextRaw, err = r.load(ctx, i+1)
		if err != nil {
			return err
		}
		nextHSV := nextRaw.ToHSV()

		acc.step(prev, curHSV.Plane(frame.V), nextHSV.Plane(frame.V))
		out := curHSV.Clone()
		acc.store(out.Plane(frame.V))
		if err := r.write(i, out.ToRGB()); err != nil {
			return err
		}
		prev = out.Plane(frame.V)
		curHSV = nextHSV
	}
	if s.emitLast {
		if err := r.write(r.n-1, nextRaw); err != nil {
			return err
		}
	}
	r.finish()
	return nil
}

// pointAccumulator is the floating point brightness state threaded through
// averagePoint: state' = step(state, prev, cur, next).
type pointAccumulator struct {
	acc       []float64
	alpha     float64
	normalize bool
}

// newPointAccumulator seeds the state with the first frame's brightness.
func newPointAccumulator(seed []uint8, alpha float64, normalize bool) *pointAccumulator {
	acc := make([]float64, len(seed))
	for i, v := range seed {
		acc[i] = float64(v)
	}
	return &pointAccumulator{acc: acc, alpha: alpha, normalize: normalize}
}

func (a *pointAccumulator) step(prev, cur, next []uint8) {
	if a.normalize {
		keep := 1 - 3*a.alpha
		for i := range a.acc {
			a.acc[i] = keep*a.acc[i] + a.alpha*(float64(prev[i])+float64(cur[i])+float64(next[i]))
		}
		return
	}
	// Three successive weighted accumulations, oldest frame first.
	for _, src := range [][]uint8{prev, cur, next} {
		for i := range a.acc {
			a.acc[i] = (1-a.alpha)*a.acc[i] + a.alpha*float64(src[i])
		}
	}
}

func (a *pointAccumulator) store(dst []uint8) {
	for i, v := range a.acc {
		dst[i] = frame.Saturate(math.Abs(v))
	}
}

// thresholdPoint limits small per-pixel brightness changes between consecutive frames
// to maxStep, and lets changes of threshold or more through as scene changes.
type thresholdPoint struct {
	threshold int
	maxStep   int
}

func (s *thresholdPoint) Name() string   { return ThresholdPoint }
func (s *thresholdPoint) MinFrames() int { return 1 }

func (s *thresholdPoint) Run(ctx context.Context, src Source, dst Sink) error {
	r, err := newRunner(s, src, dst)
	if err != nil {
		return err
	}
	var prev []uint8
	err = r.each(ctx, func(i int, f *frame.Frame) (*frame.Frame, error) {
		hsv := f.ToHSV()
		v := hsv.Plane(frame.V)
		if i == 0 {
			prev = v
			return f, nil
		}
		for p := range v {
			v[p] = gatePixel(prev[p], v[p], s.threshold, s.maxStep)
		}
		prev = v
		return hsv.ToRGB(), nil
	})
	if err != nil {
		return err
	}
	r.finish()
	return nil
}

// gatePixel moves prev towards cur by at most maxStep when the two are closer than
// threshold, and returns cur unchanged otherwise.
func gatePixel(prev, cur uint8, threshold, maxStep int) uint8 {
	diff := int(cur) - int(prev)
	offset := diff
	if offset < 0 {
		offset = -offset
	}
	if offset >= threshold {
		return cur
	}
	diff = max(-maxStep, min(maxStep, diff))
	return frame.Saturate(float64(int(prev) + diff))
}
