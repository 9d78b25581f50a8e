// Package series computes per-frame statistics and the sliding window averages the
// global strategies smooth them with.
package series

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"timelapse-deflicker/internal/frame"
)

var (
	// ErrEmpty is returned when a statistic is requested over no values.
	ErrEmpty = errors.New("empty series")

	// ErrBadWindow is returned for a negative half-window or an index outside the series.
	ErrBadWindow = errors.New("invalid window")
)

// Series is one scalar per frame, indexed like the sequence.
type Series []float64

// Channels holds one series per frame plane.
type Channels [frame.Channels]Series

// Append adds one frame's per-channel values.
func (c *Channels) Append(means [frame.Channels]float64) {
	for ch := range c {
		c[ch] = append(c[ch], means[ch])
	}
}

// Len returns the number of frames recorded.
func (c *Channels) Len() int {
	return len(c[0])
}

// At returns the per-channel values recorded for frame i.
func (c *Channels) At(i int) [frame.Channels]float64 {
	var out [frame.Channels]float64
	for ch := range c {
		out[ch] = c[ch][i]
	}
	return out
}

// ChannelMeans averages every plane of f over all of its pixels.
func ChannelMeans(f *frame.Frame) [frame.Channels]float64 {
	var means [frame.Channels]float64
	n := f.Pixels()
	if n == 0 {
		return means
	}
	for ch := 0; ch < frame.Channels; ch++ {
		var sum uint64
		for _, v := range f.Plane(ch) {
			sum += uint64(v)
		}
		means[ch] = float64(sum) / float64(n)
	}
	return means
}

// Window returns the inclusive index range [max(0,i-w), min(n-1,i+w)].
func Window(i, w, n int) (lo, hi int) {
	return max(0, i-w), min(n-1, i+w)
}

// WindowMean averages s over the boundary clipped window of half-width w around i.
func WindowMean(s Series, i, w int) (float64, error) {
	if w < 0 {
		return 0, fmt.Errorf("%w: negative half-window %d", ErrBadWindow, w)
	}
	if i < 0 || i >= len(s) {
		return 0, fmt.Errorf("%w: index %d outside series of %d", ErrBadWindow, i, len(s))
	}
	lo, hi := Window(i, w, len(s))
	mean, err := stats.Mean(stats.Float64Data(s[lo : hi+1]))
	if err != nil {
		return 0, fmt.Errorf("window mean at %d: %w", i, err)
	}
	return mean, nil
}

// Smooth returns the window mean of s at every index.
func Smooth(s Series, w int) (Series, error) {
	out := make(Series, len(s))
	for i := range s {
		m, err := WindowMean(s, i, w)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// Flicker is the population standard deviation of successive differences of s.
// A steady or smoothly ramping sequence scores near zero.
func Flicker(s Series) (float64, error) {
	if len(s) == 0 {
		return 0, ErrEmpty
	}
	if len(s) == 1 {
		return 0, nil
	}
	diffs := make(stats.Float64Data, len(s)-1)
	for i := 1; i < len(s); i++ {
		diffs[i-1] = s[i] - s[i-1]
	}
	sd, err := stats.StandardDeviationPopulation(diffs)
	if err != nil {
		return 0, fmt.Errorf("flicker: %w", err)
	}
	return sd, nil
}
