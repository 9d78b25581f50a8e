package correct

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timelapse-deflicker/internal/frame"
)

func TestTemporalMatchingSolidFrames(t *testing.T) {
	src := newMemSource(graySeq(3, 2, 50, 60, 70, 80, 90, 100, 110)...)
	dst := newMemSink()

	s, err := New(TemporalMatching, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	require.Len(t, dst.order, 7)
	for i, name := range dst.order {
		assert.Equal(t, src.Name(i), name, "frames are written in sequence order")
	}
	// Interior frames average five linearly spaced levels, so they land on the centre.
	want := []uint8{50, 60, 70, 80, 90, 100, 110}
	for i, v := range want {
		got := dst.get(i)
		require.NotNil(t, got, "frame %d", i)
		assert.Equal(t, gray(3, 2, v), got, "frame %d", i)
	}
	// Each frame is decoded exactly once.
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, src.loads)
}

func TestTemporalMatchingAveragesPerPixel(t *testing.T) {
	src := newMemSource(
		gray(2, 1, 10, 200),
		gray(2, 1, 20, 200),
		gray(2, 1, 31, 100),
	)
	dst := newMemSink()
	p := DefaultParams()
	p.Frames = 3

	s, err := New(TemporalMatching, p)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	assert.Equal(t, gray(2, 1, 10, 200), dst.get(0))
	assert.Equal(t, gray(2, 1, 20, 167), dst.get(1)) // round(61/3), round(500/3)
	assert.Equal(t, gray(2, 1, 31, 100), dst.get(2))
}

func TestTemporalAverageCopiesHueAndSaturationFromCentre(t *testing.T) {
	w := newRing(5)
	for j := 0; j < 5; j++ {
		hsv := frame.New(1, 1, frame.HSV)
		hsv.Fill(frame.H, uint8(10*j))
		hsv.Fill(frame.S, uint8(20*j+5))
		hsv.Fill(frame.V, uint8(50+10*j))
		w.push(slot{hsv: hsv})
	}

	out := temporalAverage(w, make([]int, 1))
	assert.Equal(t, []uint8{20}, out.Plane(frame.H))
	assert.Equal(t, []uint8{45}, out.Plane(frame.S))
	assert.Equal(t, []uint8{70}, out.Plane(frame.V))
	// The centre frame itself is not modified.
	assert.Equal(t, []uint8{70}, w.at(2).hsv.Plane(frame.V))
}

func TestTemporalMatchingExactWindowLength(t *testing.T) {
	src := newMemSource(graySeq(1, 1, 10, 20, 30, 40, 50)...)
	dst := newMemSink()

	s, err := New(TemporalMatching, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	require.Len(t, dst.order, 5)
	for i, v := range []uint8{10, 20, 30, 40, 50} {
		assert.Equal(t, gray(1, 1, v), dst.get(i), "frame %d", i)
	}
}

func TestTemporalMatchingTooShort(t *testing.T) {
	src := newMemSource(graySeq(1, 1, 1, 2, 3, 4)...)
	dst := newMemSink()

	s, err := New(TemporalMatching, DefaultParams())
	require.NoError(t, err)
	err = s.Run(context.Background(), src, dst)
	assert.ErrorIs(t, err, ErrSequenceTooShort)
	assert.Empty(t, dst.order)
	assert.Empty(t, src.loads)
}

func TestRing(t *testing.T) {
	w := newRing(3)
	mk := func(v uint8) slot { return slot{raw: gray(1, 1, v)} }
	for _, v := range []uint8{1, 2, 3} {
		w.push(mk(v))
	}
	level := func(off int) uint8 { return w.at(off).raw.Plane(frame.R)[0] }
	assert.Equal(t, []uint8{1, 2, 3}, []uint8{level(0), level(1), level(2)})

	w.push(mk(4))
	w.push(mk(5))
	assert.Equal(t, []uint8{3, 4, 5}, []uint8{level(0), level(1), level(2)})

	assert.Panics(t, func() { w.at(3) })
	assert.Panics(t, func() { newRing(2).at(0) })
}

func TestTemporalMatchingSigmaClipping(t *testing.T) {
	// A light flashes in frame 4 at pixel 1 only.
	src := newMemSource(
		gray(2, 1, 100, 100),
		gray(2, 1, 100, 100),
		gray(2, 1, 100, 100),
		gray(2, 1, 100, 100),
		gray(2, 1, 100, 250),
	)
	p := DefaultParams()

	plain := newMemSink()
	s, err := New(TemporalMatching, p)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, plain))
	assert.Equal(t, gray(2, 1, 100, 130), plain.get(2))

	p.Sigma = 1
	clipped := newMemSink()
	s, err = New(TemporalMatching, p)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, clipped))
	assert.Equal(t, gray(2, 1, 100, 100), clipped.get(2))
}

func TestClippedMean(t *testing.T) {
	kept := make([]float64, 0, 5)
	assert.InDelta(t, 100, clippedMean([]float64{100, 100, 100, 100, 250}, kept, 1), 1e-9)
	// Identical samples have zero deviation and are all kept.
	assert.InDelta(t, 7, clippedMean([]float64{7, 7, 7}, kept, 1), 1e-9)
	// A single sample has no sample deviation.
	assert.InDelta(t, 9, clippedMean([]float64{9}, kept, 2), 1e-9)
	// Too tight a filter keeps nothing and falls back to the plain mean.
	assert.InDelta(t, 15, clippedMean([]float64{10, 20}, kept, 0.1), 1e-9)
}
