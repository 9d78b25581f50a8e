package correct

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAveragePointAccumulates(t *testing.T) {
	src := newMemSource(graySeq(2, 2, 100, 100, 200)...)
	dst := newMemSink()

	s, err := New(AveragePoint, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	// The last frame has no successor and is never written.
	require.Len(t, dst.order, 2)
	assert.Equal(t, gray(2, 2, 100), dst.get(0))
	// Seeded at 100: 100 -> 100 (prev) -> 100 (cur) -> 0.7*100 + 0.3*200 (next).
	assert.Equal(t, gray(2, 2, 130), dst.get(1))
	assert.Nil(t, dst.get(2))
}

func TestAveragePointCarriesState(t *testing.T) {
	src := newMemSource(graySeq(1, 1, 100, 100, 200, 200)...)
	dst := newMemSink()

	s, err := New(AveragePoint, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	require.Len(t, dst.order, 3)
	assert.Equal(t, gray(1, 1, 130), dst.get(1))
	// Frame 2 starts from acc=130 and uses corrected frame 1 (130) as prev:
	// 130 -> 130 -> 0.7*130 + 60 = 151 -> 0.7*151 + 60 = 165.7.
	assert.Equal(t, gray(1, 1, 166), dst.get(2))
}

func TestAveragePointEmitLast(t *testing.T) {
	src := newMemSource(graySeq(1, 1, 100, 100, 200)...)
	dst := newMemSink()
	p := DefaultParams()
	p.EmitLast = true

	s, err := New(AveragePoint, p)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	require.Len(t, dst.order, 3)
	assert.Equal(t, gray(1, 1, 200), dst.get(2))
}

func TestAveragePointNormalizedWeights(t *testing.T) {
	src := newMemSource(graySeq(1, 1, 100, 100, 200)...)
	dst := newMemSink()
	p := DefaultParams()
	p.NormalizeWeights = true
	p.Weight = 1.0 / 3

	s, err := New(AveragePoint, p)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	assert.Equal(t, gray(1, 1, 133), dst.get(1))
}

func TestAveragePointConstantSequenceIsStable(t *testing.T) {
	src := newMemSource(graySeq(3, 3, 77, 77, 77, 77, 77)...)
	dst := newMemSink()

	s, err := New(AveragePoint, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	for i := 0; i < 4; i++ {
		assert.Equal(t, gray(3, 3, 77), dst.get(i), "frame %d", i)
	}
}

func TestAveragePointTooShort(t *testing.T) {
	s, err := New(AveragePoint, DefaultParams())
	require.NoError(t, err)
	err = s.Run(context.Background(), newMemSource(graySeq(1, 1, 1, 2)...), newMemSink())
	assert.ErrorIs(t, err, ErrSequenceTooShort)
}

func TestGatePixel(t *testing.T) {
	cases := []struct {
		prev, cur uint8
		want      uint8
	}{
		{100, 105, 105}, // small change passes as is
		{100, 115, 110}, // limited to +10
		{100, 85, 90},   // limited to -10, towards the current value
		{100, 130, 130}, // scene change
		{100, 120, 120}, // offset equal to the threshold is a scene change
		{100, 81, 90},
		{5, 0, 0},
		{250, 255, 255},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, gatePixel(tc.prev, tc.cur, 20, 10), "prev=%d cur=%d", tc.prev, tc.cur)
	}
	assert.Equal(t, uint8(255), gatePixel(250, 255, 300, 300))
}

func TestThresholdPointSequence(t *testing.T) {
	src := newMemSource(graySeq(2, 1, 100, 115, 130, 100)...)
	dst := newMemSink()

	s, err := New(ThresholdPoint, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	require.Len(t, dst.order, 4)
	assert.Equal(t, gray(2, 1, 100), dst.get(0))
	assert.Equal(t, gray(2, 1, 110), dst.get(1))
	// 130 is 20 away from the corrected 110: scene change.
	assert.Equal(t, gray(2, 1, 130), dst.get(2))
	assert.Equal(t, gray(2, 1, 100), dst.get(3))
}

func TestThresholdPointIsPerPixel(t *testing.T) {
	src := newMemSource(gray(2, 1, 100, 100), gray(2, 1, 115, 200))
	dst := newMemSink()

	s, err := New(ThresholdPoint, DefaultParams())
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), src, dst))

	assert.Equal(t, gray(2, 1, 110, 200), dst.get(1))
}
