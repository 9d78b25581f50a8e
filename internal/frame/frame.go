// Package frame holds the planar 8-bit pixel buffer the correction strategies work on.
//
// A Frame stores three same-sized planes. In the RGB model the planes are red, green
// and blue; in the HSV model they are hue, saturation and value (brightness). Plane
// indices are shared between the models so a strategy can address "the brightness
// channel" as V without caring where the data came from.
//
// Bulk pixel loops work on the slices returned by Plane. At and Set address single
// samples and report ErrOutOfBounds; Fill sets a whole channel.
package frame

import (
	"errors"
	"fmt"
	"math"
)

// Model identifies the colour model of the planes.
type Model int

const (
	RGB Model = iota
	HSV
)

func (m Model) String() string {
	switch m {
	case RGB:
		return "rgb"
	case HSV:
		return "hsv"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// Plane indices.
const (
	R = 0
	G = 1
	B = 2

	H = 0
	S = 1
	V = 2

	Channels = 3
)

var (
	// ErrOutOfBounds is returned for any access outside the frame or its channels.
	ErrOutOfBounds = errors.New("pixel access out of bounds")

	// ErrDimensionMismatch is returned when two frames of one run differ in size.
	ErrDimensionMismatch = errors.New("frame dimensions differ")
)

// Frame is a width x height grid of pixels with three 8-bit samples each.
type Frame struct {
	Width  int
	Height int
	Model  Model

	planes [Channels][]uint8
}

// New allocates a zeroed frame.
func New(width, height int, model Model) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	f := &Frame{Width: width, Height: height, Model: model}
	for c := range f.planes {
		f.planes[c] = make([]uint8, width*height)
	}
	return f
}

// Pixels returns the number of pixels per plane.
func (f *Frame) Pixels() int {
	return f.Width * f.Height
}

// Plane returns the row-major samples of channel c. The slice aliases the frame.
func (f *Frame) Plane(c int) []uint8 {
	if c < 0 || c >= Channels {
		return nil
	}
	return f.planes[c]
}

// At returns the sample of channel c at (x, y).
func (f *Frame) At(c, x, y int) (uint8, error) {
	i, err := f.offset(c, x, y)
	if err != nil {
		return 0, err
	}
	return f.planes[c][i], nil
}

// Set stores the sample of channel c at (x, y).
func (f *Frame) Set(c, x, y int, v uint8) error {
	i, err := f.offset(c, x, y)
	if err != nil {
		return err
	}
	f.planes[c][i] = v
	return nil
}

func (f *Frame) offset(c, x, y int) (int, error) {
	if c < 0 || c >= Channels || x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return 0, fmt.Errorf("%w: channel %d at (%d,%d) in %dx%d frame", ErrOutOfBounds, c, x, y, f.Width, f.Height)
	}
	return y*f.Width + x, nil
}

// Fill sets every sample of channel c to v.
func (f *Frame) Fill(c int, v uint8) {
	for i := range f.Plane(c) {
		f.planes[c][i] = v
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{Width: f.Width, Height: f.Height, Model: f.Model}
	for c := range f.planes {
		out.planes[c] = append([]uint8(nil), f.planes[c]...)
	}
	return out
}

// SameSize reports whether both frames have identical dimensions.
func SameSize(a, b *Frame) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// CheckSameSize returns ErrDimensionMismatch with both sizes when a and b differ.
func CheckSameSize(a, b *Frame) error {
	if SameSize(a, b) {
		return nil
	}
	return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.Width, a.Height, b.Width, b.Height)
}

// Saturate rounds v to the nearest integer and clamps it to [0, 255].
func Saturate(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}

// AddSaturating adds delta to every sample of channel c, clamping to [0, 255].
func (f *Frame) AddSaturating(c int, delta float64) {
	plane := f.Plane(c)
	for i, v := range plane {
		plane[i] = Saturate(float64(v) + delta)
	}
}
