package correct

import (
	"errors"
	"fmt"

	"timelapse-deflicker/internal/frame"
)

var errMissing = errors.New("missing frame")

// memSource serves frames from memory. Indices in missing fail to load.
type memSource struct {
	frames  []*frame.Frame
	missing map[int]bool
	loads   []int
}

func newMemSource(frames ...*frame.Frame) *memSource {
	return &memSource{frames: frames, missing: map[int]bool{}}
}

func (s *memSource) Len() int { return len(s.frames) }

func (s *memSource) Name(i int) string { return fmt.Sprintf("frame_%03d.png", i) }

func (s *memSource) Load(i int) (*frame.Frame, error) {
	s.loads = append(s.loads, i)
	if s.missing[i] {
		return nil, errMissing
	}
	// Hand out copies so strategies cannot alias the fixtures.
	return s.frames[i].Clone(), nil
}

// memSink records written frames in order.
type memSink struct {
	order  []string
	frames map[string]*frame.Frame
}

func newMemSink() *memSink {
	return &memSink{frames: map[string]*frame.Frame{}}
}

func (s *memSink) Write(name string, f *frame.Frame) error {
	s.order = append(s.order, name)
	s.frames[name] = f
	return nil
}

func (s *memSink) get(i int) *frame.Frame {
	return s.frames[fmt.Sprintf("frame_%03d.png", i)]
}

// gray returns an RGB frame whose pixels take the given levels in row-major order,
// cycling when there are fewer levels than pixels.
func gray(w, h int, levels ...uint8) *frame.Frame {
	f := frame.New(w, h, frame.RGB)
	for p := 0; p < f.Pixels(); p++ {
		v := levels[p%len(levels)]
		f.Plane(frame.R)[p] = v
		f.Plane(frame.G)[p] = v
		f.Plane(frame.B)[p] = v
	}
	return f
}

// graySeq returns one solid gray frame per level.
func graySeq(w, h int, levels ...uint8) []*frame.Frame {
	out := make([]*frame.Frame, len(levels))
	for i, v := range levels {
		out[i] = gray(w, h, v)
	}
	return out
}

// colored returns an RGB frame filled with one colour.
func colored(w, h int, r, g, b uint8) *frame.Frame {
	f := frame.New(w, h, frame.RGB)
	f.Fill(frame.R, r)
	f.Fill(frame.G, g)
	f.Fill(frame.B, b)
	return f
}
