// Package frameio loads timelapse frames from disk in sequence order and writes
// corrected frames back out under their original names.
package frameio

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"timelapse-deflicker/internal/frame"
)

var (
	// ErrNoFrames is returned when a pattern or directory yields no frames.
	ErrNoFrames = errors.New("no frames found")

	// ErrFrameUnreadable is returned when a frame file cannot be opened or decoded.
	ErrFrameUnreadable = errors.New("frame unreadable")

	// ErrDuplicateName is returned when two inputs would be written to the same output file.
	ErrDuplicateName = errors.New("duplicate frame name")
)

// frameExts are the extensions Dir picks up. WebP is listed so that Dir reports it
// as unsupported instead of skipping it: there is no encoder to write it back.
var frameExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Sequence is an ordered list of frame files. Order is capture order and is kept as given.
type Sequence struct {
	Dir   string
	Names []string
}

// FromNames keeps names in caller order.
func FromNames(dir string, names []string) (Sequence, error) {
	seq := Sequence{Dir: dir, Names: append([]string(nil), names...)}
	if len(seq.Names) == 0 {
		return seq, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	return seq, seq.checkNames()
}

// Glob collects the files matching pattern in lexical order, for example
// 'shoot/IMG_*.jpg'.
func Glob(pattern string) (Sequence, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return Sequence{}, fmt.Errorf("failed to parse path %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return Sequence{}, fmt.Errorf("%w for path %q", ErrNoFrames, pattern)
	}
	sort.Strings(paths)
	seq := Sequence{Names: paths}
	return seq, seq.checkNames()
}

// Dir collects every image file directly inside dir in lexical order.
func Dir(dir string) (Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Sequence{}, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !frameExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return FromNames(dir, names)
}

// checkNames rejects names that cannot be written back out, either for lack of an
// encoder or because two inputs share a base name.
func (s Sequence) checkNames() error {
	seen := make(map[string]int, len(s.Names))
	for i, name := range s.Names {
		if _, err := encoderFor(name, DefaultJPEGQuality); err != nil {
			return err
		}
		base := filepath.Base(name)
		if j, ok := seen[base]; ok {
			return fmt.Errorf("%w: %s at %d and %d", ErrDuplicateName, base, j, i)
		}
		seen[base] = i
	}
	return nil
}

// Store decodes the frames of a Sequence on demand. It keeps nothing in memory.
type Store struct {
	seq Sequence
}

func NewStore(seq Sequence) *Store {
	return &Store{seq: seq}
}

// Len returns the number of frames.
func (s *Store) Len() int {
	return len(s.seq.Names)
}

// Name returns the file name frame i is exported under.
func (s *Store) Name(i int) string {
	if i < 0 || i >= len(s.seq.Names) {
		return ""
	}
	return filepath.Base(s.seq.Names[i])
}

// Path returns the file frame i is read from.
func (s *Store) Path(i int) string {
	if i < 0 || i >= len(s.seq.Names) {
		return ""
	}
	return filepath.Join(s.seq.Dir, s.seq.Names[i])
}

// Load decodes frame i into an RGB frame.
func (s *Store) Load(i int) (*frame.Frame, error) {
	if i < 0 || i >= len(s.seq.Names) {
		return nil, fmt.Errorf("%w: frame index %d of %d", frame.ErrOutOfBounds, i, len(s.seq.Names))
	}
	path := s.Path(i)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnreadable, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed decoding image %s: %w", ErrFrameUnreadable, path, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"index":    i,
		"path":     path,
		"format":   format,
	}).Debug("Frame decoded")
	return frame.FromImage(img), nil
}
