package frameio

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"timelapse-deflicker/internal/frame"
)

// DefaultOutputDir is where corrected frames go unless told otherwise.
const DefaultOutputDir = "exp_corrected_tmp"

// ErrUnsupportedFormat is returned for frame names whose extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// DefaultJPEGQuality is used when an Exporter is given a quality of 0.
const DefaultJPEGQuality = 100

// Exporter writes frames into Dir using the name of the input they replace.
// Existing files are overwritten; a failed run can leave some frames written.
type Exporter struct {
	Dir         string
	JPEGQuality int

	ready bool
}

// NewExporter returns an Exporter writing into dir. A jpegQuality of 0 selects
// DefaultJPEGQuality; other values are passed to the JPEG encoder, which clamps them
// to [1, 100].
func NewExporter(dir string, jpegQuality int) *Exporter {
	if jpegQuality == 0 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Exporter{Dir: dir, JPEGQuality: jpegQuality}
}

// Write encodes f by the extension of name and stores it in the output directory,
// creating the directory first if needed.
func (e *Exporter) Write(name string, f *frame.Frame) error {
	encode, err := encoderFor(name, e.JPEGQuality)
	if err != nil {
		return err
	}
	if !e.ready {
		if err := os.MkdirAll(e.Dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", e.Dir, err)
		}
		e.ready = true
	}
	path := filepath.Join(e.Dir, filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := encode(out, f.Image()); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to save image to output file %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"function": "Write",
		"path":     path,
	}).Debug("Frame exported")
	return nil
}

type encodeFunc func(io.Writer, image.Image) error

// encoderFor picks the encoder for name by its extension.
func encoderFor(name string, jpegQuality int) (encodeFunc, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
		}, nil
	case ".png":
		return png.Encode, nil
	case ".gif":
		// Plan 9 palette without dithering: colours in the palette survive exactly.
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, &gif.Options{NumColors: 256, Drawer: draw.Src})
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}
