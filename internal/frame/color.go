package frame

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Hue is kept on the full 8-bit range: 256 steps per turn.
const hueSteps = 256.0

// ToHSV returns a copy of f in the HSV model. An HSV frame is returned as a clone.
func (f *Frame) ToHSV() *Frame {
	if f.Model == HSV {
		return f.Clone()
	}
	out := New(f.Width, f.Height, HSV)
	r, g, b := f.planes[R], f.planes[G], f.planes[B]
	for i := range r {
		c := colorful.Color{R: float64(r[i]) / 255, G: float64(g[i]) / 255, B: float64(b[i]) / 255}
		h, s, v := c.Hsv()
		hq := Saturate(h * hueSteps / 360)
		if h*hueSteps/360 >= hueSteps-0.5 {
			hq = 0
		}
		out.planes[H][i] = hq
		out.planes[S][i] = Saturate(s * 255)
		out.planes[V][i] = Saturate(v * 255)
	}
	return out
}

// ToRGB returns a copy of f in the RGB model. An RGB frame is returned as a clone.
func (f *Frame) ToRGB() *Frame {
	if f.Model == RGB {
		return f.Clone()
	}
	out := New(f.Width, f.Height, RGB)
	h, s, v := f.planes[H], f.planes[S], f.planes[V]
	for i := range h {
		c := colorful.Hsv(float64(h[i])*360/hueSteps, float64(s[i])/255, float64(v[i])/255).Clamped()
		out.planes[R][i] = Saturate(c.R * 255)
		out.planes[G][i] = Saturate(c.G * 255)
		out.planes[B][i] = Saturate(c.B * 255)
	}
	return out
}

// FromImage copies any decoded image into an RGB frame. Alpha is dropped.
func FromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	f := New(bounds.Dx(), bounds.Dy(), RGB)
	i := 0
	// Bounds do not necessarily start at (0, 0).
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			f.planes[R][i] = c.R
			f.planes[G][i] = c.G
			f.planes[B][i] = c.B
			i++
		}
	}
	return f
}

// Image renders the frame as an opaque RGBA image, converting from HSV when needed.
func (f *Frame) Image() *image.RGBA {
	src := f
	if f.Model != RGB {
		src = f.ToRGB()
	}
	out := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < src.Pixels(); i++ {
		out.Pix[4*i] = src.planes[R][i]
		out.Pix[4*i+1] = src.planes[G][i]
		out.Pix[4*i+2] = src.planes[B][i]
		out.Pix[4*i+3] = 0xff
	}
	return out
}
