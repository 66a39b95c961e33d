// Package palette derives a display theme from a poster image.
//
// [Dominant] picks the most common colour of an image by histogram quantisation; [Extract] fetches
// and decodes a remote image and always yields a usable colour, falling back to [Fallback].
// [NewTheme] expands a base colour into background, shades and a contrasting text colour.
package palette

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"net/http"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// maxSamples bounds the number of pixels inspected per axis.
	maxSamples   = 64
	maxImageSize = 10 << 20

	// quantBits is the number of significant bits kept per channel when bucketing.
	quantBits = 4

	whiteCutoff = 250
	blackCutoff = 10
	alphaCutoff = 125
)

// ErrNoColor is returned when every sampled pixel was ignored.
var ErrNoColor = errors.New("no representative colour found")

// Fallback is the colour used when extraction fails.
var Fallback = mustHex("#1f2937")

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

type bucket struct {
	count   int
	r, g, b int
}

// Dominant returns the average colour of the most populated histogram bucket.
//
// Transparent, near-white and near-black pixels are ignored.
func Dominant(img image.Image) (colorful.Color, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Fallback, ErrNoColor
	}

	stepX := max(1, bounds.Dx()/maxSamples)
	stepY := max(1, bounds.Dy()/maxSamples)
	shift := 8 - quantBits

	buckets := make(map[int]*bucket)
	var best *bucket

	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r32, g32, b32, a32 := img.At(x, y).RGBA()
			if a32>>8 < alphaCutoff {
				continue
			}

			r, g, b := int(r32>>8), int(g32>>8), int(b32>>8)
			if r > whiteCutoff && g > whiteCutoff && b > whiteCutoff {
				continue
			}
			if r < blackCutoff && g < blackCutoff && b < blackCutoff {
				continue
			}

			key := (r>>shift)<<(2*quantBits) | (g>>shift)<<quantBits | b>>shift
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.count++
			bk.r += r
			bk.g += g
			bk.b += b

			if best == nil || bk.count > best.count {
				best = bk
			}
		}
	}

	if best == nil {
		return Fallback, ErrNoColor
	}

	return colorful.Color{
		R: float64(best.r) / float64(best.count) / 255,
		G: float64(best.g) / float64(best.count) / 255,
		B: float64(best.b) / float64(best.count) / 255,
	}, nil
}

// Extract downloads and decodes the image at url and returns its dominant colour.
//
// On any failure it returns [Fallback] together with the error.
func Extract(ctx context.Context, client *http.Client, url string) (colorful.Color, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fallback, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Fallback, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fallback, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return Fallback, fmt.Errorf("failed to decode image: %w", err)
	}

	return Dominant(img)
}

// Theme is a set of colours derived from one base colour.
type Theme struct {
	Background colorful.Color
	Lighter    colorful.Color
	Darker     colorful.Color
	Text       colorful.Color
}

// NewTheme derives lighter and darker shades (20%) and a contrasting text colour from base.
func NewTheme(base colorful.Color) Theme {
	base = base.Clamped()
	return Theme{
		Background: base,
		Lighter:    LighterShade(base, 20),
		Darker:     DarkerShade(base, 20),
		Text:       ContrastText(base),
	}
}

// Hex returns the background as #rrggbb.
func (t Theme) Hex() string {
	return t.Background.Hex()
}

// LighterShade adds percent of full scale to every channel.
func LighterShade(c colorful.Color, percent float64) colorful.Color {
	delta := percent / 100
	return colorful.Color{R: c.R + delta, G: c.G + delta, B: c.B + delta}.Clamped()
}

// DarkerShade scales every channel by (100-percent)%.
func DarkerShade(c colorful.Color, percent float64) colorful.Color {
	f := (100 - percent) / 100
	return colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f}.Clamped()
}

// Brightness returns the YIQ luma of c on a 0..255 scale.
func Brightness(c colorful.Color) float64 {
	r, g, b := c.Clamped().RGB255()
	return (float64(r)*299 + float64(g)*587 + float64(b)*114) / 1000
}

var (
	black = colorful.Color{}
	white = colorful.Color{R: 1, G: 1, B: 1}
)

// ContrastText returns black on bright colours (brightness > 128) and white otherwise.
func ContrastText(c colorful.Color) colorful.Color {
	if Brightness(c) > 128 {
		return black
	}
	return white
}

// RGBToHex formats 0..255 channels as #rrggbb, clamping out-of-range values.
func RGBToHex(r, g, b int) string {
	clamp := func(v int) uint8 { return uint8(math.Max(0, math.Min(255, float64(v)))) }
	return colorful.Color{R: float64(clamp(r)) / 255, G: float64(clamp(g)) / 255, B: float64(clamp(b)) / 255}.Hex()
}
