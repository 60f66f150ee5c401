// Package palette picks the discrete material colors of a print.
package palette

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/setanarut/reliefmesh"
)

type Method int

const (
	// MethodLuminance is the deterministic k-means of Quantize.
	MethodLuminance Method = iota
	// MethodKMeans partitions with muesli/kmeans, which seeds randomly.
	MethodKMeans
	// MethodDominantColor uses cenkalti/dominantcolor candidates.
	MethodDominantColor
)

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	case MethodDominantColor:
		return "dominantcolor"
	default:
		return "luminance"
	}
}

type Options struct {
	// Number of colors (printable materials). Ideal start: 3-5, one per
	// AMS slot.
	K int
	// Fixed k-means iteration count. 10 is plenty for well separated
	// colors.
	Iterations int
	Method     Method
	// Pixels at or below this alpha, in [0,1), are ignored.
	AlphaThreshold float64
	// Upper bound on sampled pixels; large images are strided.
	MaxSamples int
	// Log k-means progress.
	Verbose bool
}

func DefaultOptions() Options {
	return Options{
		K:              4,
		Iterations:     10,
		Method:         MethodLuminance,
		AlphaThreshold: 0.5,
		MaxSamples:     12000,
	}
}

func (o Options) Validate() error {
	if o.K < 1 {
		return errors.Wrapf(reliefmesh.ErrInvalidOption, "K must be >= 1, got %d", o.K)
	}
	if o.Iterations < 1 {
		return errors.Wrapf(reliefmesh.ErrInvalidOption, "Iterations must be >= 1, got %d", o.Iterations)
	}
	if o.AlphaThreshold < 0 || o.AlphaThreshold >= 1 {
		return errors.Wrapf(reliefmesh.ErrInvalidOption, "AlphaThreshold must be in [0,1), got %v", o.AlphaThreshold)
	}
	if o.MaxSamples < 0 {
		return errors.Wrapf(reliefmesh.ErrInvalidOption, "MaxSamples must be >= 0, got %d", o.MaxSamples)
	}
	return nil
}

// Extract builds a palette of opt.K colors sorted darkest first. Every
// method samples the same foreground, so an image with no pixel above
// opt.AlphaThreshold fails with ErrEmptyInput. Only MethodLuminance is
// reproducible; the other methods depend on library seeding.
func Extract(img image.Image, opt Options) ([]colorful.Color, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	var (
		p   []colorful.Color
		err error
	)
	switch opt.Method {
	case MethodKMeans:
		p, err = extractKMeans(img, opt)
	case MethodDominantColor:
		p, err = extractDominant(img, opt)
	default:
		return extractLuminance(img, opt)
	}
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, errors.Wrapf(reliefmesh.ErrEmptyInput, "%v palette is empty", opt.Method)
	}
	SortByBrightness(p)
	return p, nil
}

// Entry is the reporting form of one palette color.
type Entry struct {
	Hex string     `json:"hex"`
	RGB [3]float64 `json:"rgb"`
}

// Entries keeps palette order.
func Entries(palette []colorful.Color) []Entry {
	out := make([]Entry, len(palette))
	for i, c := range palette {
		c = c.Clamped()
		out[i] = Entry{Hex: c.Hex(), RGB: [3]float64{c.R, c.G, c.B}}
	}
	return out
}
