package palette

import (
	"log"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/pkg/errors"
	"github.com/setanarut/reliefmesh"
)

// ForegroundPoints collects the RGB of every pixel whose alpha is above
// alphaThreshold (in [0,1]). Large images are scanned with a stride so at
// most about maxSamples points are kept; maxSamples <= 0 scans every pixel.
func ForegroundPoints(s *reliefmesh.Sampler, alphaThreshold float64, maxSamples int) (clusters.Observations, error) {
	step := 1
	if maxSamples > 0 && s.W*s.H > maxSamples {
		step = int(math.Sqrt(float64(s.W*s.H)/float64(maxSamples))) + 1
	}

	points := make(clusters.Observations, 0, min(s.W*s.H, max(maxSamples, 1)))
	for y := 0; y < s.H; y += step {
		for x := 0; x < s.W; x += step {
			c := s.Pixel(x, y)
			if float64(c.A)/255.0 <= alphaThreshold {
				continue
			}
			points = append(points, clusters.Coordinates{
				float64(c.R) / 255.0,
				float64(c.G) / 255.0,
				float64(c.B) / 255.0,
			})
		}
	}
	if len(points) == 0 {
		return nil, errors.Wrapf(reliefmesh.ErrEmptyInput, "no pixel above alpha %v", alphaThreshold)
	}
	return points, nil
}

// Quantize runs k-means with luminance-rank seeding and a fixed number of
// iterations, so identical inputs always give identical centers.
//
// Seeds are the points at ranks floor((i+0.5)*N/K) after a stable sort by
// luminance. Each iteration assigns every point to its nearest center
// (lowest index wins ties) and moves each center to the mean of its points;
// a center with no points stays where it was. The result is sorted by
// luminance, darkest first.
func Quantize(points clusters.Observations, k, iterations int) ([]colorful.Color, error) {
	return quantize(points, k, iterations, false)
}

func quantize(points clusters.Observations, k, iterations int, verbose bool) ([]colorful.Color, error) {
	if len(points) == 0 {
		return nil, errors.Wrap(reliefmesh.ErrEmptyInput, "quantize")
	}
	if k < 1 {
		return nil, errors.Wrapf(reliefmesh.ErrInvalidOption, "K must be >= 1, got %d", k)
	}
	if iterations < 0 {
		return nil, errors.Wrapf(reliefmesh.ErrInvalidOption, "Iterations must be >= 0, got %d", iterations)
	}

	ranked := slices.Clone(points)
	slices.SortStableFunc(ranked, func(a, b clusters.Observation) int {
		return compareFloat(pointLuminance(a), pointLuminance(b))
	})

	n := len(ranked)
	cc := make(clusters.Clusters, k)
	for i := range cc {
		idx := int(math.Floor((float64(i) + 0.5) * float64(n) / float64(k)))
		cc[i].Center = slices.Clone(ranked[idx].Coordinates())
	}

	for it := 1; it <= iterations; it++ {
		for i := range cc {
			cc[i].Observations = cc[i].Observations[:0]
		}
		for _, p := range points {
			ci := cc.Nearest(p)
			cc[ci].Observations = append(cc[ci].Observations, p)
		}
		moved := 0.0
		for i := range cc {
			center, err := cc[i].Observations.Center()
			if err != nil {
				continue
			}
			moved = math.Max(moved, center.Distance(cc[i].Center))
			cc[i].Center = center
		}
		if verbose && (it == 1 || it == iterations) {
			log.Printf("   quantize iter %d/%d max center move=%.6f", it, iterations, math.Sqrt(moved))
		}
	}

	out := make([]colorful.Color, k)
	for i, c := range cc {
		out[i] = colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
	}
	SortByBrightness(out)
	return out, nil
}

// SortByBrightness orders colors from darkest to brightest. Equal
// luminance keeps the input order.
func SortByBrightness(palette []colorful.Color) {
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		return compareFloat(reliefmesh.Luminance(a), reliefmesh.Luminance(b))
	})
}

func pointLuminance(p clusters.Observation) float64 {
	c := p.Coordinates()
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

func compareFloat(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
