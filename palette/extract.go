package palette

import (
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/pkg/errors"
	"github.com/setanarut/reliefmesh"
)

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

func extractLuminance(img image.Image, opt Options) ([]colorful.Color, error) {
	s, err := reliefmesh.NewSampler(img)
	if err != nil {
		return nil, err
	}
	points, err := ForegroundPoints(s, opt.AlphaThreshold, opt.MaxSamples)
	if err != nil {
		return nil, err
	}
	return quantize(points, opt.K, opt.Iterations, opt.Verbose)
}

// extractDominant runs dominantcolor over the foreground points only, laid
// out as a compact opaque image. The library skips just fully transparent
// pixels, so thresholding and sampling happen here first.
func extractDominant(img image.Image, opt Options) ([]colorful.Color, error) {
	s, err := reliefmesh.NewSampler(img)
	if err != nil {
		return nil, err
	}
	points, err := ForegroundPoints(s, opt.AlphaThreshold, opt.MaxSamples)
	if err != nil {
		return nil, err
	}

	candidates := dominantcolor.FindWeight(foregroundImage(points), max(24, opt.K*8))
	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		weighted = append(weighted, weightedColor{Col: col.Clamped(), Weight: c.Weight})
	}
	return selectDiverse(weighted, opt.K), nil
}

// foregroundImage packs points row by row into the smallest square that
// holds them. Unused pixels stay fully transparent.
func foregroundImage(points clusters.Observations) *image.NRGBA {
	side := int(math.Ceil(math.Sqrt(float64(len(points)))))
	out := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i, p := range points {
		c := p.Coordinates()
		out.SetNRGBA(i%side, i/side, color.NRGBA{
			R: uint8(math.Round(c[0] * 255)),
			G: uint8(math.Round(c[1] * 255)),
			B: uint8(math.Round(c[2] * 255)),
			A: 255,
		})
	}
	return out
}

func extractKMeans(img image.Image, opt Options) ([]colorful.Color, error) {
	s, err := reliefmesh.NewSampler(img)
	if err != nil {
		return nil, err
	}
	dataset, err := ForegroundPoints(s, opt.AlphaThreshold, opt.MaxSamples)
	if err != nil {
		return nil, err
	}

	// Over-partition, then keep the k most distinct of the populous ones.
	workK := min(max(opt.K*4, opt.K+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil {
		return nil, errors.Wrap(err, "kmeans partition")
	}

	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	weighted := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		w := float64(len(c.Observations))
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{Col: col, Weight: w})
	}
	return selectDiverse(weighted, opt.K), nil
}

// selectDiverse greedily picks k colors: the heaviest first, then each
// time the candidate farthest in Lab from those already picked, scaled by
// its weight.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	type item struct {
		col colorful.Color
		lab [3]float64
		w   float64
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		col := c.Col.Clamped()
		l, a, b := col.Lab()
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		maxW = math.Max(maxW, w)
		items = append(items, item{col: col, lab: [3]float64{l, a, b}, w: w})
	}
	k = min(k, len(items))

	selectedIdx := make([]int, 0, k)
	selected := make([]bool, len(items))

	bestSeed := 0
	for i := 1; i < len(items); i++ {
		if items[i].w > items[bestSeed].w {
			bestSeed = i
		}
	}
	selectedIdx = append(selectedIdx, bestSeed)
	selected[bestSeed] = true

	for len(selectedIdx) < k {
		bestIdx := -1
		bestScore := -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range selectedIdx {
				d0 := items[i].lab[0] - items[s].lab[0]
				d1 := items[i].lab[1] - items[s].lab[1]
				d2 := items[i].lab[2] - items[s].lab[2]
				minD2 = math.Min(minD2, d0*d0+d1*d1+d2*d2)
			}
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(items[i].w/maxW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		selectedIdx = append(selectedIdx, bestIdx)
	}

	out := make([]colorful.Color, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		out = append(out, items[idx].col)
	}
	return out
}
