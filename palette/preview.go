package palette

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/reliefmesh"
)

// Preview paints part masks over an opaque background, one pixel per cell,
// compositing in palette order so later classes win where masks overlap.
// masks[i] is drawn with colors[i]; all masks must share one grid size.
func Preview(masks []*reliefmesh.VoxelMask, colors []colorful.Color, background colorful.Color) *image.RGBA {
	if len(masks) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	w, h := masks[0].W, masks[0].H
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := ToRGBA(background)
	for y := range h {
		for x := range w {
			c := bg
			for ch, m := range masks {
				if ch < len(colors) && m.At(x, y) {
					c = ToRGBA(colors[ch])
				}
			}
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

// ToRGBA clamps each channel to [0,1] and returns an opaque 8-bit color.
func ToRGBA(c colorful.Color) color.RGBA {
	return color.RGBA{
		R: uint8(max(0, min(255, c.R*255))),
		G: uint8(max(0, min(255, c.G*255))),
		B: uint8(max(0, min(255, c.B*255))),
		A: 255,
	}
}
