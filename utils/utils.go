package utils

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/setanarut/reliefmesh"
	"github.com/setanarut/reliefmesh/palette"
	"github.com/setanarut/reliefmesh/stl"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ReadImage decodes a PNG, JPEG, BMP or WebP file.
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "save %s", filename)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "save %s", filename)
	}
	return errors.Wrapf(f.Close(), "save %s", filename)
}

// SavePalette writes one tileSize square per color, left to right, in
// palette order.
func SavePalette(colors []colorful.Color, tileSize int, filename string) error {
	if len(colors) == 0 {
		return errors.Wrapf(reliefmesh.ErrEmptyInput, "save %s: empty palette", filename)
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	img := image.NewRGBA(image.Rect(0, 0, tileSize*len(colors), tileSize))
	for i, c := range colors {
		tile := image.Rect(i*tileSize, 0, (i+1)*tileSize, tileSize)
		draw.Draw(img, tile, image.NewUniform(palette.ToRGBA(c)), image.Point{}, draw.Src)
	}
	return SaveImage(img, filename)
}

// SaveSTL writes the soup as binary STL. The file is written under a
// temporary name and renamed, so filename is either complete or absent.
func SaveSTL(soup *reliefmesh.Soup, header, filename string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := stl.Write(tmp, soup.Triangles, header); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "save %s", filename)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "save %s", filename)
	}
	return os.Rename(tmp.Name(), filename)
}
