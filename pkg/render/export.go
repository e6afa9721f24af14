package render

import (
	"fmt"
	"os"

	"github.com/taigrr/softrender/pkg/texture"
)

// Save writes the pixel buffer to path. The format comes from the
// extension: .png, .bmp, .ppm, .jpg or .jpeg.
func (v *Viewport) Save(path string) error {
	return texture.Save(path, v.Snapshot())
}

// SavePNG writes the pixel buffer as a PNG file.
func (v *Viewport) SavePNG(path string) error {
	return v.saveAs(path, texture.FormatPNG)
}

// SaveBMP writes the pixel buffer as a BMP file.
func (v *Viewport) SaveBMP(path string) error {
	return v.saveAs(path, texture.FormatBMP)
}

// SavePPM writes the pixel buffer as a plain-text P3 PPM file.
func (v *Viewport) SavePPM(path string) error {
	return v.saveAs(path, texture.FormatPPM)
}

func (v *Viewport) saveAs(path string, format texture.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := texture.Encode(f, v.Snapshot(), format); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
