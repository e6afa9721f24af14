package texture

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// Format identifies an image codec.
type Format int

const (
	FormatPPM Format = iota
	FormatPNG
	FormatJPEG
	FormatBMP
)

// FormatFromPath picks a codec from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		return FormatPPM, nil
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// Load reads an image file into a Texture. PPM files go through ReadPPM,
// everything else through the image codecs.
func Load(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		tex, err := ReadPPM(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return tex, nil
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return FromImage(img), nil
}

// ToImage converts the texture into an 8-bit RGBA image.
func (t *Texture) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for row := range t.Height {
		for col := range t.Width {
			img.SetRGBA(col, row, t.At(row, col).ToRGBA())
		}
	}
	return img
}

// Encode writes the texture in the given format.
func Encode(w io.Writer, tex *Texture, format Format) error {
	switch format {
	case FormatPPM:
		return WritePPM(w, tex)
	case FormatPNG:
		return png.Encode(w, tex.ToImage())
	case FormatJPEG:
		return jpeg.Encode(w, tex.ToImage(), &jpeg.Options{Quality: 95})
	case FormatBMP:
		return bmp.Encode(w, tex.ToImage())
	default:
		return ErrUnsupportedFormat
	}
}

// Save writes the texture to path, choosing the codec from the extension.
func Save(path string, tex *Texture) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, tex, format); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
