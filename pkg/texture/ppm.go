package texture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnsupportedFormat is returned for image data or file extensions no
// codec handles.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ReadPPM decodes a netpbm pixmap. Both the P3 (ASCII) and P6 (binary)
// variants are accepted; comments in the header are skipped.
func ReadPPM(r io.Reader) (*Texture, error) {
	br := bufio.NewReader(r)

	magic, err := ppmToken(br)
	if err != nil {
		return nil, fmt.Errorf("reading ppm magic: %w", err)
	}
	if magic != "P3" && magic != "P6" {
		return nil, fmt.Errorf("ppm magic %q: %w", magic, ErrUnsupportedFormat)
	}

	var header [3]int
	for i, name := range []string{"width", "height", "maxval"} {
		tok, err := ppmToken(br)
		if err != nil {
			return nil, fmt.Errorf("reading ppm %s: %w", name, err)
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid ppm %s %q", name, tok)
		}
		header[i] = n
	}
	width, height, maxval := header[0], header[1], header[2]
	if magic == "P6" && maxval > 255 {
		return nil, fmt.Errorf("ppm maxval %d: %w", maxval, ErrUnsupportedFormat)
	}

	tex := New(width, height)
	scale := float64(maxval)

	if magic == "P6" {
		// Exactly one whitespace byte separates the header from the raster,
		// and ppmToken has already consumed it.
		raw := make([]byte, width*height*3)
		if _, err := io.ReadFull(br, raw); err != nil {
			return nil, fmt.Errorf("reading ppm raster: %w", err)
		}
		for i := range tex.Pixels {
			tex.Pixels[i] = Color{
				float64(raw[i*3]) / scale,
				float64(raw[i*3+1]) / scale,
				float64(raw[i*3+2]) / scale,
			}
		}
		return tex, nil
	}

	var ch [3]float64
	for i := range tex.Pixels {
		for c := range ch {
			tok, err := ppmToken(br)
			if err != nil {
				return nil, fmt.Errorf("reading ppm pixel %d: %w", i, err)
			}
			n, err := strconv.Atoi(tok)
			if err != nil || n < 0 || n > maxval {
				return nil, fmt.Errorf("invalid ppm sample %q at pixel %d", tok, i)
			}
			ch[c] = float64(n) / scale
		}
		tex.Pixels[i] = Color{ch[0], ch[1], ch[2]}
	}
	return tex, nil
}

// WritePPM encodes tex as an ASCII P3 pixmap with maxval 255, one row per
// line. Channels are truncated the same way ToRGBA does.
func WritePPM(w io.Writer, tex *Texture) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P3\n%d %d\n255\n", tex.Width, tex.Height)
	for row := range tex.Height {
		for col := range tex.Width {
			c := tex.At(row, col).ToRGBA()
			if col > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%d %d %d", c.R, c.G, c.B)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ppmToken returns the next whitespace-delimited token, skipping '#'
// comments. The single whitespace byte after the token is consumed.
func ppmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch {
		case b == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}
