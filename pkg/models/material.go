package models

import (
	"fmt"
	"strings"

	"github.com/taigrr/softrender/pkg/texture"
)

// LightingMode selects how a surface responds to lights.
type LightingMode int

const (
	LightingNone   LightingMode = iota // Texture color only
	LightingFlat                       // One normal per face
	LightingSmooth                     // Interpolated vertex normals
)

// String returns the lowercase name used by the CLI.
func (m LightingMode) String() string {
	switch m {
	case LightingNone:
		return "none"
	case LightingFlat:
		return "flat"
	case LightingSmooth:
		return "smooth"
	default:
		return fmt.Sprintf("LightingMode(%d)", int(m))
	}
}

// ParseLightingMode parses "none", "flat" or "smooth".
func ParseLightingMode(s string) (LightingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return LightingNone, nil
	case "flat":
		return LightingFlat, nil
	case "smooth":
		return LightingSmooth, nil
	default:
		return 0, fmt.Errorf("unknown lighting mode %q", s)
	}
}

// Material holds the Phong coefficients of a surface.
type Material struct {
	Name       string
	Ambient    texture.Color
	Diffuse    texture.Color
	Specular   texture.Color
	Highlights float64 // Specular exponent
	Opacity    float64
	Mode       LightingMode
}

// MissingMaterial returns the material assigned to meshes that were not
// given one.
func MissingMaterial() Material {
	return Material{
		Name:       "missing",
		Ambient:    texture.Gray(0.75),
		Diffuse:    texture.Magenta,
		Specular:   texture.White,
		Highlights: 20,
		Opacity:    1,
		Mode:       LightingNone,
	}
}
