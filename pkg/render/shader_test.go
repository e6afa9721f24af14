package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

func colorNear(a, b texture.Color, eps float64) bool {
	return math.Abs(a.R-b.R) <= eps && math.Abs(a.G-b.G) <= eps && math.Abs(a.B-b.B) <= eps
}

func TestShade(t *testing.T) {
	white := texture.New(1, 1)
	white.Pixels[0] = texture.White
	orange := texture.New(1, 1)
	orange.Pixels[0] = texture.RGB(1, 0.5, 0)

	toCamera := math3d.V3(0, 0, -1)
	front := LightSource{Color: texture.White, Position: math3d.V3(0, 0, -1)}
	behind := LightSource{Color: texture.White, Position: math3d.V3(0, 0, 1)}

	lit := models.Material{Diffuse: texture.White, Highlights: 20, Mode: models.LightingFlat}
	ambient := models.Material{Ambient: texture.White, Highlights: 20, Mode: models.LightingFlat}

	tests := []struct {
		name       string
		mode       models.LightingMode
		mat        models.Material
		tex        *texture.Texture
		faceNormal math3d.Vec3
		normal     math3d.Vec3
		lights     []LightSource
		want       texture.Color
	}{
		{
			name: "unlit returns the texture",
			mode: models.LightingNone, mat: lit, tex: orange,
			faceNormal: toCamera, lights: []LightSource{front},
			want: texture.RGB(1, 0.5, 0),
		},
		{
			name: "head-on light saturates",
			mode: models.LightingFlat, mat: lit, tex: white,
			faceNormal: toCamera, lights: []LightSource{front},
			want: texture.White,
		},
		{
			name: "face normal need not be unit length",
			mode: models.LightingFlat, mat: lit, tex: white,
			faceNormal: math3d.V3(0, 0, -5), lights: []LightSource{front},
			want: texture.White,
		},
		{
			name: "light behind leaves ambient",
			mode: models.LightingFlat, mat: ambient, tex: white,
			faceNormal: toCamera, lights: []LightSource{behind},
			want: texture.Gray(0.2),
		},
		{
			name: "ambient is added per light",
			mode: models.LightingFlat, mat: ambient, tex: white,
			faceNormal: toCamera, lights: []LightSource{behind, behind},
			want: texture.Gray(0.4),
		},
		{
			name: "ambient is tinted by the texture",
			mode: models.LightingFlat, mat: ambient, tex: orange,
			faceNormal: toCamera, lights: []LightSource{behind},
			want: texture.RGB(0.2, 0.1, 0),
		},
		{
			name: "no lights is black",
			mode: models.LightingFlat, mat: ambient, tex: white,
			faceNormal: toCamera,
			want:       texture.Black,
		},
		{
			name: "two lights clamp",
			mode: models.LightingFlat, mat: lit, tex: white,
			faceNormal: toCamera, lights: []LightSource{front, front},
			want: texture.White,
		},
		{
			name: "light color tints the highlight",
			mode: models.LightingFlat, mat: models.Material{Highlights: 1, Mode: models.LightingFlat}, tex: white,
			faceNormal: toCamera,
			lights:     []LightSource{{Color: texture.RGB(1, 0, 0), Position: math3d.V3(0, 0, -1)}},
			want:       texture.RGB(0.6, 0, 0),
		},
		{
			name: "smooth uses the interpolated normal",
			mode: models.LightingSmooth, mat: lit, tex: white,
			faceNormal: math3d.V3(0, 0, 1), normal: math3d.V3(0, 0, -2),
			lights: []LightSource{front},
			want:   texture.White,
		},
		{
			name: "flat ignores the interpolated normal",
			mode: models.LightingFlat, mat: lit, tex: white,
			faceNormal: math3d.V3(0, 0, 1), normal: math3d.V3(0, 0, -2),
			lights: []LightSource{front},
			want:   texture.Gray(0.6),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mat := tc.mat
			mat.Mode = tc.mode
			f := fragment{normal: tc.normal, invZ: 1}
			got := shade(f, &mat, tc.tex, tc.faceNormal, tc.lights)
			if !colorNear(got, tc.want, 1e-9) {
				t.Errorf("shade = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShadeGrazingLight(t *testing.T) {
	tex := texture.New(1, 1)
	tex.Pixels[0] = texture.White
	mat := models.Material{Diffuse: texture.White, Highlights: 20, Mode: models.LightingFlat}

	// 60 degrees off the normal: cos = 0.5 for both the diffuse term and
	// the reflected ray against the view direction.
	light := LightSource{Color: texture.White, Position: math3d.V3(math.Sqrt(3), 0, -1)}
	got := shade(fragment{invZ: 1}, &mat, tex, math3d.V3(0, 0, -1), []LightSource{light})

	want := diffuseWeight * 0.5
	spec := specularWeight * math.Pow(0.5, 20)
	if math.Abs(got.R-(want+spec)) > 1e-9 {
		t.Errorf("R = %v, want %v", got.R, want+spec)
	}
}

func BenchmarkShade(b *testing.B) {
	tex := texture.NewChecker(64, 64, 8, texture.White, texture.Gray(0.3))
	mat := models.MissingMaterial()
	mat.Mode = models.LightingSmooth
	lights := []LightSource{
		{Color: texture.White, Position: math3d.V3(-1, -1, -2)},
		{Color: texture.RGB(0.2, 0.2, 0.5), Position: math3d.V3(2, 0, -1)},
	}
	f := fragment{uv: math3d.V2(0.3, 0.7), normal: math3d.V3(0.1, -0.2, -1), invZ: 0.5}

	for b.Loop() {
		_ = shade(f, &mat, tex, math3d.V3(0, 0, -1), lights)
	}
}
