package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

// Phong term weights.
const (
	ambientWeight  = 0.2
	diffuseWeight  = 0.4
	specularWeight = 0.6
)

// LightSource is a point light. Its position is used as the direction the
// light arrives from, so distance has no effect.
type LightSource struct {
	Color    texture.Color
	Position math3d.Vec3
}

// fragment is a perspective-corrected payload at one pixel.
type fragment struct {
	uv     math3d.Vec2
	world  math3d.Vec3
	normal math3d.Vec3
	invZ   float64
}

// shade computes the color of f on a surface with the given material,
// texture and face normal.
func shade(f fragment, mat *models.Material, tex *texture.Texture, faceNormal math3d.Vec3, lights []LightSource) texture.Color {
	base := tex.Sample(f.uv.X, f.uv.Y)

	if mat.Mode != models.LightingFlat && mat.Mode != models.LightingSmooth {
		return base
	}
	n := surfaceNormal(f, mat, faceNormal)

	ambient := base.Mul(mat.Ambient).Scale(ambientWeight)
	total := texture.Black
	for _, light := range lights {
		l := light.Position.Normalize()
		diff := clamp01(n.Dot(l))
		spec := math.Pow(clamp01(math3d.Forward().Dot(l.Negate().Reflect(n))), mat.Highlights)

		total = total.Add(ambient.
			Add(mat.Diffuse.Scale(diff * diffuseWeight)).
			Add(light.Color.Scale(spec * specularWeight)))
	}
	return total
}

// surfaceNormal is the unit normal of f: interpolated in Smooth mode and
// the face normal otherwise.
func surfaceNormal(f fragment, mat *models.Material, faceNormal math3d.Vec3) math3d.Vec3 {
	if mat.Mode == models.LightingSmooth {
		return f.normal.Normalize()
	}
	return faceNormal.Normalize()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
