package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

// DefaultNear is the distance of the near clipping plane.
const DefaultNear = 0.1

// ErrInvalidViewport is returned by NewViewport for non-positive sizes.
var ErrInvalidViewport = errors.New("invalid viewport")

// missingTexture stands in for meshes whose Texture is nil.
var missingTexture = texture.Missing(10, 10, 2)

// FrameStats counts the work done since the last Clear.
type FrameStats struct {
	MeshesTested int // Meshes submitted to DrawMesh
	MeshesCulled int // Meshes entirely outside the view
	MeshesDrawn  int // Meshes that reached the rasterizer

	Invalid    int // Triangles dropped for bad indices
	Clip       ClipStats
	Backfaces  int // Triangles culled as facing away
	Offscreen  int // Triangles covering no pixel center
	Rasterized int
	Tiles      int // Tile jobs run
}

// Viewport renders meshes seen from a pinhole camera at the origin looking
// down +Z. A point (x, y, z) lands on pixel (x·f/z + w/2, y·f/z + h/2).
//
// The exported fields may be changed between draws.
type Viewport struct {
	Width      int
	Height     int
	Focal      float64
	Background texture.Color

	Near     float64 // Distance of the near clipping plane
	Lights   []LightSource
	Strategy Strategy
	Workers  int // Tile workers; 0 means GOMAXPROCS
	TileSize int

	Stats FrameStats

	fb *Framebuffer
}

// NewViewport creates a cleared viewport.
func NewViewport(width, height int, focal float64, background texture.Color) (*Viewport, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidViewport, width, height)
	}
	if !(focal > 0) {
		return nil, fmt.Errorf("%w: focal length %v", ErrInvalidViewport, focal)
	}
	v := &Viewport{
		Width:      width,
		Height:     height,
		Focal:      focal,
		Background: background,
		Near:       DefaultNear,
		Strategy:   StrategyBarycentric,
		TileSize:   DefaultTileSize,
		fb:         NewFramebuffer(width, height),
	}
	v.Clear()
	return v, nil
}

// Framebuffer returns the viewport's color and depth buffers.
func (v *Viewport) Framebuffer() *Framebuffer {
	return v.fb
}

// Clear resets every pixel to the background, every depth to empty and
// the frame statistics to zero.
func (v *Viewport) Clear() {
	v.fb.Clear(v.Background)
	v.Stats = FrameStats{}
}

// Project maps a camera-space point to screen coordinates.
func (v *Viewport) Project(p math3d.Vec3) math3d.Vec2 {
	return math3d.V2(
		p.X*v.Focal/p.Z+float64(v.Width)/2,
		p.Y*v.Focal/p.Z+float64(v.Height)/2,
	)
}

func (v *Viewport) near() float64 {
	if v.Near > 0 {
		return v.Near
	}
	return DefaultNear
}

// NearPlane returns the plane meshes are clipped against.
func (v *Viewport) NearPlane() Plane {
	return NewPlane(math3d.V3(0, 0, v.near()), math3d.Forward())
}

// Frustum returns the visible volume. It has no far limit.
func (v *Viewport) Frustum() Frustum {
	return NewPinholeFrustum(v.Width, v.Height, v.Focal, v.near(), math.MaxFloat64)
}

// DrawMesh renders mesh into the viewport. See DrawMeshContext.
func (v *Viewport) DrawMesh(mesh *models.Mesh) {
	_ = v.DrawMeshContext(context.Background(), mesh)
}

// DrawMeshContext renders mesh with depth testing and Phong shading.
//
// The mesh is modified: triangles crossing the near plane are clipped and
// triangles with out-of-range indices are dropped. Face normals are always
// recomputed. Vertex normals are recomputed when clipping changed the mesh
// or some used vertex has none; otherwise loaded or transformed normals
// are shaded as they are. Draw a Clone to keep the original.
//
// Rasterization stops early when ctx is cancelled, leaving the frame
// partially drawn, and ctx.Err() is returned.
func (v *Viewport) DrawMeshContext(ctx context.Context, mesh *models.Mesh) error {
	v.Stats.MeshesTested++
	v.Stats.Invalid += dropInvalidTriangles(mesh)

	frustum := v.Frustum()
	box := MeshAABB(mesh)
	if len(mesh.Triangles) == 0 || !frustum.IntersectAABB(box) {
		v.Stats.MeshesCulled++
		return nil
	}
	clipped := false
	if !frustum.ContainsAABB(box) {
		stats := ClipAgainstPlane(mesh, v.NearPlane())
		v.Stats.Clip.Kept += stats.Kept
		v.Stats.Clip.Removed += stats.Removed
		v.Stats.Clip.Split += stats.Split
		v.Stats.Clip.Emitted += stats.Emitted
		v.Stats.Clip.NewVertices += stats.NewVertices
		clipped = stats.Split+stats.Removed > 0
	}
	if clipped || !mesh.HasVertexNormals() {
		mesh.RecalculateNormals()
	} else {
		mesh.RecalculateFaceNormals()
	}
	v.Stats.MeshesDrawn++

	setups := v.setupTriangles(mesh)
	v.Stats.Rasterized += len(setups)

	tiles, err := v.rasterizeTiles(ctx, setups)
	v.Stats.Tiles += tiles

	Logger().Debug("frame",
		"mesh", mesh.Name,
		"triangles", len(mesh.Triangles),
		"clipped", v.Stats.Clip.Split,
		"culled", v.Stats.Backfaces,
		"drawn", v.Stats.Rasterized,
		"tiles", v.Stats.Tiles,
		"strategy", v.Strategy,
	)
	return err
}

// setupTriangles culls and projects every triangle of a clipped mesh with
// fresh normals.
func (v *Viewport) setupTriangles(mesh *models.Mesh) []*triSetup {
	tex := mesh.Texture
	if tex == nil {
		tex = missingTexture
	}
	mat := &mesh.Material

	setups := make([]*triSetup, 0, len(mesh.Triangles))
	for t, tri := range mesh.Triangles {
		faceNormal := mesh.FaceNormals[t]
		p0 := mesh.Vertices[tri[0]]
		// The view vector runs from the camera position (the origin) to the
		// triangle, not along the forward axis, so culling stays correct
		// off-axis.
		if mesh.CullBackfaces && faceNormal.Dot(p0) > 0 {
			v.Stats.Backfaces++
			continue
		}

		var sv [3]screenVertex
		for i, idx := range tri {
			world := mesh.Vertices[idx]
			screen := v.Project(world)
			uv := mesh.TexCoords[mesh.TexTris[t][i]]
			sv[i] = screenVertex{
				x: screen.X,
				y: screen.Y,
				p: newPayload(world, mesh.VertexNormals[idx], uv),
			}
		}

		s, ok := newTriSetup(sv, v.Width, v.Height, v.Strategy)
		if !ok {
			v.Stats.Offscreen++
			continue
		}
		s.faceNormal = faceNormal
		s.material = mat
		s.tex = tex
		setups = append(setups, s)
	}
	return setups
}

// dropInvalidTriangles removes triangles whose vertex or texcoord indices
// are out of range and reports how many it removed. Normal slices of the
// wrong length are rebuilt.
func dropInvalidTriangles(mesh *models.Mesh) int {
	valid := func(t int) bool {
		if t >= len(mesh.TexTris) {
			return false
		}
		for i := range 3 {
			if idx := mesh.Triangles[t][i]; idx < 0 || idx >= len(mesh.Vertices) {
				return false
			}
			if idx := mesh.TexTris[t][i]; idx < 0 || idx >= len(mesh.TexCoords) {
				return false
			}
		}
		return true
	}

	dropped := 0
	keep := 0
	for t := range mesh.Triangles {
		if !valid(t) {
			Logger().Warn("skipping invalid triangle", "mesh", mesh.Name, "triangle", t)
			dropped++
			continue
		}
		mesh.Triangles[keep] = mesh.Triangles[t]
		mesh.TexTris[keep] = mesh.TexTris[t]
		if t < len(mesh.FaceNormals) && keep < len(mesh.FaceNormals) {
			mesh.FaceNormals[keep] = mesh.FaceNormals[t]
		}
		keep++
	}
	mesh.Triangles = mesh.Triangles[:keep]
	mesh.TexTris = mesh.TexTris[:keep]
	if len(mesh.FaceNormals) > keep {
		mesh.FaceNormals = mesh.FaceNormals[:keep]
	}

	if len(mesh.FaceNormals) != keep || len(mesh.VertexNormals) != len(mesh.Vertices) {
		mesh.RecalculateNormals()
	}
	return dropped
}

// DrawTexture copies tex into the pixel buffer with its top-left corner at
// (x, y). Parts outside the viewport are skipped and depth is untouched.
func (v *Viewport) DrawTexture(x, y int, tex *texture.Texture) {
	for row := range tex.Height {
		for col := range tex.Width {
			v.fb.SetPixel(x+col, y+row, tex.At(row, col))
		}
	}
}

// Snapshot returns a copy of the pixel buffer.
func (v *Viewport) Snapshot() *texture.Texture {
	return v.fb.Texture()
}

// WorldAt returns the camera-space position of the fragment at (x, y), or
// zero where nothing was drawn.
func (v *Viewport) WorldAt(x, y int) math3d.Vec3 {
	if x < 0 || x >= v.Width || y < 0 || y >= v.Height {
		return math3d.Vec3{}
	}
	return v.fb.World[y*v.Width+x]
}

// NormalAt returns the unit surface normal at (x, y), or zero where
// nothing was drawn.
func (v *Viewport) NormalAt(x, y int) math3d.Vec3 {
	if x < 0 || x >= v.Width || y < 0 || y >= v.Height {
		return math3d.Vec3{}
	}
	return v.fb.Normal[y*v.Width+x]
}

// Blur replaces the pixel buffer with its Gaussian blur. See
// texture.GaussianBlur.
func (v *Viewport) Blur(radius float64) {
	blurred := texture.GaussianBlur(v.fb.Texture(), radius)
	copy(v.fb.Pixels, blurred.Pixels)
}

// Image returns the pixel buffer as an 8-bit image.
func (v *Viewport) Image() *image.RGBA {
	return v.Snapshot().ToImage()
}

// PixelAt returns the color at (x, y), or black outside the viewport.
func (v *Viewport) PixelAt(x, y int) texture.Color {
	return v.fb.GetPixel(x, y)
}

// DepthAt returns the inverse depth at (x, y). It is 0 where nothing has
// been drawn.
func (v *Viewport) DepthAt(x, y int) float64 {
	return v.fb.GetDepth(x, y)
}
