package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/texture"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Recompute normals when the file has none. Face normals are always
	// derived from the winding.
	CalculateNormals bool
	// Use the first embedded or referenced image as the mesh texture.
	LoadTexture bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		LoadTexture:      true,
	}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	loader := NewGLTFLoader()
	return loader.Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := l.LoadDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if l.LoadTexture {
		if tex := firstImage(doc, filepath.Dir(path)); tex != nil {
			mesh.Texture = tex
		}
	}
	return mesh, nil
}

// LoadDocument merges every triangle primitive of doc into one mesh.
// Texture coordinates share the vertex index space, so TexTris mirrors
// Triangles.
func (l *GLTFLoader) LoadDocument(doc *gltf.Document) (*Mesh, error) {
	var b gltfBuilder
	for _, m := range doc.Meshes {
		if err := b.processMesh(doc, m); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	mesh := NewMesh("gltf", b.vertices, b.triangles)
	if b.hasUVs {
		mesh.TexCoords = b.uvs
		mesh.TexTris = append([][3]int(nil), b.triangles...)
	}

	mesh.RecalculateNormals()
	if b.hasNormals || !l.CalculateNormals {
		for i, n := range b.normals {
			mesh.VertexNormals[i] = n.Normalize()
		}
	}

	if mat, ok := firstMaterial(doc); ok {
		mesh.Material = mat
	}
	return mesh, nil
}

type gltfBuilder struct {
	vertices  []math3d.Vec3
	normals   []math3d.Vec3
	uvs       []math3d.Vec2
	triangles [][3]int

	hasNormals bool
	hasUVs     bool
}

// processMesh extracts geometry from a GLTF mesh.
func (b *gltfBuilder) processMesh(doc *gltf.Document, m *gltf.Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
			b.hasNormals = true
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
			b.hasUVs = true
		}

		baseVertex := len(b.vertices)
		for i, p := range positions {
			b.vertices = append(b.vertices, p)

			var n math3d.Vec3
			if i < len(normals) {
				n = normals[i]
			}
			b.normals = append(b.normals, n)

			// GLTF puts V=0 on the top row, which is row 0 of a Texture.
			var uv math3d.Vec2
			if i < len(uvs) {
				uv = uvs[i]
			}
			b.uvs = append(b.uvs, uv)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// GLTF front faces are counter-clockwise; ours are clockwise as
		// seen from the camera, so reverse the winding.
		for i := 0; i+2 < len(indices); i += 3 {
			tri := [3]int{
				baseVertex + indices[i],
				baseVertex + indices[i+2],
				baseVertex + indices[i+1],
			}
			for _, v := range tri {
				if v >= len(b.vertices) {
					return fmt.Errorf("index %d out of range (have %d vertices)", v-baseVertex, len(positions))
				}
			}
			b.triangles = append(b.triangles, tri)
		}
	}

	return nil
}

// firstMaterial converts the first PBR material into Phong terms. Base
// color drives diffuse and ambient; roughness controls the highlight size.
func firstMaterial(doc *gltf.Document) (Material, bool) {
	if len(doc.Materials) == 0 || doc.Materials[0] == nil {
		return Material{}, false
	}
	src := doc.Materials[0]
	mat := MissingMaterial()
	mat.Name = src.Name
	mat.Mode = LightingSmooth
	mat.Diffuse = texture.White
	mat.Ambient = texture.White

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			mat.Diffuse = texture.RGB(f[0], f[1], f[2])
			mat.Ambient = mat.Diffuse
			mat.Opacity = f[3]
		}
		if pbr.RoughnessFactor != nil {
			mat.Highlights = 2 + (1-*pbr.RoughnessFactor)*98
		}
	}
	return mat, true
}

// firstImage decodes the first image in the document, embedded in a
// buffer view or stored next to the file. It returns nil if none decodes.
func firstImage(doc *gltf.Document, dir string) *texture.Texture {
	for _, img := range doc.Images {
		var data []byte
		switch {
		case img.BufferView != nil:
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil && bv.ByteOffset+bv.ByteLength <= len(buf.Data) {
				data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
			}
		case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
			raw, err := os.ReadFile(filepath.Join(dir, img.URI))
			if err == nil {
				data = raw
			}
		}
		if len(data) == 0 {
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		return texture.FromImage(decoded)
	}
	return nil
}

func readVec3Accessor(doc *gltf.Document, idx int) ([]math3d.Vec3, error) {
	return decodeAccessor(doc, idx, gltf.AccessorVec3, 12, func(b []byte) math3d.Vec3 {
		return math3d.V3(float32At(b, 0), float32At(b, 1), float32At(b, 2))
	})
}

func readVec2Accessor(doc *gltf.Document, idx int) ([]math3d.Vec2, error) {
	return decodeAccessor(doc, idx, gltf.AccessorVec2, 8, func(b []byte) math3d.Vec2 {
		return math3d.V2(float32At(b, 0), float32At(b, 1))
	})
}

// readIndices widens 8, 16 or 32-bit scalar indices to int.
func readIndices(doc *gltf.Document, idx int) ([]int, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	switch ct := doc.Accessors[idx].ComponentType; ct {
	case gltf.ComponentUbyte:
		return decodeAccessor(doc, idx, gltf.AccessorScalar, 1, func(b []byte) int {
			return int(b[0])
		})
	case gltf.ComponentUshort:
		return decodeAccessor(doc, idx, gltf.AccessorScalar, 2, func(b []byte) int {
			return int(binary.LittleEndian.Uint16(b))
		})
	case gltf.ComponentUint:
		return decodeAccessor(doc, idx, gltf.AccessorScalar, 4, func(b []byte) int {
			return int(binary.LittleEndian.Uint32(b))
		})
	default:
		return nil, fmt.Errorf("accessor %d: unsupported index component %v", idx, ct)
	}
}

// decodeAccessor hands decode the elemSize bytes of every element of
// accessor idx. gltf.Open has already resolved embedded, data-URI and
// external buffers into Data.
func decodeAccessor[T any](doc *gltf.Document, idx int, typ gltf.AccessorType, elemSize int, decode func([]byte) T) ([]T, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.Type != typ {
		return nil, fmt.Errorf("accessor %d is %v, want %v", idx, acc.Type, typ)
	}
	if acc.BufferView == nil || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}

	view := doc.BufferViews[*acc.BufferView]
	if view.Buffer >= len(doc.Buffers) || doc.Buffers[view.Buffer].Data == nil {
		return nil, fmt.Errorf("accessor %d: buffer %d has no data", idx, view.Buffer)
	}
	buf := doc.Buffers[view.Buffer].Data

	base := view.ByteOffset + acc.ByteOffset
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if acc.Count > 0 && base+(acc.Count-1)*stride+elemSize > len(buf) {
		return nil, fmt.Errorf("accessor %d: %d elements overrun %d-byte buffer", idx, acc.Count, len(buf))
	}

	out := make([]T, acc.Count)
	for i := range out {
		off := base + i*stride
		out[i] = decode(buf[off : off+elemSize])
	}
	return out, nil
}

// float32At reads the i-th little-endian float32 of b.
func float32At(b []byte, i int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
}
