package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/texture"
)

// LoadOBJ loads a Wavefront OBJ file. A referenced mtllib is loaded
// relative to the OBJ and supplies the material and texture.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, mtllib, err := parseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if mtllib != "" {
		mat, tex, err := LoadMTL(filepath.Join(filepath.Dir(path), mtllib))
		if err != nil {
			return nil, fmt.Errorf("load material for %s: %w", path, err)
		}
		mesh.Material = mat
		if tex != nil {
			mesh.Texture = tex
		}
	}
	return mesh, nil
}

// ReadOBJ parses OBJ geometry from r. Material libraries are ignored.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	mesh, _, err := parseOBJ(r)
	if err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}
	return mesh, nil
}

// objCorner is one v/t/n reference of a face, already resolved to
// 0-based indices. Missing components are -1.
type objCorner struct {
	v, t, n int
}

// parseOBJ returns errors prefixed with the line number only, so callers
// can prepend the file name.
func parseOBJ(r io.Reader) (*Mesh, string, error) {
	var (
		vertices  []math3d.Vec3
		texCoords []math3d.Vec2
		normals   []math3d.Vec3
		triangles [][3]int
		texTris   [][3]int
		mtllib    string

		// vnFor maps a vertex to the file normal its faces named.
		vnFor = map[int]int{}
		// Set when some corner has no texcoord.
		needBlank bool
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ident, args := fields[0], fields[1:]

		switch ident {
		case "v", "vn":
			v, err := parseFloats(args, 3)
			if err != nil {
				return nil, "", fmt.Errorf("%d: %s: %w", lineNo, ident, err)
			}
			p := math3d.V3(v[0], v[1], v[2])
			if ident == "v" {
				vertices = append(vertices, p)
			} else {
				normals = append(normals, p)
			}

		case "vt":
			v, err := parseFloats(args, 2)
			if err != nil {
				return nil, "", fmt.Errorf("%d: vt: %w", lineNo, err)
			}
			texCoords = append(texCoords, math3d.V2(v[0], v[1]))

		case "f":
			if len(args) < 3 {
				return nil, "", fmt.Errorf("%d: face has %d corners", lineNo, len(args))
			}
			corners := make([]objCorner, len(args))
			for i, arg := range args {
				c, err := parseCorner(arg, len(vertices), len(texCoords), len(normals))
				if err != nil {
					return nil, "", fmt.Errorf("%d: %w", lineNo, err)
				}
				if c.t < 0 {
					needBlank = true
				}
				if c.n >= 0 {
					vnFor[c.v] = c.n
				}
				corners[i] = c
			}
			// Fan triangulation around the first corner.
			for i := 1; i+1 < len(corners); i++ {
				a, b, c := corners[0], corners[i], corners[i+1]
				triangles = append(triangles, [3]int{a.v, b.v, c.v})
				texTris = append(texTris, [3]int{a.t, b.t, c.t})
			}

		case "mtllib":
			if len(args) > 0 && mtllib == "" {
				mtllib = strings.Join(args, " ")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("%d: %w", lineNo, err)
	}

	// Corners without a texcoord share one (0,0) entry appended after the
	// file's own, so file indices stay valid while parsing.
	if needBlank {
		blank := len(texCoords)
		texCoords = append(texCoords, math3d.Vec2{})
		for i := range texTris {
			for j, t := range texTris[i] {
				if t < 0 {
					texTris[i][j] = blank
				}
			}
		}
	}

	mesh := NewMesh("obj", vertices, triangles)
	if len(texCoords) > 0 {
		mesh.TexCoords = texCoords
		mesh.TexTris = texTris
	}
	mesh.RecalculateNormals()
	for v, n := range vnFor {
		mesh.VertexNormals[v] = normals[n].Normalize()
	}
	return mesh, mtllib, nil
}

// parseCorner parses v, v/t, v//n or v/t/n. Negative indices count back
// from the most recent entry.
func parseCorner(s string, nv, nt, nn int) (objCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objCorner{}, fmt.Errorf("malformed face corner %q", s)
	}
	c := objCorner{v: -1, t: -1, n: -1}

	var err error
	if c.v, err = resolveIndex(parts[0], nv, "vertex"); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.t, err = resolveIndex(parts[1], nt, "texcoord"); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.n, err = resolveIndex(parts[2], nn, "normal"); err != nil {
			return c, err
		}
	}
	return c, nil
}

func resolveIndex(s string, count int, what string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("bad %s index %q", what, s)
	}
	switch {
	case idx > 0 && idx <= count:
		return idx - 1, nil
	case idx < 0 && -idx <= count:
		return count + idx, nil
	default:
		return -1, fmt.Errorf("%s index %d out of range (have %d)", what, idx, count)
	}
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", args[i])
		}
		out[i] = v
	}
	return out, nil
}

// LoadMTL reads the first material of an MTL file. The map_Kd texture,
// if any, is loaded relative to the MTL file; the returned texture is nil
// when none is named.
func LoadMTL(path string) (Material, *texture.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Material{}, nil, fmt.Errorf("open mtl: %w", err)
	}
	defer f.Close()

	mat, mapKd, err := parseMTL(f)
	if err != nil {
		return Material{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	if mapKd == "" {
		return mat, nil, nil
	}
	tex, err := texture.Load(filepath.Join(filepath.Dir(path), mapKd))
	if err != nil {
		return Material{}, nil, fmt.Errorf("%s: map_Kd: %w", path, err)
	}
	return mat, tex, nil
}

// parseMTL starts from MissingMaterial and overrides the keys it finds.
// illum 0 selects no lighting, 1 flat and anything higher smooth.
func parseMTL(r io.Reader) (Material, string, error) {
	mat := MissingMaterial()
	var mapKd string
	seen := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ident, args := fields[0], fields[1:]

		if ident == "newmtl" {
			if seen {
				break
			}
			seen = true
			if len(args) > 0 {
				mat.Name = args[0]
			}
			continue
		}

		switch ident {
		case "Ka", "Kd", "Ks":
			v, err := parseFloats(args, 3)
			if err != nil {
				return mat, "", fmt.Errorf("%d: %s: %w", lineNo, ident, err)
			}
			c := texture.RGB(v[0], v[1], v[2])
			switch ident {
			case "Ka":
				mat.Ambient = c
			case "Kd":
				mat.Diffuse = c
			case "Ks":
				mat.Specular = c
			}
		case "Ns", "d", "illum":
			v, err := parseFloats(args, 1)
			if err != nil {
				return mat, "", fmt.Errorf("%d: %s: %w", lineNo, ident, err)
			}
			switch ident {
			case "Ns":
				mat.Highlights = v[0]
			case "d":
				mat.Opacity = v[0]
			case "illum":
				switch {
				case v[0] < 1:
					mat.Mode = LightingNone
				case v[0] < 2:
					mat.Mode = LightingFlat
				default:
					mat.Mode = LightingSmooth
				}
			}
		case "map_Kd":
			if len(args) > 0 {
				// Options such as -s precede the file name.
				mapKd = args[len(args)-1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return mat, "", fmt.Errorf("%d: %w", lineNo, err)
	}
	return mat, mapKd, nil
}

// WriteOBJ writes the mesh as OBJ text with 1-based v/t/n face corners.
// Vertex normals share the vertex index space.
func WriteOBJ(w io.Writer, mesh *Mesh) error {
	bw := bufio.NewWriter(w)
	if mesh.Name != "" {
		fmt.Fprintf(bw, "o %s\n", mesh.Name)
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v.X, v.Y, v.Z)
	}
	for _, n := range mesh.VertexNormals {
		fmt.Fprintf(bw, "vn %.6f %.6f %.6f\n", n.X, n.Y, n.Z)
	}
	for _, t := range mesh.TexCoords {
		fmt.Fprintf(bw, "vt %.6f %.6f\n", t.X, t.Y)
	}
	for i, tri := range mesh.Triangles {
		tt := mesh.TexTris[i]
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n",
			tri[0]+1, tt[0]+1, tri[0]+1,
			tri[1]+1, tt[1]+1, tri[1]+1,
			tri[2]+1, tt[2]+1, tri[2]+1,
		)
	}
	return bw.Flush()
}

// WriteMTL writes mat as a single-material MTL file. textureFile is
// written as map_Kd when non-empty.
func WriteMTL(w io.Writer, mat Material, textureFile string) error {
	bw := bufio.NewWriter(w)
	name := mat.Name
	if name == "" {
		name = "material"
	}
	fmt.Fprintf(bw, "newmtl %s\n", name)
	fmt.Fprintf(bw, "Ka %.4f %.4f %.4f\n", mat.Ambient.R, mat.Ambient.G, mat.Ambient.B)
	fmt.Fprintf(bw, "Kd %.4f %.4f %.4f\n", mat.Diffuse.R, mat.Diffuse.G, mat.Diffuse.B)
	fmt.Fprintf(bw, "Ks %.4f %.4f %.4f\n", mat.Specular.R, mat.Specular.G, mat.Specular.B)
	fmt.Fprintf(bw, "Ns %g\n", mat.Highlights)
	fmt.Fprintf(bw, "d %g\n", mat.Opacity)
	fmt.Fprintf(bw, "illum %d\n", int(mat.Mode))
	if textureFile != "" {
		fmt.Fprintf(bw, "map_Kd %s\n", textureFile)
	}
	return bw.Flush()
}
