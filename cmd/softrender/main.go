// softrender - CPU software rasterizer demo
// Renders OBJ and glTF models to an image file, or spins them in your
// terminal.
//
// Controls (terminal mode):
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset rotation
//	X           - Toggle wireframe overlay
//	B           - Switch raster strategy
//	M           - Cycle lighting mode
//	O           - Toggle ambient occlusion
//	?           - Toggle status line
//	+/-         - Adjust distance
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/render"
	"github.com/taigrr/softrender/pkg/texture"
)

// options is the parsed command line.
type options struct {
	output      string
	width       int
	height      int
	focal       float64 // 0 picks one from the viewport height
	background  texture.Color
	lightColor  texture.Color
	light       math3d.Vec3
	mode        string // Empty keeps the model's material
	strategy    render.Strategy
	workers     int
	tileSize    int
	texturePath string
	wireframe   bool
	distance    float64
	fps         int
	verbose     bool
	effects     effects

	modelPath string
}

// effects are the screen-space passes run after the model is drawn.
type effects struct {
	occlusion bool
	samples   int
	radius    float64
	blur      float64 // Gaussian radius in pixels, 0 for none
}

const (
	occlusionNoise = 16
	occlusionBias  = 0.02
)

// apply runs the enabled passes over the frame in vp.
func (e effects) apply(ctx context.Context, vp *render.Viewport) error {
	if e.occlusion {
		// A fixed seed keeps the noise pattern still from frame to frame.
		rng := rand.New(rand.NewSource(1))
		if err := render.AmbientOcclusion(ctx, vp, e.samples, occlusionNoise, e.radius, occlusionBias, rng); err != nil {
			return err
		}
	}
	if e.blur > 0 {
		vp.Blur(e.blur)
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err == nil {
		err = run(opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("softrender", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		opts     options
		bg       = fs.String("bg", "#1e1e28", "Background color (hex)")
		lightHex = fs.String("light-color", "#ffffff", "Light color (hex)")
		light    = fs.String("light", "-1,-1,-2", "Direction the light arrives from (x,y,z)")
		strategy = fs.String("strategy", "barycentric", "Raster strategy: barycentric or edgewalk")
	)
	fs.StringVar(&opts.output, "o", "", "Render one frame to this file (.png, .bmp, .ppm, .jpg) instead of the terminal")
	fs.IntVar(&opts.width, "width", 320, "Output width in pixels (with -o)")
	fs.IntVar(&opts.height, "height", 240, "Output height in pixels (with -o)")
	fs.Float64Var(&opts.focal, "focal", 0, "Focal length in pixels (0 = fit the height)")
	fs.StringVar(&opts.mode, "mode", "", "Lighting mode override: none, flat or smooth")
	fs.IntVar(&opts.workers, "workers", 0, "Tile workers (0 = GOMAXPROCS)")
	fs.IntVar(&opts.tileSize, "tile", render.DefaultTileSize, "Tile size in pixels")
	fs.StringVar(&opts.texturePath, "texture", "", "Path to texture image (PNG/JPG/BMP/PPM)")
	fs.BoolVar(&opts.wireframe, "wireframe", false, "Draw triangle edges over the model")
	fs.Float64Var(&opts.distance, "distance", 4, "Distance from the camera to the model center")
	fs.IntVar(&opts.fps, "fps", 60, "Target FPS")
	fs.BoolVar(&opts.verbose, "v", false, "Log frame statistics to stderr (with -o)")
	fs.BoolVar(&opts.effects.occlusion, "ao", false, "Darken creases with screen-space ambient occlusion")
	fs.IntVar(&opts.effects.samples, "ao-samples", 32, "Ambient occlusion samples per pixel")
	fs.Float64Var(&opts.effects.radius, "ao-radius", 0.4, "Ambient occlusion radius in world units")
	fs.Float64Var(&opts.effects.blur, "blur", 0, "Gaussian blur radius in pixels (0 = off)")

	fs.Usage = func() {
		fmt.Fprintf(output, "softrender - CPU software rasterizer\n\n")
		fmt.Fprintf(output, "Usage: softrender [options] [model.obj|model.glb]\n\n")
		fmt.Fprintf(output, "Without a model a cube is rendered.\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nControls:\n")
		fmt.Fprintf(output, "  Mouse drag  - Rotate model\n")
		fmt.Fprintf(output, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(output, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(output, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(output, "  Space       - Random spin\n")
		fmt.Fprintf(output, "  R           - Reset view\n")
		fmt.Fprintf(output, "  X           - Toggle wireframe\n")
		fmt.Fprintf(output, "  B           - Switch raster strategy\n")
		fmt.Fprintf(output, "  M           - Cycle lighting mode\n")
		fmt.Fprintf(output, "  O           - Toggle ambient occlusion\n")
		fmt.Fprintf(output, "  ?           - Toggle status line\n")
		fmt.Fprintf(output, "  Esc         - Quit\n")
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 1 {
		return opts, fmt.Errorf("expected at most one model, got %d", fs.NArg())
	}
	opts.modelPath = fs.Arg(0)

	var err error
	if opts.background, err = parseColor(*bg); err != nil {
		return opts, fmt.Errorf("-bg: %w", err)
	}
	if opts.lightColor, err = parseColor(*lightHex); err != nil {
		return opts, fmt.Errorf("-light-color: %w", err)
	}
	if opts.light, err = parseVec3(*light); err != nil {
		return opts, fmt.Errorf("-light: %w", err)
	}
	if opts.strategy, err = render.ParseStrategy(*strategy); err != nil {
		return opts, fmt.Errorf("-strategy: %w", err)
	}
	if opts.mode != "" {
		if _, err := models.ParseLightingMode(opts.mode); err != nil {
			return opts, fmt.Errorf("-mode: %w", err)
		}
	}
	if opts.effects.samples <= 0 {
		return opts, fmt.Errorf("-ao-samples must be positive, got %d", opts.effects.samples)
	}
	if !(opts.effects.radius > 0) {
		return opts, fmt.Errorf("-ao-radius must be positive, got %v", opts.effects.radius)
	}
	if !(opts.effects.blur >= 0) {
		return opts, fmt.Errorf("-blur must not be negative, got %v", opts.effects.blur)
	}
	if opts.fps <= 0 {
		return opts, fmt.Errorf("-fps must be positive, got %d", opts.fps)
	}
	return opts, nil
}

// parseColor parses a hex color such as "#1e1e28".
func parseColor(s string) (texture.Color, error) {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return texture.Color{}, err
	}
	return texture.RGB(c.R, c.G, c.B), nil
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (math3d.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math3d.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = f
	}
	return math3d.V3(v[0], v[1], v[2]), nil
}

func run(opts options) error {
	// Logs would corrupt the terminal viewer, so only headless runs get them.
	if opts.output != "" && opts.verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	mesh, err := loadModel(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.output != "" {
		return renderFile(ctx, opts, mesh)
	}
	return runTerminal(ctx, opts, mesh)
}

// loadModel loads the model named on the command line, or builds a cube,
// and prepares it for viewing: centered on its origin, scaled to fit a
// 2-unit box and turned from y-up into camera space.
func loadModel(opts options) (*models.Mesh, error) {
	var (
		mesh *models.Mesh
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(opts.modelPath)); {
	case opts.modelPath == "":
		mesh = models.NewCube(2)
		mesh.Material = models.Material{
			Name:       "cube",
			Ambient:    texture.White,
			Diffuse:    texture.RGB(0.55, 0.6, 0.75),
			Specular:   texture.White,
			Highlights: 20,
			Opacity:    1,
			Mode:       models.LightingFlat,
		}
	case ext == ".obj":
		mesh, err = models.LoadOBJ(opts.modelPath)
	case ext == ".glb" || ext == ".gltf":
		mesh, err = models.LoadGLB(opts.modelPath)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .obj, .glb or .gltf)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	if opts.texturePath != "" {
		tex, err := texture.Load(opts.texturePath)
		if err != nil {
			return nil, fmt.Errorf("load texture: %w", err)
		}
		mesh.Texture = tex
	}
	if opts.mode != "" {
		mode, err := models.ParseLightingMode(opts.mode)
		if err != nil {
			return nil, err
		}
		mesh.Material.Mode = mode
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	normalize(mesh)
	render.Logger().Info("model loaded",
		"name", mesh.Name,
		"vertices", mesh.VertexCount(),
		"triangles", mesh.TriangleCount(),
	)
	return mesh, nil
}

// normalize centers mesh on the world origin, scales it so its largest
// side is 2 and flips it from y-up into the y-down camera space.
func normalize(mesh *models.Mesh) {
	lo, hi := mesh.Bounds()
	center := lo.Add(hi).Scale(0.5)
	size := hi.Sub(lo)
	scale := 1.0
	if maxDim := math.Max(size.X, math.Max(size.Y, size.Z)); maxDim > 0 {
		scale = 2 / maxDim
	}

	transform := math3d.RotateX(math.Pi).
		Mul(math3d.Scale(math3d.V3(scale, scale, scale))).
		Mul(math3d.Translate(center.Negate()))
	mesh.Transform(transform)
	mesh.Origin = math3d.Zero3()
}

// newViewport builds a viewport configured from opts.
func newViewport(opts options, width, height int) (*render.Viewport, error) {
	focal := opts.focal
	if focal <= 0 {
		focal = float64(min(width, height))
	}
	vp, err := render.NewViewport(width, height, focal, opts.background)
	if err != nil {
		return nil, err
	}
	vp.Strategy = opts.strategy
	vp.Workers = opts.workers
	vp.TileSize = opts.tileSize
	vp.Lights = []render.LightSource{{Color: opts.lightColor, Position: opts.light}}
	return vp, nil
}

// drawFrame clears vp and draws mesh posed by rot at the given distance,
// then runs post over the result. The wireframe goes on last so edges
// stay sharp.
func drawFrame(ctx context.Context, vp *render.Viewport, mesh *models.Mesh, rot *RotationState, distance float64, wireframe bool, post effects) error {
	posed := mesh.Clone()
	posed.RotateX(rot.Pitch.Position)
	posed.RotateY(rot.Yaw.Position)
	posed.RotateZ(rot.Roll.Position)
	posed.Translate(math3d.V3(0, 0, distance))

	vp.Clear()
	var edges *models.Mesh
	if wireframe {
		// DrawMeshContext clips posed, so keep an untouched copy for edges.
		edges = posed.Clone()
	}
	if err := vp.DrawMeshContext(ctx, posed); err != nil {
		return err
	}
	if err := post.apply(ctx, vp); err != nil {
		return err
	}
	if edges != nil {
		vp.DrawWireframe(edges)
	}
	return nil
}

// renderFile renders a single frame and writes it to opts.output.
func renderFile(ctx context.Context, opts options, mesh *models.Mesh) error {
	vp, err := newViewport(opts, opts.width, opts.height)
	if err != nil {
		return err
	}

	// A three-quarter view shows three faces of a box.
	rot := NewRotationState(opts.fps)
	rot.Pitch.Position = -0.45
	rot.Yaw.Position = 0.6

	if err := drawFrame(ctx, vp, mesh, rot, opts.distance, opts.wireframe, opts.effects); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := vp.Save(opts.output); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	render.Logger().Info("frame written",
		"path", opts.output,
		"width", vp.Width,
		"height", vp.Height,
		"drawn", vp.Stats.Rasterized,
		"culled", vp.Stats.Backfaces,
		"clipped", vp.Stats.Clip.Split,
	)
	return nil
}
