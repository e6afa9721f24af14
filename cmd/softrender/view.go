package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/render"
)

const (
	minDistance = 1.5
	maxDistance = 20.0
)

var (
	statusFg = colorful.Color{R: 0.95, G: 0.95, B: 0.95}
	statusBg = colorful.Color{R: 0.1, G: 0.1, B: 0.12}
	lightFg  = colorful.Color{R: 0.988, G: 0.784, B: 0.353}
)

// viewState holds everything the keyboard and mouse can change.
type viewState struct {
	rotation  *RotationState
	distance  float64
	wireframe bool
	strategy  render.Strategy
	mode      models.LightingMode
	effects   effects
	showHUD   bool

	lightMode    bool // Aiming the light with the mouse
	light        math3d.Vec3
	pendingLight math3d.Vec3

	mouseDown bool
	lastX     int
	lastY     int
}

// frame is what the terminal draws each tick: the rendered model and the
// status line on top of it. It has no Bounds method so the terminal keeps
// its full size.
type frame struct {
	cells  *render.TerminalRenderer
	status string
	fg, bg colorful.Color
}

func (f *frame) Draw(scr uv.Screen, area uv.Rectangle) {
	f.cells.Draw(scr, area)
	if f.status == "" || area.Dy() == 0 {
		return
	}
	row := area.Max.Y - 1
	col := area.Min.X
	for _, r := range f.status {
		if col >= area.Max.X {
			break
		}
		scr.SetCell(col, row, &uv.Cell{
			Content: string(r),
			Width:   1,
			Style:   uv.Style{Fg: f.fg, Bg: f.bg},
		})
		col++
	}
	for ; col < area.Max.X; col++ {
		scr.SetCell(col, row, &uv.Cell{Content: " ", Width: 1, Style: uv.Style{Bg: f.bg}})
	}
}

// statusLine describes the view for the bottom row.
func statusLine(mesh *models.Mesh, s *viewState, vp *render.Viewport, fps float64) string {
	if s.lightMode {
		return " ◉ LIGHT MODE - move the mouse to aim, click to set, Esc to cancel"
	}
	wire, ao := " ", " "
	if s.wireframe {
		wire = "✓"
	}
	if s.effects.occlusion {
		ao = "✓"
	}
	return fmt.Sprintf(" %s │ %d tris │ %d drawn │ %s │ %s │ [%s] wireframe │ [%s] AO │ %.0f FPS",
		mesh.Name, mesh.TriangleCount(), vp.Stats.Rasterized, s.strategy, s.mode, wire, ao, fps)
}

// handleKey applies a key press and reports whether the viewer should quit.
func (s *viewState) handleKey(ev uv.KeyPressEvent, distance float64) (quit bool) {
	const impulse = 0.05
	switch {
	case ev.MatchString("escape"):
		if s.lightMode {
			s.lightMode = false
			return false
		}
		return true
	case ev.MatchString("ctrl+c"):
		return true
	case ev.MatchString("w", "up"):
		s.rotation.ApplyImpulse(-impulse, 0, 0)
	case ev.MatchString("s", "down"):
		s.rotation.ApplyImpulse(impulse, 0, 0)
	case ev.MatchString("a", "left"):
		s.rotation.ApplyImpulse(0, -impulse, 0)
	case ev.MatchString("d", "right"):
		s.rotation.ApplyImpulse(0, impulse, 0)
	case ev.MatchString("q"):
		s.rotation.ApplyImpulse(0, 0, -impulse)
	case ev.MatchString("e"):
		s.rotation.ApplyImpulse(0, 0, impulse)
	case ev.MatchString("space"):
		s.rotation.ApplyImpulse(
			(rand.Float64()-0.5)*0.3,
			(rand.Float64()-0.5)*0.3,
			(rand.Float64()-0.5)*0.3,
		)
	case ev.MatchString("r"):
		s.rotation.Reset()
		s.distance = distance
	case ev.MatchString("+", "="):
		s.distance = math.Max(minDistance, s.distance-0.5)
	case ev.MatchString("-", "_"):
		s.distance = math.Min(maxDistance, s.distance+0.5)
	case ev.MatchString("x"):
		s.wireframe = !s.wireframe
	case ev.MatchString("b"):
		if s.strategy == render.StrategyBarycentric {
			s.strategy = render.StrategyEdgeWalk
		} else {
			s.strategy = render.StrategyBarycentric
		}
	case ev.MatchString("m"):
		s.mode = (s.mode + 1) % (models.LightingSmooth + 1)
	case ev.MatchString("o"):
		s.effects.occlusion = !s.effects.occlusion
	case ev.MatchString("l"):
		s.lightMode = true
		s.pendingLight = s.light
	case ev.MatchString("?", "shift+/"):
		s.showHUD = !s.showHUD
	}
	return false
}

// handleMouse applies a mouse event on a width×height cell screen.
func (s *viewState) handleMouse(ev uv.Event, width, height int) {
	switch ev := ev.(type) {
	case uv.MouseClickEvent:
		if s.lightMode {
			s.light = s.pendingLight
			s.lightMode = false
			return
		}
		s.mouseDown = true
		s.lastX, s.lastY = ev.X, ev.Y
	case uv.MouseReleaseEvent:
		s.mouseDown = false
	case uv.MouseMotionEvent:
		if s.lightMode {
			s.pendingLight = screenToLight(ev.X, ev.Y, width, height)
		} else if s.mouseDown {
			dx, dy := ev.X-s.lastX, ev.Y-s.lastY
			s.rotation.ApplyImpulse(float64(dy)*0.01, float64(dx)*0.01, 0)
			s.lastX, s.lastY = ev.X, ev.Y
		}
	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			s.distance = math.Max(minDistance, s.distance-0.5)
		case uv.MouseWheelDown:
			s.distance = math.Min(maxDistance, s.distance+0.5)
		}
	}
}

// runTerminal spins mesh in the terminal until the user quits or ctx ends.
func runTerminal(ctx context.Context, opts options, mesh *models.Mesh) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1002h") // Button-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1002l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	state := &viewState{
		rotation:  NewRotationState(opts.fps),
		distance:  opts.distance,
		strategy:  opts.strategy,
		mode:      mesh.Material.Mode,
		light:     opts.light,
		wireframe: opts.wireframe,
		effects:   opts.effects,
		showHUD:   true,
	}
	// Start with a gentle spin so the model is obviously 3D.
	state.rotation.ApplyImpulse(0.01, 0.03, 0)

	termRenderer := render.NewTerminalRenderer(width, height)
	vp, err := newViewport(opts, width, height*2)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second / time.Duration(opts.fps))
	defer ticker.Stop()

	var (
		dirty     = true
		fps       float64
		fpsFrames int
		fpsTime   = time.Now()
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-term.Events():
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				termRenderer = render.NewTerminalRenderer(width, height)
				fbWidth, fbHeight := termRenderer.FramebufferSize()
				if vp, err = newViewport(opts, fbWidth, fbHeight); err != nil {
					return err
				}
			case uv.KeyPressEvent:
				if state.handleKey(ev, opts.distance) {
					return nil
				}
			default:
				state.handleMouse(ev, width, height)
			}
			dirty = true

		case <-ticker.C:
			state.rotation.Update()
			if !dirty && !state.rotation.Spinning() {
				continue
			}
			dirty = false

			light := state.light
			if state.lightMode {
				light = state.pendingLight
			}
			vp.Strategy = state.strategy
			vp.Lights = []render.LightSource{{Color: opts.lightColor, Position: light}}

			mesh.Material.Mode = state.mode
			if err := drawFrame(ctx, vp, mesh, state.rotation, state.distance, state.wireframe, state.effects); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			termRenderer.Render(vp.Framebuffer())

			fpsFrames++
			if elapsed := time.Since(fpsTime); elapsed >= time.Second {
				fps = float64(fpsFrames) / elapsed.Seconds()
				fpsFrames = 0
				fpsTime = time.Now()
			}

			f := &frame{cells: termRenderer, fg: statusFg, bg: statusBg}
			if state.lightMode {
				f.fg = lightFg
			}
			if state.showHUD || state.lightMode {
				f.status = statusLine(mesh, state, vp, fps)
			}
			term.Draw(f)
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
