package render

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultTileSize is the edge length of a screen tile in pixels.
const DefaultTileSize = 64

// tileGrid divides the framebuffer into TileSize squares. Edge tiles are
// smaller when the viewport is not evenly divisible. Tiles are row-major:
// index = ty*tilesX + tx.
type tileGrid struct {
	size           int
	tilesX, tilesY int
	width, height  int
}

func newTileGrid(width, height, size int) tileGrid {
	if size <= 0 {
		size = DefaultTileSize
	}
	return tileGrid{
		size:   size,
		tilesX: (width + size - 1) / size,
		tilesY: (height + size - 1) / size,
		width:  width,
		height: height,
	}
}

func (g tileGrid) count() int {
	return g.tilesX * g.tilesY
}

func (g tileGrid) rect(i int) rect {
	tx, ty := i%g.tilesX, i/g.tilesX
	return rect{
		x0: tx * g.size,
		y0: ty * g.size,
		x1: min((tx+1)*g.size, g.width),
		y1: min((ty+1)*g.size, g.height),
	}
}

// bin lists, per tile, the setups whose bounds touch it, in submission
// order.
func (g tileGrid) bin(setups []*triSetup) [][]*triSetup {
	bins := make([][]*triSetup, g.count())
	for _, s := range setups {
		tx0, tx1 := s.minX/g.size, s.maxX/g.size
		ty0, ty1 := s.minY/g.size, s.maxY/g.size
		for ty := ty0; ty <= ty1; ty++ {
			for tx := tx0; tx <= tx1; tx++ {
				i := ty*g.tilesX + tx
				bins[i] = append(bins[i], s)
			}
		}
	}
	return bins
}

// workers returns the configured worker count or GOMAXPROCS.
func (v *Viewport) workers() int {
	if v.Workers > 0 {
		return v.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// rasterizeTiles draws setups into the framebuffer. Each tile is owned by
// exactly one goroutine and processes its triangles in submission order,
// so the output matches a sequential render.
func (v *Viewport) rasterizeTiles(ctx context.Context, setups []*triSetup) (int, error) {
	grid := newTileGrid(v.Width, v.Height, v.TileSize)
	bins := grid.bin(setups)

	var work []int
	for i, b := range bins {
		if len(b) > 0 {
			work = append(work, i)
		}
	}

	workers := v.workers()
	if workers == 1 {
		for _, i := range work {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			v.rasterizeTile(grid.rect(i), bins[i])
		}
		return len(work), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, i := range work {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v.rasterizeTile(grid.rect(i), bins[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	// gctx is always cancelled once Wait returns; only the caller's
	// context says whether the frame was interrupted.
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(work), nil
}

func (v *Viewport) rasterizeTile(r rect, setups []*triSetup) {
	fb := v.fb
	for _, s := range setups {
		s.rasterize(r, v.Strategy, func(x, y int, p payload) {
			idx := y*fb.Width + x
			if p.invZ < fb.Depth[idx] {
				return
			}
			f := p.fragment()
			fb.Depth[idx] = p.invZ
			fb.World[idx] = f.world
			fb.Normal[idx] = surfaceNormal(f, s.material, s.faceNormal)
			fb.Pixels[idx] = shade(f, s.material, s.tex, s.faceNormal, v.Lights)
		})
	}
}
