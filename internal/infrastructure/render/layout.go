package render

import (
	"context"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/hapkiduki/desk-planner/internal/application/port"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// LayoutOptions configures the top-view drawing. Lengths are scene units.
type LayoutOptions struct {
	// Scale converts scene units to pixels.
	Scale float64

	// Padding around the drawing, in pixels.
	Padding int

	// DeskWidth and DeskDepth size the desk rectangle, centred on X = 0.
	DeskWidth float64
	DeskDepth float64

	// DeskFront is the Z of the desk edge nearest the viewer.
	DeskFront float64

	// ArcSegments samples curved footprints.
	ArcSegments int
}

// DefaultLayoutOptions returns a 1600x800 desk drawn at 0.4 px/mm.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		Scale:       0.4,
		Padding:     24,
		DeskWidth:   1600,
		DeskDepth:   800,
		DeskFront:   -250,
		ArcSegments: 24,
	}
}

// LayoutSVG draws the desk and every monitor footprint from above.
type LayoutSVG struct {
	opts LayoutOptions
}

var _ port.LayoutRenderer = (*LayoutSVG)(nil)

// NewLayoutSVG creates the renderer; zero fields take defaults.
func NewLayoutSVG(opts LayoutOptions) *LayoutSVG {
	def := DefaultLayoutOptions()
	if opts.Scale <= 0 {
		opts.Scale = def.Scale
	}
	if opts.Padding < 0 {
		opts.Padding = def.Padding
	}
	if opts.DeskWidth <= 0 {
		opts.DeskWidth = def.DeskWidth
	}
	if opts.DeskDepth <= 0 {
		opts.DeskDepth = def.DeskDepth
	}
	if opts.ArcSegments <= 0 {
		opts.ArcSegments = def.ArcSegments
	}
	return &LayoutSVG{opts: opts}
}

// RenderLayout implements port.LayoutRenderer. Far side of the desk is at
// the top of the drawing; the viewer is the dot near the bottom.
func (l *LayoutSVG) RenderLayout(ctx context.Context, w io.Writer, nodes []port.SceneNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o := l.opts
	desk := []r2.Vec{
		{X: -o.DeskWidth / 2, Y: o.DeskFront - o.DeskDepth},
		{X: o.DeskWidth / 2, Y: o.DeskFront},
	}

	footprints := make([][]r2.Vec, len(nodes))
	bounds := newBox(append(desk, r2.Vec{})...)
	for i, n := range nodes {
		if !n.Geometry.IsFinite() || !n.Transform.IsFinite() {
			return fmt.Errorf("monitor %s: non-finite geometry", n.MonitorID)
		}
		footprints[i] = geometry.Footprint(n.Transform, n.Geometry, o.ArcSegments)
		bounds.extend(footprints[i]...)
	}

	pad := float64(o.Padding)
	px := func(v r2.Vec) (int, int) {
		return int(math.Round((v.X-bounds.min.X)*o.Scale + pad)),
			int(math.Round((v.Y-bounds.min.Y)*o.Scale + pad))
	}

	width := int(math.Ceil((bounds.max.X-bounds.min.X)*o.Scale + 2*pad))
	height := int(math.Ceil((bounds.max.Y-bounds.min.Y)*o.Scale + 2*pad))

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#fafafa")

	dx, dy := px(desk[0])
	dx2, dy2 := px(desk[1])
	canvas.Rect(dx, dy, dx2-dx, dy2-dy, "fill:#e8d5b7;stroke:#8d6e63;stroke-width:1")

	vx, vy := px(r2.Vec{})
	canvas.Circle(vx, vy, 5, "fill:#333")
	canvas.Text(vx, vy+18, "viewer", "text-anchor:middle;font-size:11px;fill:#666")

	for i, n := range nodes {
		xs := make([]int, len(footprints[i]))
		ys := make([]int, len(footprints[i]))
		var centre r2.Vec
		for j, pt := range footprints[i] {
			xs[j], ys[j] = px(pt)
			centre = r2.Add(centre, pt)
		}
		centre = r2.Scale(1/float64(len(footprints[i])), centre)

		style := "fill:#37474f;stroke:#263238;stroke-width:1"
		if n.Locked {
			style += ";stroke-dasharray:4,2"
		}
		canvas.Polygon(xs, ys, style)

		cx, cy := px(centre)
		canvas.Text(cx, cy-8, n.Name, "text-anchor:middle;font-size:11px;fill:#212121")
	}

	canvas.End()
	return nil
}

// box is an axis-aligned bounding box in the top-view plane.
type box struct {
	min, max r2.Vec
}

func newBox(pts ...r2.Vec) *box {
	b := &box{
		min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	b.extend(pts...)
	return b
}

func (b *box) extend(pts ...r2.Vec) {
	for _, p := range pts {
		b.min.X = math.Min(b.min.X, p.X)
		b.min.Y = math.Min(b.min.Y, p.Y)
		b.max.X = math.Max(b.max.X, p.X)
		b.max.Y = math.Max(b.max.Y, p.Y)
	}
}
