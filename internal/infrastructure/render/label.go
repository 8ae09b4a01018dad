// Package render contains the image adapters of the application: the label
// texture painted on each screen and the top-view drawing of the desk.
package render

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/hapkiduki/desk-planner/internal/application/port"
	"golang.org/x/image/font/gofont/goregular"
)

// Label texture limits, in pixels.
const (
	minLabelSide = 64
	maxLabelSide = 4096
)

// LabelOptions configures the label texture.
type LabelOptions struct {
	// Width of the texture in pixels; the height follows the panel aspect.
	Width int

	// FontSize of the monitor name in points. Secondary lines use 45% of it.
	FontSize float64
}

// DefaultLabelOptions returns a 1024 px wide texture with a 72 pt title.
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{Width: 1024, FontSize: 72}
}

// LabelRenderer paints monitor labels with the gg software rasterizer.
type LabelRenderer struct {
	opts   LabelOptions
	source *text.FontSource
}

var _ port.LabelRenderer = (*LabelRenderer)(nil)

// NewLabelRenderer parses the embedded Go Regular font once.
//
// Parameters:
//   - opts: texture options; zero fields take defaults
//
// Returns:
//   - *LabelRenderer: the renderer
//   - error: if the embedded font cannot be parsed
func NewLabelRenderer(opts LabelOptions) (*LabelRenderer, error) {
	def := DefaultLabelOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}

	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	return &LabelRenderer{opts: opts, source: source}, nil
}

// LabelSize returns the texture size for a panel of the given aspect.
func (r *LabelRenderer) LabelSize(aspect float64) (int, int) {
	w := clampSide(r.opts.Width)
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		return w, w
	}
	return w, clampSide(int(math.Round(float64(w) / aspect)))
}

// RenderLabel implements port.LabelRenderer. The texture is drawn in panel
// space; mirroring for curved screens is left to the scene, which reads
// Geometry.Screen.MirrorTexture.
func (r *LabelRenderer) RenderLabel(ctx context.Context, w io.Writer, node port.SceneNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g := node.Geometry
	width, height := r.LabelSize(g.Dimensions.Aspect())
	fw, fh := float64(width), float64(height)

	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(gg.Hex("#1e1e2e"))

	accent := "#89b4fa"
	if node.Locked {
		accent = "#f38ba8"
	}
	border := math.Max(4, fw/128)
	dc.SetHexColor(accent)
	dc.SetLineWidth(border)
	dc.DrawRoundedRectangle(border/2, border/2, fw-border, fh-border, border*3)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke label border: %w", err)
	}

	title := math.Min(r.opts.FontSize, fh/4)
	dc.SetHexColor("#cdd6f4")
	dc.SetFont(r.source.Face(title))
	dc.DrawStringAnchored(node.Name, fw/2, fh*0.38, 0.5, 0.5)

	dc.SetHexColor("#a6adc8")
	dc.SetFont(r.source.Face(title * 0.45))
	dc.DrawStringAnchored(node.Label, fw/2, fh*0.58, 0.5, 0.5)
	dc.DrawStringAnchored(g.Dimensions.String(), fw/2, fh*0.70, 0.5, 0.5)

	if err := r.drawProfile(dc, node, fw, fh); err != nil {
		return err
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode label: %w", err)
	}
	return nil
}

// drawProfile sketches the panel cross-section in the lower right corner:
// a straight bar for flat panels, an arc of the true angle for curved ones.
func (r *LabelRenderer) drawProfile(dc *gg.Context, node port.SceneNode, fw, fh float64) error {
	g := node.Geometry
	size := math.Min(fw, fh) / 6
	cx, cy := fw-size*1.2, fh-size*0.9

	dc.SetHexColor("#94e2d5")
	dc.SetLineWidth(math.Max(2, size/12))

	if !g.IsCurved() {
		dc.DrawLine(cx-size/2, cy, cx+size/2, cy)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("stroke profile: %w", err)
		}
		return nil
	}

	// Scale the arc so its chord spans the icon; the centre sits above it,
	// so the arc bows towards the viewer at the bottom of the label.
	half := g.Curvature.ArcAngle / 2
	radius := size / 2 / math.Max(math.Sin(half), 1e-3)
	oy := cy - radius*math.Cos(half)
	start := math.Pi/2 - half
	end := math.Pi/2 + half

	dc.MoveTo(cx+radius*math.Cos(start), oy+radius*math.Sin(start))
	dc.DrawArc(cx, oy, radius, start, end)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke profile: %w", err)
	}
	return nil
}

func clampSide(v int) int {
	return max(minLabelSide, min(maxLabelSide, v))
}
