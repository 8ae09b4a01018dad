// Package geometry derives physical panel geometry from a monitor's nominal
// size, aspect ratio and curvature, and places the result above the desk.
//
// Everything in this package is a pure function of its inputs: no I/O, no
// shared state, safe to call from any goroutine. Malformed input is clamped
// to a sane default instead of being rejected, because the UI re-derives on
// every keystroke and an in-progress edit must never break the scene.
package geometry

import (
	"math"

	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
)

// Input clamping.
const (
	DefaultDiagonal = valueobject.DefaultSize
	DefaultRatioW   = valueobject.DefaultRatioW
	DefaultRatioH   = valueobject.DefaultRatioH

	// MinDiagonal is the smallest accepted diagonal, in input units.
	MinDiagonal = 1.0

	// MinRatio is the smallest accepted aspect ratio component.
	MinRatio = 0.1
)

// Unit conversion and body shape.
const (
	// MillimetresPerInch converts nominal inch sizes to scene millimetres.
	MillimetresPerInch = 25.4

	// DefaultBodyThickness is the depth of the housing behind the screen.
	DefaultBodyThickness = 15.0

	// DefaultScreenGap separates a flat screen from the front of its body.
	DefaultScreenGap = 1.0
)

// Curvature feasibility.
//
// A curved screen is only built when its width, wrapped onto the cylinder,
// covers strictly less than MaxWrapFraction of the circumference and the
// radius lies in (0, MaxCurvatureRadius). Both limits are empirical.
const (
	MaxCurvatureRadius = 10000.0
	MaxWrapFraction    = 0.95
)

// Options configures a Deriver. Zero or invalid fields fall back to defaults.
type Options struct {
	// UnitScale multiplies the nominal diagonal into scene length units.
	UnitScale float64

	// BodyThickness is the housing depth.
	BodyThickness float64

	// ScreenGap is the distance between a flat screen and its body.
	ScreenGap float64
}

// DefaultOptions returns inch-to-millimetre conversion with the default body.
//
// Returns:
//   - Options: default deriver options
func DefaultOptions() Options {
	return Options{
		UnitScale:     MillimetresPerInch,
		BodyThickness: DefaultBodyThickness,
		ScreenGap:     DefaultScreenGap,
	}
}

// Deriver turns monitor specs into panel geometry descriptors.
type Deriver struct {
	opts Options
}

// NewDeriver creates a Deriver. Non-finite or non-positive options are
// replaced by their defaults (ScreenGap may be zero).
//
// Parameters:
//   - opts: deriver options
//
// Returns:
//   - *Deriver: configured deriver
func NewDeriver(opts Options) *Deriver {
	def := DefaultOptions()
	if !positive(opts.UnitScale) {
		opts.UnitScale = def.UnitScale
	}
	if !positive(opts.BodyThickness) {
		opts.BodyThickness = def.BodyThickness
	}
	if !finite(opts.ScreenGap) || opts.ScreenGap < 0 {
		opts.ScreenGap = def.ScreenGap
	}
	return &Deriver{opts: opts}
}

var defaultDeriver = NewDeriver(DefaultOptions())

// DerivePanel derives landscape geometry with the default options.
func DerivePanel(diagonal, ratioW, ratioH, curvatureRadius float64) PanelGeometry {
	return defaultDeriver.DerivePanel(diagonal, ratioW, ratioH, curvatureRadius)
}

// Options returns the effective options.
func (d *Deriver) Options() Options {
	return d.opts
}

// Derive derives the geometry for a full monitor spec, portrait flag included.
//
// Parameters:
//   - spec: the monitor spec revision
//
// Returns:
//   - PanelGeometry: the derived descriptor
func (d *Deriver) Derive(spec valueobject.MonitorSpec) PanelGeometry {
	return d.derive(spec.Size, spec.RatioW, spec.RatioH, spec.CurvatureRadius, spec.IsPortrait)
}

// DerivePanel derives landscape geometry from raw inputs.
//
// Parameters:
//   - diagonal: nominal diagonal in input units (clamped)
//   - ratioW, ratioH: aspect ratio components (clamped)
//   - curvatureRadius: screen arc radius in scene units; 0 or infeasible means flat
//
// Returns:
//   - PanelGeometry: the derived descriptor
func (d *Deriver) DerivePanel(diagonal, ratioW, ratioH, curvatureRadius float64) PanelGeometry {
	return d.derive(diagonal, ratioW, ratioH, curvatureRadius, false)
}

func (d *Deriver) derive(diagonal, ratioW, ratioH, radius float64, portrait bool) PanelGeometry {
	diagonal = ClampDiagonal(diagonal)
	ratioW = ClampRatio(ratioW, DefaultRatioW)
	ratioH = ClampRatio(ratioH, DefaultRatioH)

	dims := Dimensions(diagonal*d.opts.UnitScale, ratioW, ratioH)
	thickness := d.opts.BodyThickness

	g := PanelGeometry{
		Dimensions:    dims,
		BodyThickness: thickness,
	}

	if CurvatureAccepted(dims.Width, radius) {
		arc := dims.Width / radius
		profile := &ExtrusionProfile{
			InnerRadius: radius,
			OuterRadius: radius + thickness,
			StartAngle:  -arc / 2,
			EndAngle:    arc / 2,
			Depth:       dims.Height,
			RotationX:   -math.Pi / 2,
		}
		g.Kind = KindCurved
		g.Curvature = CurvatureResult{
			IsCurved: true,
			Radius:   radius,
			ArcAngle: arc,
			Profile:  profile,
		}
		g.Screen = ScreenSurface{
			Width:         dims.Width,
			Height:        dims.Height,
			Radius:        radius,
			ThetaStart:    -arc / 2,
			ThetaLength:   arc,
			OffsetZ:       radius,
			MirrorTexture: true,
		}
		g.Body = BodyShape{
			Depth:   thickness,
			OffsetZ: radius,
			Profile: profile,
		}
	} else {
		g.Kind = KindFlat
		g.Screen = ScreenSurface{
			Width:  dims.Width,
			Height: dims.Height,
		}
		g.Body = BodyShape{
			Width:   dims.Width,
			Height:  dims.Height,
			Depth:   thickness,
			OffsetZ: -(thickness/2 + d.opts.ScreenGap),
		}
	}

	if portrait {
		g.DistanceToBottom = dims.Width / 2
		g.RotationZ = math.Pi / 2
	} else {
		g.DistanceToBottom = dims.Height / 2
	}
	return g
}

// Dimensions solves the panel rectangle from its diagonal and aspect ratio.
//
// For a rectangle with diagonal D and ratio r = w/h:
//
//	w² + h² = D², w = r·h  ⇒  h = sqrt(D² / (r² + 1))
//
// Parameters:
//   - diagonal: diagonal already converted to scene units
//   - ratioW, ratioH: aspect ratio components (not clamped here)
//
// Returns:
//   - valueobject.PanelDimensions: width, height and diagonal
func Dimensions(diagonal, ratioW, ratioH float64) valueobject.PanelDimensions {
	ratio := ratioW / ratioH
	height := math.Sqrt(diagonal * diagonal / (ratio*ratio + 1))
	width := height * ratio
	return valueobject.NewPanelDimensions(width, height, diagonal)
}

// CurvatureAccepted is the curvature gate. Both inequalities are strict and
// NaN fails every comparison, so a NaN radius is always rejected.
//
// Parameters:
//   - width: physical panel width in scene units
//   - radius: requested arc radius in scene units
//
// Returns:
//   - bool: true if a cylindrical screen should be built
func CurvatureAccepted(width, radius float64) bool {
	if !(radius > 0 && radius < MaxCurvatureRadius) {
		return false
	}
	return width < MaxWrapFraction*2*math.Pi*radius
}

// ClampDiagonal returns DefaultDiagonal for non-finite or non-positive input,
// otherwise the value floored at MinDiagonal.
func ClampDiagonal(v float64) float64 {
	if !positive(v) {
		return DefaultDiagonal
	}
	return math.Max(v, MinDiagonal)
}

// ClampRatio returns def for non-finite or non-positive input, otherwise the
// value floored at MinRatio.
func ClampRatio(v, def float64) float64 {
	if !positive(v) {
		return def
	}
	return math.Max(v, MinRatio)
}

// Sanitize returns the spec with every field the deriver would clamp already
// clamped, and an invalid radius replaced by 0. The result is safe to encode
// as JSON and derives the same geometry as the input.
//
// Parameters:
//   - spec: a possibly malformed spec
//
// Returns:
//   - valueobject.MonitorSpec: the clamped spec
func Sanitize(spec valueobject.MonitorSpec) valueobject.MonitorSpec {
	radius := spec.CurvatureRadius
	if !positive(radius) {
		radius = 0
	}
	return valueobject.NewMonitorSpec(
		ClampDiagonal(spec.Size),
		ClampRatio(spec.RatioW, DefaultRatioW),
		ClampRatio(spec.RatioH, DefaultRatioH),
		radius,
		spec.IsPortrait,
	)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
