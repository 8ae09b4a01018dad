package geometry

import (
	"math"

	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
	"gonum.org/v1/gonum/spatial/r2"
)

// Kind tags a PanelGeometry as planar or cylindrical.
type Kind string

const (
	KindFlat   Kind = "flat"   // Planar screen and box-shaped body
	KindCurved Kind = "curved" // Cylindrical screen and extruded arc body
)

// ExtrusionProfile describes the cross-section of a curved panel body.
// Angles are in radians, measured in the horizontal plane from the forward
// axis (the direction from the cylinder axis to the centre of the screen),
// positive towards +X.
type ExtrusionProfile struct {
	// InnerRadius is the arc the screen surface lies on.
	InnerRadius float64 `json:"inner_radius"`

	// OuterRadius is InnerRadius plus the body thickness.
	OuterRadius float64 `json:"outer_radius"`

	// StartAngle and EndAngle bound both arcs.
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`

	// Depth is the extrusion length (the panel height).
	Depth float64 `json:"depth"`

	// RotationX reorients the extruded shape so its extrusion axis is vertical.
	RotationX float64 `json:"rotation_x"`
}

// Outline samples the closed annular-sector boundary: the outer arc from
// StartAngle to EndAngle followed by the inner arc back again. Points are
// relative to the cylinder axis, with Y pointing along the forward axis.
//
// Parameters:
//   - segments: number of segments per arc (minimum 1)
//
// Returns:
//   - []r2.Vec: 2*(segments+1) points; the polygon closes implicitly
func (p ExtrusionProfile) Outline(segments int) []r2.Vec {
	if segments < 1 {
		segments = 1
	}
	step := (p.EndAngle - p.StartAngle) / float64(segments)
	pts := make([]r2.Vec, 0, 2*(segments+1))
	for i := 0; i <= segments; i++ {
		pts = append(pts, polar(p.OuterRadius, p.StartAngle+float64(i)*step))
	}
	for i := segments; i >= 0; i-- {
		pts = append(pts, polar(p.InnerRadius, p.StartAngle+float64(i)*step))
	}
	return pts
}

func polar(r, theta float64) r2.Vec {
	return r2.Vec{X: r * math.Sin(theta), Y: r * math.Cos(theta)}
}

// CurvatureResult is the outcome of the curvature gate.
type CurvatureResult struct {
	// IsCurved is false when no radius was requested or the radius was rejected.
	IsCurved bool `json:"is_curved"`

	// Radius of the accepted screen arc.
	Radius float64 `json:"radius,omitempty"`

	// ArcAngle is the angular span of the screen in radians.
	ArcAngle float64 `json:"arc_angle,omitempty"`

	// Profile is the body cross-section; nil for flat panels.
	Profile *ExtrusionProfile `json:"profile,omitempty"`
}

// ScreenSurface describes the textured part of the panel.
type ScreenSurface struct {
	// Width and Height of the planar screen, or the arc length and height of
	// the cylindrical one.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Radius, ThetaStart and ThetaLength describe the open cylinder section
	// for curved panels.
	Radius      float64 `json:"radius,omitempty"`
	ThetaStart  float64 `json:"theta_start,omitempty"`
	ThetaLength float64 `json:"theta_length,omitempty"`

	// OffsetZ is the forward offset from the panel origin. For curved panels
	// this places the cylinder axis so the arc centre sits at the origin.
	OffsetZ float64 `json:"offset_z"`

	// MirrorTexture flips the label horizontally. A cylinder seen from the
	// inside shows its texture reversed.
	MirrorTexture bool `json:"mirror_texture"`
}

// BodyShape describes the housing behind the screen.
type BodyShape struct {
	// Width, Height and Depth of the slab for flat panels.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Depth  float64 `json:"depth"`

	// OffsetZ is the forward offset of the body centre (negative is behind).
	OffsetZ float64 `json:"offset_z"`

	// Profile is the extruded cross-section for curved panels.
	Profile *ExtrusionProfile `json:"profile,omitempty"`
}

// PanelGeometry is the descriptor handed to the scene collaborator.
// It is derived, never stored, and fully determined by its inputs.
type PanelGeometry struct {
	Kind          Kind                        `json:"kind"`
	Dimensions    valueobject.PanelDimensions `json:"dimensions"`
	Curvature     CurvatureResult             `json:"curvature"`
	BodyThickness float64                     `json:"body_thickness"`
	Screen        ScreenSurface               `json:"screen"`
	Body          BodyShape                   `json:"body"`

	// DistanceToBottom is half the vertical extent after the portrait flag is
	// applied; the placement policy rests the panel on it.
	DistanceToBottom float64 `json:"distance_to_bottom"`

	// RotationZ is 0 or π/2 (portrait) about the viewing axis.
	RotationZ float64 `json:"rotation_z"`
}

// IsCurved reports whether the curvature gate accepted a radius.
func (g PanelGeometry) IsCurved() bool {
	return g.Kind == KindCurved
}

// IsPortrait reports whether the assembly is turned on its side.
func (g PanelGeometry) IsPortrait() bool {
	return g.RotationZ != 0
}

// IsFinite reports whether every scalar that reaches the scene is finite.
// The deriver never checks this itself; callers recover when it is false.
//
// Returns:
//   - bool: false if any derived value is NaN or ±Inf
func (g PanelGeometry) IsFinite() bool {
	values := []float64{
		g.BodyThickness,
		g.DistanceToBottom,
		g.RotationZ,
		g.Screen.OffsetZ,
		g.Body.OffsetZ,
		g.Body.Depth,
		g.Curvature.Radius,
		g.Curvature.ArcAngle,
	}
	if p := g.Curvature.Profile; p != nil {
		values = append(values, p.InnerRadius, p.OuterRadius, p.StartAngle, p.EndAngle, p.Depth)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return g.Dimensions.IsFinite()
}
