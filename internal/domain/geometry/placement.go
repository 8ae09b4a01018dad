package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is the placement of a monitor assembly in the scene.
// The scene is Y-up; the viewer sits at the origin looking down -Z.
type Transform struct {
	// Position of the panel origin (the centre of the screen).
	Position r3.Vec `json:"position"`

	// Yaw is the rotation about the vertical axis, in radians.
	Yaw float64 `json:"yaw"`
}

// IsFinite reports whether the transform can be handed to the scene.
func (t Transform) IsFinite() bool {
	return finite(t.Position.X) && finite(t.Position.Y) && finite(t.Position.Z) && finite(t.Yaw)
}

// ToWorld maps a point in panel-local coordinates into the scene.
func (t Transform) ToWorld(local r3.Vec) r3.Vec {
	rot := r3.NewRotation(t.Yaw, r3.Vec{Y: 1})
	return r3.Add(rot.Rotate(local), t.Position)
}

// PlacementPolicy rests panels above the desk surface and chooses where new
// panels appear. All lengths are in scene units.
type PlacementPolicy struct {
	// DeskTop is the height of the desk surface.
	DeskTop float64

	// StandClearance is the gap between the desk and the lower panel edge.
	StandClearance float64

	// SpawnDistance is how far in front of the viewer new panels appear.
	SpawnDistance float64

	// SpawnSpacing is the sideways step between consecutive spawns.
	SpawnSpacing float64
}

// DefaultPlacementPolicy returns a 750 mm desk with panels 700 mm away.
//
// Returns:
//   - PlacementPolicy: default placement policy
func DefaultPlacementPolicy() PlacementPolicy {
	return PlacementPolicy{
		DeskTop:        750,
		StandClearance: 100,
		SpawnDistance:  700,
		SpawnSpacing:   650,
	}
}

// Rest keeps the horizontal placement of t and lifts the panel so its lower
// edge sits StandClearance above the desk.
//
// Parameters:
//   - t: current transform
//   - g: derived geometry of the panel
//
// Returns:
//   - Transform: the rested transform
func (p PlacementPolicy) Rest(t Transform, g PanelGeometry) Transform {
	t.Position.Y = p.DeskTop + p.StandClearance + g.DistanceToBottom
	return t
}

// Spawn returns the default transform for the index-th monitor. Spawns fan
// out sideways from the centre: 0, +1, -1, +2, -2, ... steps.
//
// Parameters:
//   - index: zero-based spawn index
//   - g: derived geometry of the panel
//
// Returns:
//   - Transform: the spawn transform
func (p PlacementPolicy) Spawn(index int, g PanelGeometry) Transform {
	if index < 0 {
		index = 0
	}
	step := float64((index + 1) / 2)
	if index%2 == 0 {
		step = -step
	}
	t := Transform{
		Position: r3.Vec{X: step * p.SpawnSpacing, Z: -p.SpawnDistance},
	}
	return p.Rest(t, g)
}

// Footprint returns the top-view outline of the panel assembly in scene
// coordinates, as (X, Z) pairs.
//
// Parameters:
//   - t: placement of the panel
//   - g: derived geometry of the panel
//   - segments: arc sampling for curved panels
//
// Returns:
//   - []r2.Vec: closed polygon, first point not repeated
func Footprint(t Transform, g PanelGeometry, segments int) []r2.Vec {
	var local []r2.Vec
	switch {
	case g.IsCurved() && !g.IsPortrait():
		r := g.Curvature.Radius
		for _, pt := range g.Curvature.Profile.Outline(segments) {
			local = append(local, r2.Vec{X: pt.X, Y: r - pt.Y})
		}
	case g.IsCurved():
		// Turned on its side the arc is vertical; from above only its depth
		// shows.
		half := g.Curvature.ArcAngle / 2
		sagitta := g.Curvature.Radius * (1 - math.Cos(half))
		local = rect(g.Dimensions.Height, -g.BodyThickness, sagitta)
	default:
		dims := g.Dimensions
		if g.IsPortrait() {
			dims = dims.Swapped()
		}
		back := g.Body.OffsetZ - g.Body.Depth/2
		local = rect(dims.Width, back, 0)
	}

	out := make([]r2.Vec, len(local))
	for i, pt := range local {
		w := t.ToWorld(r3.Vec{X: pt.X, Z: pt.Y})
		out[i] = r2.Vec{X: w.X, Y: w.Z}
	}
	return out
}

func rect(width, back, front float64) []r2.Vec {
	half := width / 2
	return []r2.Vec{
		{X: -half, Y: back},
		{X: half, Y: back},
		{X: half, Y: front},
		{X: -half, Y: front},
	}
}
