// Package valueobject contains value objects that represent concepts without identity.
// Value objects are immutable and compared by their attributes rather than identity.
//
// Value Objects follow these principles:
//   - Immutability: Once created, they cannot be changed.
//   - Equality: Two value objects are equal if all their attributes are equal.
//   - Side-effect free: Methods return new instances rather than modifying state
package valueobject

import (
	"fmt"
	"strconv"
)

// Nominal defaults for a freshly added monitor.
const (
	DefaultSize   = 27.0 // inches
	DefaultRatioW = 16.0
	DefaultRatioH = 9.0
)

// MonitorSpec is one revision of the user-editable monitor configuration.
// Every edit produces a new MonitorSpec; the panel geometry is re-derived
// from it rather than patched in place.
//
// Example usage:
//
//	spec := valueobject.DefaultMonitorSpec().WithSize(34).WithRatio(21, 9).WithCurvature(1500)
type MonitorSpec struct {
	// Size is the nominal diagonal in inches.
	Size float64 `json:"size"`

	// RatioW is the width part of the aspect ratio.
	RatioW float64 `json:"ratio_w"`

	// RatioH is the height part of the aspect ratio.
	RatioH float64 `json:"ratio_h"`

	// CurvatureRadius is the radius of the screen arc; 0 means flat.
	CurvatureRadius float64 `json:"curvature_radius"`

	// IsPortrait turns the panel 90° about the viewing axis.
	IsPortrait bool `json:"is_portrait"`
}

// NewMonitorSpec creates a new MonitorSpec value object.
// Values are stored as given; clamping happens during geometry derivation.
//
// Parameters:
//   - size: Nominal diagonal in inches
//   - ratioW: Aspect ratio width part
//   - ratioH: Aspect ratio height part
//   - curvatureRadius: Screen arc radius (0 for flat)
//   - portrait: Whether the panel stands upright
//
// Returns:
//   - MonitorSpec: the created MonitorSpec
func NewMonitorSpec(size, ratioW, ratioH, curvatureRadius float64, portrait bool) MonitorSpec {
	return MonitorSpec{
		Size:            size,
		RatioW:          ratioW,
		RatioH:          ratioH,
		CurvatureRadius: curvatureRadius,
		IsPortrait:      portrait,
	}
}

// DefaultMonitorSpec returns a flat 27" 16:9 landscape monitor.
//
// Returns:
//   - MonitorSpec: the default MonitorSpec
func DefaultMonitorSpec() MonitorSpec {
	return NewMonitorSpec(DefaultSize, DefaultRatioW, DefaultRatioH, 0, false)
}

// WithSize returns a copy with a new diagonal size.
func (s MonitorSpec) WithSize(size float64) MonitorSpec {
	s.Size = size
	return s
}

// WithRatio returns a copy with a new aspect ratio.
func (s MonitorSpec) WithRatio(ratioW, ratioH float64) MonitorSpec {
	s.RatioW = ratioW
	s.RatioH = ratioH
	return s
}

// WithCurvature returns a copy with a new curvature radius.
func (s MonitorSpec) WithCurvature(radius float64) MonitorSpec {
	s.CurvatureRadius = radius
	return s
}

// WithPortrait returns a copy with the portrait flag set.
func (s MonitorSpec) WithPortrait(portrait bool) MonitorSpec {
	s.IsPortrait = portrait
	return s
}

// Equals checks if two specs describe the same monitor configuration.
//
// Parameters:
//   - other: the MonitorSpec to compare
//
// Returns:
//   - bool: true if all fields are equal
func (s MonitorSpec) Equals(other MonitorSpec) bool {
	return s == other
}

// RatioLabel returns the aspect ratio formatted for display (e.g., "16:9").
func (s MonitorSpec) RatioLabel() string {
	return formatNumber(s.RatioW) + ":" + formatNumber(s.RatioH)
}

// String returns a formatted string representation of the spec.
//
// Returns:
//   - string: Formatted string (e.g., `27" 16:9 R1500`)
func (s MonitorSpec) String() string {
	out := fmt.Sprintf("%s\" %s", formatNumber(s.Size), s.RatioLabel())
	if s.CurvatureRadius > 0 {
		out += " R" + formatNumber(s.CurvatureRadius)
	}
	if s.IsPortrait {
		out += " portrait"
	}
	return out
}

// formatNumber drops trailing zeros so 27 prints as "27" and 23.8 as "23.8".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
