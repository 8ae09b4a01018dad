// Package valueobject contains value objects that represent concepts without identity.
package valueobject

import (
	"fmt"
	"math"
)

// PanelDimensions represents the physical size of a monitor panel.
// All measurements are in the deriver's length unit (millimetres by default).
type PanelDimensions struct {
	// Width of the visible panel.
	Width float64 `json:"width"`

	// Height of the visible panel.
	Height float64 `json:"height"`

	// Diagonal is the converted corner-to-corner length the panel was derived from.
	Diagonal float64 `json:"diagonal"`
}

// NewPanelDimensions creates a new PanelDimensions value object.
//
// Parameters:
//   - width: Panel width
//   - height: Panel height
//   - diagonal: Converted diagonal length
//
// Returns:
//   - PanelDimensions: new PanelDimensions value object
func NewPanelDimensions(width, height, diagonal float64) PanelDimensions {
	return PanelDimensions{
		Width:    width,
		Height:   height,
		Diagonal: diagonal,
	}
}

// Aspect returns the width-to-height proportion of the panel.
//
// Returns:
//   - float64: width / height
func (d PanelDimensions) Aspect() float64 {
	return d.Width / d.Height
}

// Swapped returns the dimensions as seen when the panel is turned on its side.
//
// Returns:
//   - PanelDimensions: dimensions with width and height exchanged
func (d PanelDimensions) Swapped() PanelDimensions {
	return PanelDimensions{
		Width:    d.Height,
		Height:   d.Width,
		Diagonal: d.Diagonal,
	}
}

// IsFinite reports whether every measurement is a finite number.
//
// Returns:
//   - bool: false if any field is NaN or ±Inf
func (d PanelDimensions) IsFinite() bool {
	return isFinite(d.Width) && isFinite(d.Height) && isFinite(d.Diagonal)
}

// String returns a formatted string representation.
//
// Returns:
//   - string: formatted dimensions (e.g., "597.7x336.2 mm")
func (d PanelDimensions) String() string {
	return fmt.Sprintf("%.1fx%.1f mm", d.Width, d.Height)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
