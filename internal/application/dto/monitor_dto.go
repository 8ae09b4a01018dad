package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/application/service"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
	"github.com/hapkiduki/desk-planner/internal/domain/valueobject"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxNameLength bounds monitor names accepted over the API.
const MaxNameLength = 64

// FlexFloat is a number that may arrive as a JSON number or a string, the way
// form inputs submit it. Text that does not parse becomes NaN, which the
// geometry core clamps instead of rejecting the edit.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = math.NaN()
		}
		*f = FlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("expected a number or numeric string: %w", err)
	}
	*f = FlexFloat(v)
	return nil
}

// Float returns the value, or def when f is nil.
func (f *FlexFloat) Float(def float64) float64 {
	if f == nil {
		return def
	}
	return float64(*f)
}

// SpecRequest carries a monitor configuration. Omitted fields take the
// default configuration's values.
type SpecRequest struct {
	Size            *FlexFloat `json:"size"`
	RatioW          *FlexFloat `json:"ratio_w"`
	RatioH          *FlexFloat `json:"ratio_h"`
	CurvatureRadius *FlexFloat `json:"curvature_radius"`
	IsPortrait      *bool      `json:"is_portrait"`
}

// Bind implements render.Binder.
func (s *SpecRequest) Bind(*http.Request) error {
	return nil
}

// ToSpec builds the spec. It does not clamp; that is the deriver's job.
func (s *SpecRequest) ToSpec() valueobject.MonitorSpec {
	def := valueobject.DefaultMonitorSpec()
	if s == nil {
		return def
	}
	portrait := def.IsPortrait
	if s.IsPortrait != nil {
		portrait = *s.IsPortrait
	}
	return valueobject.NewMonitorSpec(
		s.Size.Float(def.Size),
		s.RatioW.Float(def.RatioW),
		s.RatioH.Float(def.RatioH),
		s.CurvatureRadius.Float(def.CurvatureRadius),
		portrait,
	)
}

// CreateMonitorRequest is the body of POST /monitors.
type CreateMonitorRequest struct {
	Name string       `json:"name"`
	Spec *SpecRequest `json:"spec"`
}

// Bind implements render.Binder.
func (c *CreateMonitorRequest) Bind(*http.Request) error {
	c.Name = strings.TrimSpace(c.Name)
	if len(c.Name) > MaxNameLength {
		return ValidationErrors{{
			Field:   "name",
			Message: fmt.Sprintf("must be at most %d characters", MaxNameLength),
		}}
	}
	return nil
}

// PositionRequest is a scene-space point.
type PositionRequest struct {
	X FlexFloat `json:"x"`
	Y FlexFloat `json:"y"`
	Z FlexFloat `json:"z"`
}

// CommandRequest is the body of POST /monitors/{id}/commands.
type CommandRequest struct {
	Action   string           `json:"action"`
	Spec     *SpecRequest     `json:"spec,omitempty"`
	Position *PositionRequest `json:"position,omitempty"`
	Yaw      *FlexFloat       `json:"yaw,omitempty"`
	Name     string           `json:"name,omitempty"`
}

// Bind implements render.Binder.
func (c *CommandRequest) Bind(*http.Request) error {
	var errs ValidationErrors
	c.Action = strings.TrimSpace(c.Action)
	if c.Action == "" {
		errs = append(errs, ValidationError{Field: "action", Message: "is required"})
	}
	c.Name = strings.TrimSpace(c.Name)
	if len(c.Name) > MaxNameLength {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("must be at most %d characters", MaxNameLength),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToCommand converts the request into a service command.
func (c *CommandRequest) ToCommand() service.Command {
	cmd := service.Command{
		Action: service.Action(c.Action),
		Name:   c.Name,
	}
	if c.Spec != nil {
		spec := c.Spec.ToSpec()
		cmd.Spec = &spec
	}
	if c.Position != nil {
		cmd.Position = &r3.Vec{
			X: float64(c.Position.X),
			Y: float64(c.Position.Y),
			Z: float64(c.Position.Z),
		}
	}
	if c.Yaw != nil {
		yaw := float64(*c.Yaw)
		cmd.Yaw = &yaw
	}
	return cmd
}

// PositionResponse is a scene-space point.
type PositionResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MonitorResponse is a monitor with its derived geometry.
type MonitorResponse struct {
	ID        uuid.UUID               `json:"id"`
	Name      string                  `json:"name"`
	Label     string                  `json:"label"`
	Spec      valueobject.MonitorSpec `json:"spec"`
	Position  PositionResponse        `json:"position"`
	Yaw       float64                 `json:"yaw"`
	Locked    bool                    `json:"locked"`
	Geometry  geometry.PanelGeometry  `json:"geometry"`
	Recovered bool                    `json:"recovered,omitempty"`
	Version   int                     `json:"version"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// NewMonitorResponse maps a service view to its response.
//
// Parameters:
//   - view: the monitor and its geometry
//
// Returns:
//   - MonitorResponse: the response body
func NewMonitorResponse(view *service.MonitorView) MonitorResponse {
	m := view.Monitor
	return MonitorResponse{
		ID:    m.ID,
		Name:  m.Name,
		Label: m.Spec.String(),
		Spec:  m.Spec,
		Position: PositionResponse{
			X: m.Transform.Position.X,
			Y: m.Transform.Position.Y,
			Z: m.Transform.Position.Z,
		},
		Yaw:       m.Transform.Yaw,
		Locked:    m.Locked,
		Geometry:  view.Geometry,
		Recovered: view.Recovered,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// NewMonitorResponses maps a list of views.
func NewMonitorResponses(views []*service.MonitorView) []MonitorResponse {
	out := make([]MonitorResponse, len(views))
	for i, v := range views {
		out[i] = NewMonitorResponse(v)
	}
	return out
}

// GeometryResponse is the body of POST /geometry/derive.
type GeometryResponse struct {
	// Spec is the clamped spec the geometry was derived from
	Spec     valueobject.MonitorSpec `json:"spec"`
	Label    string                  `json:"label"`
	Geometry geometry.PanelGeometry  `json:"geometry"`

	// Recovered is true when the requested spec could not be modelled and
	// the default spec was derived instead
	Recovered bool `json:"recovered,omitempty"`
}

// NewGeometryResponse maps a preview to its response.
func NewGeometryResponse(p service.Preview) GeometryResponse {
	return GeometryResponse{
		Spec:      p.Spec,
		Label:     p.Spec.String(),
		Geometry:  p.Geometry,
		Recovered: p.Recovered,
	}
}
