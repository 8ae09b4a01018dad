// Package port contains the port interfaces (driven ports) for the application layer.
// Ports define the interfaces that the application layer requires from external
// collaborators: the 3D scene, texture generation and logging.
//
// In Hexagonal Architecture (ports & adapters):
//   - Ports are interfaces that define what the application needs.
//   - Adapters are implementations of these interfaces
//   - this enables loose coupling and easy testing/swapping of implementations.
package port

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/hapkiduki/desk-planner/internal/domain/geometry"
)

// Logger defines the interface for structured logging.
//
// Example usage:
//
//	logger.Info("Monitor added", "monitor_id", id, "spec", spec.String())
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// With return a logger with additional context fields.
	With(keysAndValues ...any) Logger

	// WithContext return a logger with context information (e.g., request ID).
	WithContext(ctx context.Context) Logger
}

// SceneNode is everything the scene needs to (re)build one monitor mesh.
type SceneNode struct {
	MonitorID uuid.UUID
	Name      string
	Label     string
	Locked    bool
	Geometry  geometry.PanelGeometry
	Transform geometry.Transform
}

// SceneRenderer is the 3D scene collaborator fed by the geometry core.
// Implementations build meshes from the descriptor; they never derive
// geometry themselves.
type SceneRenderer interface {
	// Apply creates or replaces the node for node.MonitorID.
	Apply(ctx context.Context, node SceneNode) error

	// Remove drops the node for the monitor, if present.
	Remove(ctx context.Context, monitorID uuid.UUID) error

	// Snapshot returns every node currently in the scene.
	Snapshot(ctx context.Context) ([]SceneNode, error)
}

// LabelRenderer produces the texture shown on a monitor's screen.
type LabelRenderer interface {
	// RenderLabel writes an encoded image for the node to w.
	RenderLabel(ctx context.Context, w io.Writer, node SceneNode) error
}

// LayoutRenderer draws the whole desk arrangement from above.
type LayoutRenderer interface {
	// RenderLayout writes an encoded drawing of the nodes to w.
	RenderLayout(ctx context.Context, w io.Writer, nodes []SceneNode) error
}
