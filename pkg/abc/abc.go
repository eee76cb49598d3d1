// Package abc binds an Alembic scene importer. A Context owns one native
// import session, exposes the scene node list and per-node animation
// samples, and exports mesh animation to an NVC geometry cache.
//
// The importer itself is provided by a Backend: package native binds the
// AlembicToGeomCache library and package sketch reads YAML scene sketches
// in pure Go.
package abc

import (
	"errors"
	"fmt"

	"github.com/Faultbox/vertexcache/pkg/math"
)

// Binding errors. The native layer reports failure as a bare false; these
// name which call failed.
var (
	ErrInvalidHandle  = errors.New("backend returned an invalid context handle")
	ErrClosed         = errors.New("import context is closed")
	ErrNotOpen        = errors.New("no scene is open")
	ErrOpenFailed     = errors.New("failed to open Alembic scene")
	ErrExportFailed   = errors.New("failed to export NVC cache")
	ErrNodeIndex      = errors.New("node index out of range")
	ErrNodeType       = errors.New("node type does not match sample kind")
	ErrBufferTooSmall = errors.New("sample buffer smaller than sample count")
	ErrFillFailed     = errors.New("backend failed to fill samples")
)

// NodeType is the structural kind of a scene node. It decides which
// sample kind can be read from the node.
type NodeType int32

// Node types.
const (
	NodeUnknown NodeType = iota
	NodeXform
	NodeCamera
	NodeLight
	NodeMesh
	NodePoints
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case NodeUnknown:
		return "Unknown"
	case NodeXform:
		return "Xform"
	case NodeCamera:
		return "Camera"
	case NodeLight:
		return "Light"
	case NodeMesh:
		return "Mesh"
	case NodePoints:
		return "Points"
	default:
		return fmt.Sprintf("NodeType(%d)", int32(t))
	}
}

// Valid reports whether t is a member of the enumeration.
func (t NodeType) Valid() bool {
	return t >= NodeUnknown && t <= NodePoints
}

// XformSample is one frame of a transform node.
type XformSample struct {
	Time        float32
	Visible     bool
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// CameraSample is one frame of a camera node.
type CameraSample struct {
	Time              float32
	Visible           bool
	NearClippingPlane float32
	FarClippingPlane  float32
	FieldOfView       float32
	AspectRatio       float32
	FocusDistance     float32
	FocalLength       float32
	Aperture          float32
}

// Node summarises one scene node.
type Node struct {
	Index       int
	Name        string
	Path        string
	Type        NodeType
	SampleCount int
}

// Handle identifies a backend session. Zero is never a valid handle.
type Handle uintptr

// Backend is the raw importer call surface. Methods mirror the native
// functions one to one: failures are reported as false, zero or
// NodeUnknown with no further detail. Strings returned by a Backend must
// already be owned by Go. A Backend must tolerate concurrent calls on
// distinct handles; calls on one handle are never concurrent.
type Backend interface {
	Create() Handle
	Release(h Handle)
	Open(h Handle, path string, opts *ImportOptions) bool
	ExportNVC(h Handle, path string, opts *ExportOptions) bool
	NodeCount(h Handle) int
	NodeName(h Handle, i int) string
	NodePath(h Handle, i int) string
	NodeType(h Handle, i int) NodeType
	SampleCount(h Handle, i int) int
	FillXformSamples(h Handle, i int, dst []XformSample) bool
	FillCameraSamples(h Handle, i int, dst []CameraSample) bool
}
