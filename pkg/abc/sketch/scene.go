// Package sketch is a pure-Go scene backend. It reads scene sketches,
// small YAML descriptions of a node hierarchy with transform, camera,
// mesh and point samples, and serves them through the same call surface
// as the native importer. Sketches let the binding and the cache export
// path run where the native library is not installed.
package sketch

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/vertexcache/pkg/abc"
)

// Extension is the file suffix of scene sketches.
const Extension = ".abc.yaml"

// Sketch errors.
var (
	ErrNoNodes       = errors.New("scene has no nodes")
	ErrDuplicateNode = errors.New("duplicate node name")
	ErrUnknownParent = errors.New("unknown parent node")
	ErrParentCycle   = errors.New("node hierarchy has a cycle")
	ErrNodeKind      = errors.New("unknown node type")
	ErrMeshSample    = errors.New("invalid mesh sample")
	ErrNoGeometry    = errors.New("scene has no exportable geometry")
)

// Scene is a parsed scene sketch.
type Scene struct {
	Name  string       `yaml:"name"`
	Nodes []NodeSketch `yaml:"nodes"`
}

// NodeSketch is one node of a sketch. Only the samples matching Type are
// read.
type NodeSketch struct {
	Name   string      `yaml:"name"`
	Parent string      `yaml:"parent,omitempty"`
	Type   string      `yaml:"type"`
	Xform  []XformKey  `yaml:"xform,omitempty"`
	Camera []CameraKey `yaml:"camera,omitempty"`
	Mesh   []MeshKey   `yaml:"mesh,omitempty"`
}

// XformKey is one transform sample. Rotation is x, y, z, w and defaults
// to identity; Scale defaults to one.
type XformKey struct {
	Time        float32     `yaml:"time"`
	Hidden      bool        `yaml:"hidden,omitempty"`
	Translation [3]float32  `yaml:"translation"`
	Rotation    *[4]float32 `yaml:"rotation,omitempty"`
	Scale       *[3]float32 `yaml:"scale,omitempty"`
}

// CameraKey is one camera sample.
type CameraKey struct {
	Time          float32 `yaml:"time"`
	Hidden        bool    `yaml:"hidden,omitempty"`
	Near          float32 `yaml:"near"`
	Far           float32 `yaml:"far"`
	FieldOfView   float32 `yaml:"fov"`
	AspectRatio   float32 `yaml:"aspect"`
	FocusDistance float32 `yaml:"focus_distance"`
	FocalLength   float32 `yaml:"focal_length"`
	Aperture      float32 `yaml:"aperture"`
}

// MeshKey is one mesh or point cloud sample. Faces index Points; a face
// of one vertex is a point, two a line, three a triangle and four a quad.
// Larger faces are fanned into triangles. Normals and UV0 are optional
// and must match Points in length when present.
type MeshKey struct {
	Time    float32      `yaml:"time"`
	Points  [][3]float32 `yaml:"points"`
	Normals [][3]float32 `yaml:"normals,omitempty"`
	UV0     [][2]float32 `yaml:"uv0,omitempty"`
	Faces   [][]int32    `yaml:"faces,omitempty"`
}

// Load reads and validates the sketch at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sketch: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a sketch.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing sketch: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks node names, the hierarchy and every mesh sample.
func (s *Scene) Validate() error {
	if len(s.Nodes) == 0 {
		return ErrNoNodes
	}

	seen := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Name == "" || strings.Contains(n.Name, "/") {
			return fmt.Errorf("bad node name %q", n.Name)
		}
		if seen[n.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
		}
		seen[n.Name] = true
	}

	for _, n := range s.Nodes {
		if _, err := ParseNodeType(n.Type); err != nil {
			return fmt.Errorf("node %s: %w", n.Name, err)
		}
		if n.Parent != "" && !seen[n.Parent] {
			return fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, n.Parent, n.Name)
		}
		for i, key := range n.Mesh {
			if err := key.validate(); err != nil {
				return fmt.Errorf("node %s sample %d: %w", n.Name, i, err)
			}
		}
	}

	_, err := s.Paths()
	return err
}

func (k MeshKey) validate() error {
	n := len(k.Points)
	if len(k.Normals) != 0 && len(k.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d points", ErrMeshSample, len(k.Normals), n)
	}
	if len(k.UV0) != 0 && len(k.UV0) != n {
		return fmt.Errorf("%w: %d uvs for %d points", ErrMeshSample, len(k.UV0), n)
	}
	for i, face := range k.Faces {
		if len(face) == 0 {
			return fmt.Errorf("%w: face %d is empty", ErrMeshSample, i)
		}
		for _, idx := range face {
			if idx < 0 || int(idx) >= n {
				return fmt.Errorf("%w: face %d index %d outside %d points", ErrMeshSample, i, idx, n)
			}
		}
	}
	return nil
}

// Paths returns the full hierarchy path of every node, in node order.
func (s *Scene) Paths() ([]string, error) {
	parent := make(map[string]string, len(s.Nodes))
	for _, n := range s.Nodes {
		parent[n.Name] = n.Parent
	}

	paths := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		var parts []string
		for name := n.Name; name != ""; name = parent[name] {
			if len(parts) > len(s.Nodes) {
				return nil, fmt.Errorf("%w at %s", ErrParentCycle, n.Name)
			}
			parts = append(parts, name)
		}
		slices.Reverse(parts)
		paths[i] = "/" + strings.Join(parts, "/")
	}
	return paths, nil
}

// ParseNodeType parses a node type name case-insensitively.
func ParseNodeType(s string) (abc.NodeType, error) {
	for t := abc.NodeXform; t <= abc.NodePoints; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return abc.NodeUnknown, fmt.Errorf("%w %q", ErrNodeKind, s)
}
