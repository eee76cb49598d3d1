// Package nvc implements the NVC geometry cache: per-frame mesh data
// gathered from a scene, compressed into a seekable container and decoded
// back for playback.
package nvc

import (
	"errors"
	"fmt"
	"strings"
)

// Cache format errors.
var (
	ErrInvalidMagic       = errors.New("invalid NVC magic: expected 'NVC1'")
	ErrUnsupportedVersion = errors.New("unsupported NVC version")
	ErrTruncated          = errors.New("truncated NVC data")
	ErrUnknownCompression = errors.New("unknown compression type")
	ErrInvalidDescriptor  = errors.New("invalid attribute descriptor")
	ErrAttributeSize      = errors.New("attribute size does not match vertex count")
	ErrFrameIndex         = errors.New("frame index out of range")
	ErrMissingPoints      = errors.New("quantisation requires a points attribute")
)

// Attribute semantics understood by the cache.
const (
	SemanticPoints     = "points"
	SemanticVelocities = "velocities"
	SemanticNormals    = "normals"
	SemanticTangents   = "tangents"
	SemanticUV0        = "uv0"
	SemanticUV1        = "uv1"
	SemanticColors     = "colors"
	SemanticVertexID   = "vertexid"
	SemanticMeshID     = "meshid"
)

// MaxDescriptors is the maximum number of attributes per cache.
const MaxDescriptors = 8

// SemanticLength is the on-disk size of a semantic name, including the
// terminating zero.
const SemanticLength = 32

// DataFormat is the element layout of a vertex attribute.
type DataFormat uint32

// Data formats.
const (
	FormatUnknown DataFormat = iota
	FormatInt
	FormatInt2
	FormatInt3
	FormatInt4
	FormatFloat
	FormatFloat2
	FormatFloat3
	FormatFloat4
	FormatHalf
	FormatHalf2
	FormatHalf3
	FormatHalf4
	FormatSNorm16
	FormatSNorm16x2
	FormatSNorm16x3
	FormatSNorm16x4
	FormatUNorm16
	FormatUNorm16x2
	FormatUNorm16x3
	FormatUNorm16x4
)

var formatNames = [...]string{
	"Unknown",
	"Int", "Int2", "Int3", "Int4",
	"Float", "Float2", "Float3", "Float4",
	"Half", "Half2", "Half3", "Half4",
	"SNorm16", "SNorm16x2", "SNorm16x3", "SNorm16x4",
	"UNorm16", "UNorm16x2", "UNorm16x3", "UNorm16x4",
}

// String returns the format name.
func (f DataFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Unknown(%d)", uint32(f))
}

// Components returns the number of scalar components, or 0 for unknown
// formats.
func (f DataFormat) Components() int {
	if f == FormatUnknown || int(f) >= len(formatNames) {
		return 0
	}
	return int(f-1)%4 + 1
}

// Size returns the size of one element in bytes.
func (f DataFormat) Size() int {
	switch {
	case f >= FormatInt && f <= FormatFloat4:
		return 4 * f.Components()
	case f >= FormatHalf && f <= FormatUNorm16x4:
		return 2 * f.Components()
	default:
		return 0
	}
}

// Desc describes one vertex attribute stream.
type Desc struct {
	Semantic string     `yaml:"semantic"`
	Format   DataFormat `yaml:"format"`
}

// Descs is an ordered attribute layout.
type Descs []Desc

// Index returns the position of the attribute with the given semantic,
// compared case-insensitively, or -1.
func (d Descs) Index(semantic string) int {
	for i, desc := range d {
		if strings.EqualFold(desc.Semantic, semantic) {
			return i
		}
	}
	return -1
}

// Has reports whether the layout contains the semantic.
func (d Descs) Has(semantic string) bool {
	return d.Index(semantic) >= 0
}

// Validate checks descriptor count, names and formats.
func (d Descs) Validate() error {
	if len(d) > MaxDescriptors {
		return fmt.Errorf("%w: %d descriptors exceeds %d", ErrInvalidDescriptor, len(d), MaxDescriptors)
	}
	for i, desc := range d {
		if desc.Semantic == "" || len(desc.Semantic) >= SemanticLength {
			return fmt.Errorf("%w: descriptor %d has bad semantic %q", ErrInvalidDescriptor, i, desc.Semantic)
		}
		if desc.Format.Size() == 0 {
			return fmt.Errorf("%w: descriptor %d (%s) has format %s", ErrInvalidDescriptor, i, desc.Semantic, desc.Format)
		}
		if d.Index(desc.Semantic) != i {
			return fmt.Errorf("%w: duplicate semantic %q", ErrInvalidDescriptor, desc.Semantic)
		}
	}
	return nil
}

// persisted reports whether an attribute is written to the container.
// Vertex and mesh ids only drive gathering.
func persisted(semantic string) bool {
	return !strings.EqualFold(semantic, SemanticVertexID) && !strings.EqualFold(semantic, SemanticMeshID)
}
