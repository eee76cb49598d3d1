package abc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/Faultbox/vertexcache/pkg/nvc"
)

// NormalsMode selects where mesh normals come from.
type NormalsMode int32

// Normals modes.
const (
	NormalsReadFromFile NormalsMode = iota
	NormalsComputeIfMissing
	NormalsAlwaysCompute
	NormalsIgnore
)

var normalsModeNames = map[NormalsMode]string{
	NormalsReadFromFile:     "read_from_file",
	NormalsComputeIfMissing: "compute_if_missing",
	NormalsAlwaysCompute:    "always_compute",
	NormalsIgnore:           "ignore",
}

// String returns the configuration name of the mode.
func (m NormalsMode) String() string {
	if s, ok := normalsModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("NormalsMode(%d)", int32(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m NormalsMode) MarshalText() ([]byte, error) {
	if _, ok := normalsModeNames[m]; !ok {
		return nil, fmt.Errorf("unknown normals mode %d", int32(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *NormalsMode) UnmarshalText(text []byte) error {
	for mode, name := range normalsModeNames {
		if strings.EqualFold(name, string(text)) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown normals mode %q", text)
}

// TangentsMode selects whether tangents are generated.
type TangentsMode int32

// Tangents modes.
const (
	TangentsNone TangentsMode = iota
	TangentsCompute
)

// String returns the configuration name of the mode.
func (m TangentsMode) String() string {
	switch m {
	case TangentsNone:
		return "none"
	case TangentsCompute:
		return "compute"
	default:
		return fmt.Sprintf("TangentsMode(%d)", int32(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m TangentsMode) MarshalText() ([]byte, error) {
	if m != TangentsNone && m != TangentsCompute {
		return nil, fmt.Errorf("unknown tangents mode %d", int32(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *TangentsMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "none":
		*m = TangentsNone
	case "compute":
		*m = TangentsCompute
	default:
		return fmt.Errorf("unknown tangents mode %q", text)
	}
	return nil
}

// ImportOptions configures how a scene is read. The record is copied
// when passed to Open and not retained afterwards.
type ImportOptions struct {
	NormalsMode       NormalsMode  `yaml:"normals_mode"`
	TangentsMode      TangentsMode `yaml:"tangents_mode"`
	ScaleFactor       float32      `yaml:"scale_factor"`
	AspectRatio       float32      `yaml:"aspect_ratio"`        // negative: keep the camera's own ratio
	VertexMotionScale float32      `yaml:"vertex_motion_scale"` // negative: importer default
	SplitUnit         int32        `yaml:"split_unit"`          // max vertices per mesh split

	SwapHandedness     bool `yaml:"swap_handedness"`
	SwapFaceWinding    bool `yaml:"swap_face_winding"`
	InterpolateSamples bool `yaml:"interpolate_samples"`
	TurnQuadEdges      bool `yaml:"turn_quad_edges"`
	Multithreading     bool `yaml:"multithreading"`

	ImportPointPolygon    bool `yaml:"import_point_polygon"`
	ImportLinePolygon     bool `yaml:"import_line_polygon"`
	ImportTrianglePolygon bool `yaml:"import_triangle_polygon"`
	ImportPoints          bool `yaml:"import_points"`
}

// DefaultImportOptions returns the default import configuration.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		NormalsMode:           NormalsComputeIfMissing,
		TangentsMode:          TangentsCompute,
		ScaleFactor:           1.0,
		AspectRatio:           -1.0,
		VertexMotionScale:     -1.0,
		SplitUnit:             0x7fffffff,
		SwapHandedness:        true,
		SwapFaceWinding:       false,
		InterpolateSamples:    true,
		TurnQuadEdges:         false,
		Multithreading:        true,
		ImportPointPolygon:    true,
		ImportLinePolygon:     true,
		ImportTrianglePolygon: true,
		ImportPoints:          true,
	}
}

// ImportOptionsSize is the size of the native import options record.
const ImportOptionsSize = 36

// MarshalBinary encodes the options as the native record: enums and
// the split unit as int32, floats as float32 and each flag as one byte,
// zero padded to 4-byte alignment.
func (o ImportOptions) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, ImportOptionsSize))
	err := binary.Write(buf, binary.LittleEndian, struct {
		NormalsMode, TangentsMode                   int32
		ScaleFactor, AspectRatio, VertexMotionScale float32
		SplitUnit                                   int32
	}{
		int32(o.NormalsMode), int32(o.TangentsMode),
		o.ScaleFactor, o.AspectRatio, o.VertexMotionScale,
		o.SplitUnit,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding import options: %w", err)
	}
	for _, flag := range o.flags() {
		buf.WriteByte(boolByte(flag))
	}
	for buf.Len() < ImportOptionsSize {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func (o ImportOptions) flags() []bool {
	return []bool{
		o.SwapHandedness, o.SwapFaceWinding, o.InterpolateSamples, o.TurnQuadEdges, o.Multithreading,
		o.ImportPointPolygon, o.ImportLinePolygon, o.ImportTrianglePolygon, o.ImportPoints,
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Validate rejects values the importer cannot use.
func (o ImportOptions) Validate() error {
	if _, ok := normalsModeNames[o.NormalsMode]; !ok {
		return fmt.Errorf("unknown normals mode %d", int32(o.NormalsMode))
	}
	if o.TangentsMode != TangentsNone && o.TangentsMode != TangentsCompute {
		return fmt.Errorf("unknown tangents mode %d", int32(o.TangentsMode))
	}
	if o.ScaleFactor <= 0 {
		return fmt.Errorf("scale factor must be positive, got %g", o.ScaleFactor)
	}
	if o.SplitUnit <= 0 {
		return fmt.Errorf("split unit must be positive, got %d", o.SplitUnit)
	}
	return nil
}

// ExportOptions configures NVC export.
type ExportOptions struct {
	Compression nvc.CompressionType `yaml:"compression"`
	BlockSize   int32               `yaml:"block_size"` // frames per seek window
}

// DefaultExportOptions returns quantised compression with 30 frame
// blocks.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Compression: nvc.CompressionQuantize,
		BlockSize:   nvc.DefaultSeekWindow,
	}
}

// ExportOptionsSize is the size of the native export options record.
const ExportOptionsSize = 8

// MarshalBinary encodes the options as the native record.
func (o ExportOptions) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, ExportOptionsSize))
	if err := binary.Write(buf, binary.LittleEndian, [2]int32{int32(o.Compression), o.BlockSize}); err != nil {
		return nil, fmt.Errorf("encoding export options: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate rejects unknown compression types and empty blocks.
func (o ExportOptions) Validate() error {
	if !o.Compression.Valid() {
		return fmt.Errorf("%w: %d", nvc.ErrUnknownCompression, int32(o.Compression))
	}
	if o.BlockSize < 1 {
		return fmt.Errorf("block size must be at least 1, got %d", o.BlockSize)
	}
	return nil
}
