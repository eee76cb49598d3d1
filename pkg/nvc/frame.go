package nvc

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/vertexcache/pkg/math"
)

// Topology is the primitive type of a submesh.
type Topology uint32

// Topologies.
const (
	TopologyPoints Topology = iota
	TopologyLines
	TopologyTriangles
	TopologyQuads
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyPoints:
		return "Points"
	case TopologyLines:
		return "Lines"
	case TopologyTriangles:
		return "Triangles"
	case TopologyQuads:
		return "Quads"
	default:
		return "Unknown"
	}
}

// Mesh locates one source mesh inside the merged vertex and submesh
// arrays of a frame.
type Mesh struct {
	SubmeshOffset uint32
	SubmeshCount  uint32
	VertexOffset  uint32
	VertexCount   uint32
}

// Submesh locates a run of indices sharing one topology.
type Submesh struct {
	IndexOffset uint32
	IndexCount  uint32
	Topology    Topology
}

// Frame is the merged geometry of every mesh at one point in time.
// Attributes holds one little-endian stream per descriptor, each
// VertexCount elements long.
type Frame struct {
	Indices     []int32
	VertexCount int
	Attributes  [][]byte
	Meshes      []Mesh
	Submeshes   []Submesh
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := Frame{
		Indices:     append([]int32(nil), f.Indices...),
		VertexCount: f.VertexCount,
		Meshes:      append([]Mesh(nil), f.Meshes...),
		Submeshes:   append([]Submesh(nil), f.Submeshes...),
	}
	if f.Attributes != nil {
		out.Attributes = make([][]byte, len(f.Attributes))
		for i, a := range f.Attributes {
			out.Attributes[i] = append([]byte(nil), a...)
		}
	}
	return out
}

// Attribute returns the stream for semantic, or nil.
func (f Frame) Attribute(descs Descs, semantic string) []byte {
	i := descs.Index(semantic)
	if i < 0 || i >= len(f.Attributes) {
		return nil
	}
	return f.Attributes[i]
}

// EncodeVec2s packs vectors as Float2.
func EncodeVec2s(v []math.Vec2) []byte {
	out := make([]byte, 8*len(v))
	for i, e := range v {
		putFloats(out[i*8:], e.X, e.Y)
	}
	return out
}

// DecodeVec2s unpacks a Float2 stream.
func DecodeVec2s(b []byte) []math.Vec2 {
	out := make([]math.Vec2, len(b)/8)
	for i := range out {
		o := b[i*8:]
		out[i] = math.Vec2{X: getFloat(o, 0), Y: getFloat(o, 1)}
	}
	return out
}

// EncodeVec3s packs vectors as Float3.
func EncodeVec3s(v []math.Vec3) []byte {
	out := make([]byte, 12*len(v))
	for i, e := range v {
		putFloats(out[i*12:], e.X, e.Y, e.Z)
	}
	return out
}

// DecodeVec3s unpacks a Float3 stream.
func DecodeVec3s(b []byte) []math.Vec3 {
	out := make([]math.Vec3, len(b)/12)
	for i := range out {
		o := b[i*12:]
		out[i] = math.Vec3{X: getFloat(o, 0), Y: getFloat(o, 1), Z: getFloat(o, 2)}
	}
	return out
}

// EncodeVec4s packs vectors as Float4.
func EncodeVec4s(v []math.Vec4) []byte {
	out := make([]byte, 16*len(v))
	for i, e := range v {
		putFloats(out[i*16:], e.X, e.Y, e.Z, e.W)
	}
	return out
}

// DecodeVec4s unpacks a Float4 stream.
func DecodeVec4s(b []byte) []math.Vec4 {
	out := make([]math.Vec4, len(b)/16)
	for i := range out {
		o := b[i*16:]
		out[i] = math.Vec4{X: getFloat(o, 0), Y: getFloat(o, 1), Z: getFloat(o, 2), W: getFloat(o, 3)}
	}
	return out
}

// EncodeInt32s packs integers as Int.
func EncodeInt32s(v []int32) []byte {
	out := make([]byte, 4*len(v))
	for i, e := range v {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(e))
	}
	return out
}

// DecodeInt32s unpacks an Int stream.
func DecodeInt32s(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func putFloats(dst []byte, v ...float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], gomath.Float32bits(f))
	}
}

func getFloat(src []byte, i int) float32 {
	return gomath.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
}
