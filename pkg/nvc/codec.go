package nvc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/vertexcache/pkg/math"
)

// codec converts frame attributes between their source format and the
// stored format of a compression type.
type codec interface {
	stored(desc Desc) DataFormat
	encode(buf *bytes.Buffer, descs Descs, f Frame) error
	decode(r *bytes.Reader, descs []diskDesc, vertexCount int) ([][]byte, error)
}

func codecFor(kind CompressionType) (codec, error) {
	switch kind {
	case CompressionNone, CompressionZstd:
		return rawCodec{}, nil
	case CompressionQuantize:
		return quantCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, int32(kind))
	}
}

// attribute returns stream i of f, zero filled when the frame carries
// no attribute data.
func attribute(f Frame, i int, format DataFormat) []byte {
	if i < len(f.Attributes) && f.Attributes[i] != nil {
		return f.Attributes[i]
	}
	return make([]byte, format.Size()*f.VertexCount)
}

func readStream(r *bytes.Reader, size int) ([]byte, error) {
	if size > r.Len() {
		return nil, fmt.Errorf("%w: attribute needs %d bytes, %d left", ErrTruncated, size, r.Len())
	}
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return out, nil
}

type rawCodec struct{}

func (rawCodec) stored(desc Desc) DataFormat {
	return desc.Format
}

func (rawCodec) encode(buf *bytes.Buffer, descs Descs, f Frame) error {
	for i, desc := range descs {
		if !persisted(desc.Semantic) {
			continue
		}
		buf.Write(attribute(f, i, desc.Format))
	}
	return nil
}

func (rawCodec) decode(r *bytes.Reader, descs []diskDesc, vertexCount int) ([][]byte, error) {
	out := make([][]byte, len(descs))
	for i, d := range descs {
		s, err := readStream(r, DataFormat(d.Stored).Size()*vertexCount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.semantic(), err)
		}
		out[i] = s
	}
	return out, nil
}

type quantCodec struct{}

func (quantCodec) stored(desc Desc) DataFormat {
	switch strings.ToLower(desc.Semantic) {
	case SemanticPoints:
		if desc.Format == FormatFloat3 {
			return FormatUNorm16x3
		}
	case SemanticNormals:
		if desc.Format == FormatFloat3 {
			return FormatUNorm16x2
		}
	case SemanticTangents:
		if desc.Format == FormatFloat3 || desc.Format == FormatFloat4 {
			return FormatUNorm16x2
		}
	case SemanticUV0, SemanticUV1:
		if desc.Format == FormatFloat2 {
			return FormatUNorm16x2
		}
	}
	return desc.Format
}

func (q quantCodec) encode(buf *bytes.Buffer, descs Descs, f Frame) error {
	pi := descs.Index(SemanticPoints)
	if pi < 0 || descs[pi].Format != FormatFloat3 {
		return ErrMissingPoints
	}
	box := BuildAABB(DecodeVec3s(attribute(f, pi, FormatFloat3)))
	if err := binary.Write(buf, binary.LittleEndian, box); err != nil {
		return fmt.Errorf("writing frame bounds: %w", err)
	}

	for i, desc := range descs {
		if !persisted(desc.Semantic) {
			continue
		}
		src := attribute(f, i, desc.Format)
		stored := q.stored(desc)
		if stored == desc.Format {
			buf.Write(src)
			continue
		}

		var packed []uint16
		switch stored {
		case FormatUNorm16x3:
			for _, p := range DecodeVec3s(src) {
				v := PackPoint(box, p)
				packed = append(packed, v[:]...)
			}
		case FormatUNorm16x2:
			switch {
			case desc.Format == FormatFloat2:
				for _, uv := range DecodeVec2s(src) {
					packed = append(packed, PackUNorm16(uv.X), PackUNorm16(uv.Y))
				}
			case desc.Format == FormatFloat4:
				for _, t := range DecodeVec4s(src) {
					v := OctEncode(t.XYZ())
					packed = append(packed, v[:]...)
				}
			default:
				for _, n := range DecodeVec3s(src) {
					v := OctEncode(n)
					packed = append(packed, v[:]...)
				}
			}
		}
		if err := binary.Write(buf, binary.LittleEndian, packed); err != nil {
			return fmt.Errorf("writing %s: %w", desc.Semantic, err)
		}
	}
	return nil
}

func (q quantCodec) decode(r *bytes.Reader, descs []diskDesc, vertexCount int) ([][]byte, error) {
	var box AABB
	if err := binary.Read(r, binary.LittleEndian, &box); err != nil {
		return nil, fmt.Errorf("%w: reading frame bounds", ErrTruncated)
	}

	out := make([][]byte, len(descs))
	for i, d := range descs {
		stored := DataFormat(d.Stored)
		raw, err := readStream(r, stored.Size()*vertexCount)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.semantic(), err)
		}
		if stored == DataFormat(d.Format) {
			out[i] = raw
			continue
		}

		packed := make([]uint16, len(raw)/2)
		binary.Decode(raw, binary.LittleEndian, packed)

		switch stored {
		case FormatUNorm16x3:
			points := make([]math.Vec3, vertexCount)
			for v := range points {
				points[v] = UnpackPoint(box, [3]uint16{packed[v*3], packed[v*3+1], packed[v*3+2]})
			}
			out[i] = EncodeVec3s(points)
		case FormatUNorm16x2:
			switch DataFormat(d.Format) {
			case FormatFloat2:
				uvs := make([]math.Vec2, vertexCount)
				for v := range uvs {
					uvs[v] = math.Vec2{X: UnpackUNorm16(packed[v*2]), Y: UnpackUNorm16(packed[v*2+1])}
				}
				out[i] = EncodeVec2s(uvs)
			case FormatFloat4:
				// Handedness is not stored; tangents decode with W = 1.
				tangents := make([]math.Vec4, vertexCount)
				for v := range tangents {
					n := OctDecode([2]uint16{packed[v*2], packed[v*2+1]})
					tangents[v] = math.Vec4{X: n.X, Y: n.Y, Z: n.Z, W: 1}
				}
				out[i] = EncodeVec4s(tangents)
			default:
				normals := make([]math.Vec3, vertexCount)
				for v := range normals {
					normals[v] = OctDecode([2]uint16{packed[v*2], packed[v*2+1]})
				}
				out[i] = EncodeVec3s(normals)
			}
		default:
			return nil, fmt.Errorf("%w: %s stored as %s", ErrInvalidDescriptor, d.semantic(), stored)
		}
	}
	return out, nil
}
