package nvc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

const (
	containerMagic   = "NVC1"
	containerVersion = 1

	// DefaultSeekWindow is the default number of frames per seek table
	// entry.
	DefaultSeekWindow = 30

	// maxFrameCount bounds allocations when reading untrusted headers.
	maxFrameCount = 1 << 24

	// maxFramePayload bounds a single frame read when the container size
	// is unknown.
	maxFramePayload = 1 << 30
)

// fileHeader is the fixed container prefix.
type fileHeader struct {
	Magic          [4]byte
	Version        uint16
	Compression    uint16
	FrameCount     uint64
	SeekWindow     uint32
	AttributeCount uint32
	ConstantSize   uint32
}

// diskDesc is a descriptor as stored in the container. Format is the
// source layout and Stored the layout written by the codec.
type diskDesc struct {
	Semantic [SemanticLength]byte
	Format   uint32
	Stored   uint32
}

func (d diskDesc) semantic() string {
	n := bytes.IndexByte(d.Semantic[:], 0)
	if n < 0 {
		n = len(d.Semantic)
	}
	return string(d.Semantic[:n])
}

// frameHeader prefixes every decoded frame payload.
type frameHeader struct {
	IndexCount   uint32
	VertexCount  uint32
	MeshCount    uint32
	SubmeshCount uint32
}

func seekTableSize(frames uint64, window uint32) uint64 {
	return (frames + uint64(window) - 1) / uint64(window)
}

// Compressor writes an InputCache as an NVC container.
type Compressor interface {
	Compress(c *InputCache, w io.WriteSeeker) error
}

type containerWriter struct {
	kind   CompressionType
	codec  codec
	window uint32
}

// NewCompressor returns a compressor for kind. seekWindow is the number
// of frames per seek table entry; values below one use
// DefaultSeekWindow.
func NewCompressor(kind CompressionType, seekWindow int) (Compressor, error) {
	c, err := codecFor(kind)
	if err != nil {
		return nil, err
	}
	if seekWindow < 1 {
		seekWindow = DefaultSeekWindow
	}
	return &containerWriter{kind: kind, codec: c, window: uint32(seekWindow)}, nil
}

// countingWriter tracks the container-relative write position.
type countingWriter struct {
	w   *bufio.Writer
	pos int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.pos += int64(n)
	return n, err
}

// Compress writes the container to w starting at its current offset.
// Seek table entries are relative to that offset.
func (cw *containerWriter) Compress(c *InputCache, w io.WriteSeeker) error {
	descs := c.descs
	if cw.kind == CompressionQuantize && descs.Index(SemanticPoints) < 0 {
		return ErrMissingPoints
	}

	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locating container start: %w", err)
	}

	constants, err := c.constants.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding constant data: %w", err)
	}

	var stored []diskDesc
	for _, desc := range descs {
		if !persisted(desc.Semantic) {
			continue
		}
		d := diskDesc{Format: uint32(desc.Format), Stored: uint32(cw.codec.stored(desc))}
		copy(d.Semantic[:SemanticLength-1], desc.Semantic)
		stored = append(stored, d)
	}

	header := fileHeader{
		Version:        containerVersion,
		Compression:    uint16(cw.kind),
		FrameCount:     uint64(c.Len()),
		SeekWindow:     cw.window,
		AttributeCount: uint32(len(stored)),
		ConstantSize:   uint32(len(constants)),
	}
	copy(header.Magic[:], containerMagic)

	out := &countingWriter{w: bufio.NewWriter(w)}
	if err := binary.Write(out, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, stored); err != nil {
		return fmt.Errorf("writing descriptors: %w", err)
	}

	// Placeholder seek table, patched once frame offsets are known.
	seekOffset := out.pos
	seekTable := make([]uint64, seekTableSize(header.FrameCount, cw.window))
	if err := binary.Write(out, binary.LittleEndian, seekTable); err != nil {
		return fmt.Errorf("writing seek table: %w", err)
	}

	if _, err := out.Write(constants); err != nil {
		return fmt.Errorf("writing constant data: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, c.Times()); err != nil {
		return fmt.Errorf("writing time table: %w", err)
	}

	var enc *zstd.Encoder
	if cw.kind == CompressionZstd {
		enc, err = zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		defer enc.Close()
	}

	var payload bytes.Buffer
	for i, tf := range c.frames {
		if uint32(i)%cw.window == 0 {
			seekTable[uint32(i)/cw.window] = uint64(out.pos)
		}

		payload.Reset()
		if err := encodeFrame(&payload, cw.codec, descs, tf.frame); err != nil {
			return fmt.Errorf("encoding frame %d: %w", i, err)
		}
		data := payload.Bytes()
		if enc != nil {
			data = enc.EncodeAll(data, nil)
		}

		if err := binary.Write(out, binary.LittleEndian, uint32(len(data))); err != nil {
			return fmt.Errorf("writing frame %d size: %w", i, err)
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}

	if err := out.w.Flush(); err != nil {
		return fmt.Errorf("flushing frames: %w", err)
	}
	end := start + out.pos

	if _, err := w.Seek(start+seekOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to seek table: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, seekTable); err != nil {
		return fmt.Errorf("writing seek table: %w", err)
	}
	if _, err := w.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to container end: %w", err)
	}
	return nil
}

func encodeFrame(buf *bytes.Buffer, c codec, descs Descs, f Frame) error {
	header := frameHeader{
		IndexCount:   uint32(len(f.Indices)),
		VertexCount:  uint32(f.VertexCount),
		MeshCount:    uint32(len(f.Meshes)),
		SubmeshCount: uint32(len(f.Submeshes)),
	}
	for _, v := range []any{header, f.Meshes, f.Submeshes, f.Indices} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return c.encode(buf, descs, f)
}

// WriteFile compresses c into a new container at path.
func WriteFile(path string, c *InputCache, kind CompressionType, seekWindow int) (err error) {
	comp, err := NewCompressor(kind, seekWindow)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			os.Remove(path)
		}
	}()

	return comp.Compress(c, f)
}
