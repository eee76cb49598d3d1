package nvc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	gomath "math"
	"sort"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
)

// Decoder reads frames from an NVC container on demand. A Decoder is not
// safe for concurrent use.
type Decoder struct {
	r      io.ReaderAt
	size   int64 // -1 when r has no Size method
	closer io.Closer

	header    fileHeader
	descs     []diskDesc
	seekTable []uint64
	times     []float32
	constants ConstantData

	codec  codec
	zstd   *zstd.Decoder
	loaded map[int]Frame
}

// Open reads the container header, descriptors, seek table, constants
// and time table from r. Frame data is read lazily.
func Open(r io.ReaderAt) (*Decoder, error) {
	sr := io.NewSectionReader(r, 0, gomath.MaxInt64)
	d := &Decoder{r: r, size: -1, loaded: make(map[int]Frame)}
	if s, ok := r.(interface{ Size() int64 }); ok {
		d.size = s.Size()
	}

	if err := binary.Read(sr, binary.LittleEndian, &d.header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncated)
	}
	if string(d.header.Magic[:]) != containerMagic {
		return nil, ErrInvalidMagic
	}
	if d.header.Version != containerVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.header.Version)
	}
	if d.header.SeekWindow == 0 {
		return nil, fmt.Errorf("%w: zero seek window", ErrInvalidDescriptor)
	}
	if d.header.FrameCount > maxFrameCount || d.header.AttributeCount > MaxDescriptors {
		return nil, fmt.Errorf("%w: %d frames, %d attributes", ErrTruncated, d.header.FrameCount, d.header.AttributeCount)
	}

	kind := CompressionType(d.header.Compression)
	c, err := codecFor(kind)
	if err != nil {
		return nil, err
	}
	d.codec = c

	d.descs = make([]diskDesc, d.header.AttributeCount)
	if err := binary.Read(sr, binary.LittleEndian, d.descs); err != nil {
		return nil, fmt.Errorf("%w: reading descriptors", ErrTruncated)
	}
	for i, desc := range d.descs {
		if DataFormat(desc.Format).Size() == 0 || DataFormat(desc.Stored).Size() == 0 {
			return nil, fmt.Errorf("%w: descriptor %d (%s)", ErrInvalidDescriptor, i, desc.semantic())
		}
	}

	d.seekTable = make([]uint64, seekTableSize(d.header.FrameCount, d.header.SeekWindow))
	if err := binary.Read(sr, binary.LittleEndian, d.seekTable); err != nil {
		return nil, fmt.Errorf("%w: reading seek table", ErrTruncated)
	}

	if d.header.ConstantSize > 0 {
		raw := make([]byte, d.header.ConstantSize)
		if _, err := io.ReadFull(sr, raw); err != nil {
			return nil, fmt.Errorf("%w: reading constant data", ErrTruncated)
		}
		if err := d.constants.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
	}

	d.times = make([]float32, d.header.FrameCount)
	if err := binary.Read(sr, binary.LittleEndian, d.times); err != nil {
		return nil, fmt.Errorf("%w: reading time table", ErrTruncated)
	}

	if kind == CompressionZstd {
		d.zstd, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
	}
	return d, nil
}

// OpenFile opens the container at path. On unix systems the file is
// memory mapped.
func OpenFile(path string) (*Decoder, error) {
	r, closer, err := openMapped(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	d, err := Open(r)
	if err != nil {
		return nil, multierr.Append(err, closer.Close())
	}
	d.closer = closer
	return d, nil
}

// Close releases loaded frames and the underlying file.
func (d *Decoder) Close() error {
	d.loaded = make(map[int]Frame)
	if d.zstd != nil {
		d.zstd.Close()
		d.zstd = nil
	}
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}

// Compression returns the container compression type.
func (d *Decoder) Compression() CompressionType {
	return CompressionType(d.header.Compression)
}

// FrameCount returns the number of frames.
func (d *Decoder) FrameCount() int {
	return int(d.header.FrameCount)
}

// SeekWindow returns the number of frames per seek table entry.
func (d *Decoder) SeekWindow() int {
	return int(d.header.SeekWindow)
}

// Descs returns the decoded attribute layout.
func (d *Decoder) Descs() Descs {
	out := make(Descs, len(d.descs))
	for i, desc := range d.descs {
		out[i] = Desc{Semantic: desc.semantic(), Format: DataFormat(desc.Format)}
	}
	return out
}

// StoredFormats returns the on-disk format of each attribute.
func (d *Decoder) StoredFormats() []DataFormat {
	out := make([]DataFormat, len(d.descs))
	for i, desc := range d.descs {
		out[i] = DataFormat(desc.Stored)
	}
	return out
}

// Constants returns the constant strings.
func (d *Decoder) Constants() ConstantData {
	return append(ConstantData(nil), d.constants...)
}

// FrameTime returns the time of frame i, or +Inf when i is out of range.
func (d *Decoder) FrameTime(i int) float32 {
	if i < 0 || i >= len(d.times) {
		return float32(gomath.Inf(1))
	}
	return d.times[i]
}

// FrameIndex returns the first frame whose time is not before t, or -1
// when t is past the last frame.
func (d *Decoder) FrameIndex(t float32) int {
	i := sort.Search(len(d.times), func(i int) bool { return d.times[i] >= t })
	if i == len(d.times) {
		return -1
	}
	return i
}

// FloorIndex returns the last frame whose time is not after t, clamped
// to the first frame. It returns -1 for an empty container.
func (d *Decoder) FloorIndex(t float32) int {
	if len(d.times) == 0 {
		return -1
	}
	i := sort.Search(len(d.times), func(i int) bool { return d.times[i] > t })
	if i == 0 {
		return 0
	}
	return i - 1
}

// Loaded returns the number of decoded frames held in memory.
func (d *Decoder) Loaded() int {
	return len(d.loaded)
}

// IsLoaded reports whether frame i is held in memory.
func (d *Decoder) IsLoaded(i int) bool {
	_, ok := d.loaded[i]
	return ok
}

// Drop releases decoded frame i.
func (d *Decoder) Drop(i int) {
	delete(d.loaded, i)
}

// Prefetch decodes frames [i, i+n) that are not yet loaded. Reading
// starts at the seek table entry owning frame i.
func (d *Decoder) Prefetch(i, n int) error {
	if i < 0 || i >= d.FrameCount() {
		return fmt.Errorf("%w: %d of %d", ErrFrameIndex, i, d.FrameCount())
	}
	last := min(i+max(n, 1)-1, d.FrameCount()-1)
	return d.load(i, last)
}

// Frame returns decoded frame i, loading it if needed.
func (d *Decoder) Frame(i int) (Frame, error) {
	if f, ok := d.loaded[i]; ok {
		return f, nil
	}
	if err := d.Prefetch(i, 1); err != nil {
		return Frame{}, err
	}
	return d.loaded[i], nil
}

// FrameAt returns the frame shown at time t, see FloorIndex.
func (d *Decoder) FrameAt(t float32) (int, Frame, error) {
	i := d.FloorIndex(t)
	if i < 0 {
		return -1, Frame{}, fmt.Errorf("%w: empty cache", ErrFrameIndex)
	}
	f, err := d.Frame(i)
	return i, f, err
}

func (d *Decoder) load(first, last int) error {
	window := int(d.header.SeekWindow)
	entry := first / window
	off := int64(d.seekTable[entry])

	for i := entry * window; i <= last; i++ {
		var size uint32
		if err := binary.Read(io.NewSectionReader(d.r, off, 4), binary.LittleEndian, &size); err != nil {
			return fmt.Errorf("%w: frame %d size", ErrTruncated, i)
		}
		off += 4
		if err := d.checkPayload(off, size); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		if _, ok := d.loaded[i]; i >= first && !ok {
			payload := make([]byte, size)
			if _, err := d.r.ReadAt(payload, off); err != nil && !(err == io.EOF && len(payload) == 0) {
				return fmt.Errorf("%w: frame %d payload", ErrTruncated, i)
			}
			f, err := d.decodeFrame(payload)
			if err != nil {
				return fmt.Errorf("decoding frame %d: %w", i, err)
			}
			d.loaded[i] = f
		}
		off += int64(size)
	}
	return nil
}

// checkPayload rejects frame sizes that cannot fit the container before
// anything is allocated for them.
func (d *Decoder) checkPayload(off int64, size uint32) error {
	if size > maxFramePayload {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrTruncated, size, maxFramePayload)
	}
	if d.size >= 0 && off+int64(size) > d.size {
		return fmt.Errorf("%w: payload of %d bytes at %d, container is %d bytes", ErrTruncated, size, off, d.size)
	}
	return nil
}

func (d *Decoder) decodeFrame(payload []byte) (Frame, error) {
	if d.zstd != nil {
		var err error
		payload, err = d.zstd.DecodeAll(payload, nil)
		if err != nil {
			return Frame{}, fmt.Errorf("zstd: %w", err)
		}
	}

	r := bytes.NewReader(payload)
	var h frameHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Frame{}, fmt.Errorf("%w: frame header", ErrTruncated)
	}
	need := int64(h.MeshCount)*16 + int64(h.SubmeshCount)*12 + int64(h.IndexCount)*4
	if need > int64(r.Len()) {
		return Frame{}, fmt.Errorf("%w: frame body needs %d bytes, %d left", ErrTruncated, need, r.Len())
	}

	f := Frame{
		VertexCount: int(h.VertexCount),
		Meshes:      make([]Mesh, h.MeshCount),
		Submeshes:   make([]Submesh, h.SubmeshCount),
		Indices:     make([]int32, h.IndexCount),
	}
	binary.Read(r, binary.LittleEndian, f.Meshes)
	binary.Read(r, binary.LittleEndian, f.Submeshes)
	binary.Read(r, binary.LittleEndian, f.Indices)

	attrs, err := d.codec.decode(r, d.descs, f.VertexCount)
	if err != nil {
		return Frame{}, err
	}
	f.Attributes = attrs
	return f, nil
}
