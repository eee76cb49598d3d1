package nvc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ConstantData holds per-cache strings that do not change over time,
// one full node path per gathered mesh.
type ConstantData []string

// Size returns the serialized size in bytes.
func (c ConstantData) Size() int {
	if len(c) == 0 {
		return 0
	}
	n := 4
	for _, s := range c {
		n += 4 + len(s)
	}
	return n
}

// MarshalBinary encodes the strings as a count followed by
// length-prefixed entries. An empty set encodes to nothing.
func (c ConstantData) MarshalBinary() ([]byte, error) {
	if len(c) == 0 {
		return nil, nil
	}
	buf := bytes.NewBuffer(make([]byte, 0, c.Size()))
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(c))); err != nil {
		return nil, err
	}
	for _, s := range c {
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(s))); err != nil {
			return nil, err
		}
		buf.WriteString(s)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (c *ConstantData) UnmarshalBinary(data []byte) error {
	*c = nil
	if len(data) == 0 {
		return nil
	}
	r := bytes.NewReader(data)

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: reading constant count", ErrTruncated)
	}
	if int64(count)*4 > int64(r.Len()) {
		return fmt.Errorf("%w: %d constant strings in %d bytes", ErrTruncated, count, r.Len())
	}

	out := make(ConstantData, 0, count)
	for i := uint32(0); i < count; i++ {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return fmt.Errorf("%w: reading constant %d length", ErrTruncated, i)
		}
		if int64(n) > int64(r.Len()) {
			return fmt.Errorf("%w: constant %d", ErrTruncated, i)
		}
		s := make([]byte, n)
		r.Read(s)
		out = append(out, string(s))
	}
	*c = out
	return nil
}
