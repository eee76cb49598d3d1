package nvc

import (
	"fmt"
	"slices"
)

type timedFrame struct {
	time  float32
	frame Frame
}

// InputCache accumulates gathered frames before compression. Frames are
// kept sorted by time and each time appears once.
type InputCache struct {
	descs     Descs
	constants ConstantData
	frames    []timedFrame
}

// NewInputCache creates an empty cache for the given attribute layout.
func NewInputCache(descs Descs, constants ConstantData) (*InputCache, error) {
	if err := descs.Validate(); err != nil {
		return nil, err
	}
	return &InputCache{
		descs:     slices.Clone(descs),
		constants: slices.Clone(constants),
	}, nil
}

// Add stores a deep copy of frame at time. A frame whose time is
// already present is ignored and Add reports false.
func (c *InputCache) Add(time float32, frame Frame) (bool, error) {
	if err := c.check(frame); err != nil {
		return false, fmt.Errorf("frame at %g: %w", time, err)
	}

	i, found := slices.BinarySearchFunc(c.frames, time, func(f timedFrame, t float32) int {
		switch {
		case f.time < t:
			return -1
		case f.time > t:
			return 1
		default:
			return 0
		}
	})
	if found {
		return false, nil
	}

	c.frames = slices.Insert(c.frames, i, timedFrame{time: time, frame: frame.Clone()})
	return true, nil
}

func (c *InputCache) check(frame Frame) error {
	if frame.Attributes == nil {
		return nil
	}
	if len(frame.Attributes) != len(c.descs) {
		return fmt.Errorf("%w: %d streams for %d descriptors", ErrAttributeSize, len(frame.Attributes), len(c.descs))
	}
	for i, desc := range c.descs {
		if want := desc.Format.Size() * frame.VertexCount; len(frame.Attributes[i]) != want {
			return fmt.Errorf("%w: %s has %d bytes, want %d", ErrAttributeSize, desc.Semantic, len(frame.Attributes[i]), want)
		}
	}
	for _, idx := range frame.Indices {
		if idx < 0 || int(idx) >= frame.VertexCount {
			return fmt.Errorf("index %d outside %d vertices", idx, frame.VertexCount)
		}
	}
	return nil
}

// Len returns the number of stored frames.
func (c *InputCache) Len() int {
	return len(c.frames)
}

// Frame returns the i-th frame in time order. The frame is shared with
// the cache and must not be modified.
func (c *InputCache) Frame(i int) (float32, Frame, bool) {
	if i < 0 || i >= len(c.frames) {
		return 0, Frame{}, false
	}
	return c.frames[i].time, c.frames[i].frame, true
}

// Times returns the frame times in ascending order.
func (c *InputCache) Times() []float32 {
	out := make([]float32, len(c.frames))
	for i, f := range c.frames {
		out[i] = f.time
	}
	return out
}

// Descs returns a copy of the attribute layout.
func (c *InputCache) Descs() Descs {
	return slices.Clone(c.descs)
}

// Constants returns a copy of the constant strings.
func (c *InputCache) Constants() ConstantData {
	return slices.Clone(c.constants)
}

// VertexIDIndex returns the position of the vertex id attribute, or -1.
func (c *InputCache) VertexIDIndex() int {
	return c.descs.Index(SemanticVertexID)
}

// MeshIDIndex returns the position of the mesh id attribute, or -1.
func (c *InputCache) MeshIDIndex() int {
	return c.descs.Index(SemanticMeshID)
}
