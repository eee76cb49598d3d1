package nvc

import (
	"errors"
	"testing"

	"github.com/Faultbox/vertexcache/pkg/math"
)

var testDescs = Descs{
	{Semantic: SemanticPoints, Format: FormatFloat3},
	{Semantic: SemanticNormals, Format: FormatFloat3},
	{Semantic: SemanticUV0, Format: FormatFloat2},
	{Semantic: SemanticVertexID, Format: FormatInt},
}

// testFrame builds a two-triangle quad whose last corner rises with t.
func testFrame(t float32) Frame {
	points := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: t}}
	normals := []math.Vec3{{Z: 1}, {Z: 1}, {X: 0.6, Z: 0.8}, {Y: -1}}
	uvs := []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	return Frame{
		Indices:     []int32{0, 1, 2, 0, 2, 3},
		VertexCount: 4,
		Attributes: [][]byte{
			EncodeVec3s(points),
			EncodeVec3s(normals),
			EncodeVec2s(uvs),
			EncodeInt32s([]int32{0, 1, 2, 3}),
		},
		Meshes:    []Mesh{{SubmeshOffset: 0, SubmeshCount: 1, VertexOffset: 0, VertexCount: 4}},
		Submeshes: []Submesh{{IndexOffset: 0, IndexCount: 6, Topology: TopologyTriangles}},
	}
}

func newTestCache(t *testing.T, frames int) *InputCache {
	t.Helper()

	c, err := NewInputCache(testDescs, ConstantData{"/root/quad"})
	if err != nil {
		t.Fatalf("NewInputCache failed: %v", err)
	}
	for i := 0; i < frames; i++ {
		if _, err := c.Add(float32(i)/30, testFrame(float32(i))); err != nil {
			t.Fatalf("Add frame %d failed: %v", i, err)
		}
	}
	return c
}

func TestInputCache_SortedAndUnique(t *testing.T) {
	c, err := NewInputCache(testDescs, nil)
	if err != nil {
		t.Fatalf("NewInputCache failed: %v", err)
	}

	for _, tm := range []float32{0.5, 0.1, 0.3, 0.1} {
		c.Add(tm, testFrame(tm))
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 frames, got %d", c.Len())
	}
	want := []float32{0.1, 0.3, 0.5}
	for i, tm := range c.Times() {
		if tm != want[i] {
			t.Errorf("frame %d: expected time %v, got %v", i, want[i], tm)
		}
	}

	added, err := c.Add(0.3, testFrame(9))
	if err != nil || added {
		t.Errorf("expected duplicate time to be ignored, got added=%v err=%v", added, err)
	}
}

func TestInputCache_DeepCopy(t *testing.T) {
	c := newTestCache(t, 0)
	f := testFrame(0)
	c.Add(0, f)

	f.Indices[0] = 3
	f.Attributes[0][0] = 0xff

	_, stored, _ := c.Frame(0)
	if stored.Indices[0] != 0 {
		t.Error("cache indices changed with caller slice")
	}
	if stored.Attributes[0][0] != 0 {
		t.Error("cache attributes changed with caller slice")
	}
}

func TestInputCache_RejectsBadFrames(t *testing.T) {
	c := newTestCache(t, 0)

	short := testFrame(0)
	short.Attributes[2] = short.Attributes[2][:4]
	if _, err := c.Add(0, short); !errors.Is(err, ErrAttributeSize) {
		t.Errorf("expected ErrAttributeSize, got %v", err)
	}

	missing := testFrame(0)
	missing.Attributes = missing.Attributes[:2]
	if _, err := c.Add(0, missing); !errors.Is(err, ErrAttributeSize) {
		t.Errorf("expected ErrAttributeSize for missing stream, got %v", err)
	}

	badIndex := testFrame(0)
	badIndex.Indices[1] = 4
	if _, err := c.Add(0, badIndex); err == nil {
		t.Error("expected error for out of range index")
	}
}

func TestInputCache_IDIndices(t *testing.T) {
	c := newTestCache(t, 0)
	if c.VertexIDIndex() != 3 {
		t.Errorf("expected vertex id at 3, got %d", c.VertexIDIndex())
	}
	if c.MeshIDIndex() != -1 {
		t.Errorf("expected no mesh id, got %d", c.MeshIDIndex())
	}
}

func TestInputCache_FrameOutOfRange(t *testing.T) {
	c := newTestCache(t, 1)
	if _, _, ok := c.Frame(1); ok {
		t.Error("expected frame 1 to be out of range")
	}
	if _, _, ok := c.Frame(-1); ok {
		t.Error("expected frame -1 to be out of range")
	}
}
