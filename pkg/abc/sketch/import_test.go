package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/math"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

const eps = 1e-5

// plainOptions disables every geometry transform.
func plainOptions() abc.ImportOptions {
	opts := abc.DefaultImportOptions()
	opts.SwapHandedness = false
	return opts
}

var unitQuad = MeshKey{
	Points: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	UV0:    [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	Faces:  [][]int32{{0, 1, 2, 3}},
}

func TestImportXform_Options(t *testing.T) {
	key := XformKey{Time: 1, Translation: [3]float32{1, 2, 3}, Rotation: &[4]float32{0, 0.7071068, 0, 0.7071068}}

	s := importXform(key, plainOptions())
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, s.Translation)
	assert.Equal(t, math.Vec3One(), s.Scale)
	assert.True(t, s.Visible)

	opts := abc.DefaultImportOptions()
	opts.ScaleFactor = 2
	s = importXform(key, opts)
	assert.Equal(t, math.Vec3{X: -2, Y: 4, Z: 6}, s.Translation)
	assert.InDelta(t, -0.7071068, s.Rotation.Y, eps)
	assert.InDelta(t, 0.7071068, s.Rotation.W, eps)
}

func TestImportCamera_AspectOverride(t *testing.T) {
	key := CameraKey{Near: 0.1, Far: 10, AspectRatio: 1.5, Hidden: true}

	s := importCamera(key, plainOptions())
	assert.Equal(t, float32(1.5), s.AspectRatio)
	assert.False(t, s.Visible)

	opts := plainOptions()
	opts.AspectRatio = 2
	opts.ScaleFactor = 10
	s = importCamera(key, opts)
	assert.Equal(t, float32(2), s.AspectRatio)
	assert.InDelta(t, 100, s.FarClippingPlane, eps)
}

func TestImportMesh_ComputedNormalsAndTangents(t *testing.T) {
	m := importMesh(unitQuad, abc.NodeMesh, plainOptions())

	require.Len(t, m.normals, 4)
	require.Len(t, m.tangents, 4)
	for i := range m.points {
		assert.InDelta(t, 1, m.normals[i].Z, eps, "normal %d", i)
		assert.InDelta(t, 1, m.tangents[i].X, eps, "tangent %d", i)
		assert.Equal(t, float32(1), m.tangents[i].W)
	}
}

func TestImportMesh_NormalsModes(t *testing.T) {
	key := unitQuad
	key.Normals = [][3]float32{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}}

	tests := []struct {
		mode abc.NormalsMode
		key  MeshKey
		want *math.Vec3
	}{
		{abc.NormalsReadFromFile, key, &math.Vec3{Y: 1}},
		{abc.NormalsReadFromFile, unitQuad, nil},
		{abc.NormalsComputeIfMissing, key, &math.Vec3{Y: 1}},
		{abc.NormalsComputeIfMissing, unitQuad, &math.Vec3{Z: 1}},
		{abc.NormalsAlwaysCompute, key, &math.Vec3{Z: 1}},
		{abc.NormalsIgnore, key, nil},
	}

	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			opts := plainOptions()
			opts.NormalsMode = tc.mode
			m := importMesh(tc.key, abc.NodeMesh, opts)
			if tc.want == nil {
				assert.Nil(t, m.normals)
				assert.Nil(t, m.tangents)
				return
			}
			require.Len(t, m.normals, 4)
			assert.InDelta(t, tc.want.Y, m.normals[0].Y, eps)
			assert.InDelta(t, tc.want.Z, m.normals[0].Z, eps)
		})
	}
}

func TestImportMesh_SwapHandedness(t *testing.T) {
	m := importMesh(unitQuad, abc.NodeMesh, abc.DefaultImportOptions())

	assert.Equal(t, math.Vec3{X: -1}, m.points[1])
	require.Len(t, m.normals, 4)
	require.Len(t, m.tangents, 4)
	for i := range m.points {
		assert.InDelta(t, 1, m.normals[i].Z, eps, "normal %d", i)
		assert.InDelta(t, -1, m.tangents[i].X, eps, "tangent %d", i)
		assert.Equal(t, float32(-1), m.tangents[i].W, "tangent %d", i)
	}
}

func TestImportMesh_SwapHandednessReadMatchesComputed(t *testing.T) {
	withNormals := unitQuad
	withNormals.Normals = [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}

	opts := abc.DefaultImportOptions()
	read := importMesh(withNormals, abc.NodeMesh, opts)
	computed := importMesh(unitQuad, abc.NodeMesh, opts)

	require.Len(t, read.normals, 4)
	require.Len(t, computed.normals, 4)
	for i := range read.normals {
		assert.InDelta(t, read.normals[i].X, computed.normals[i].X, eps, "normal %d", i)
		assert.InDelta(t, read.normals[i].Y, computed.normals[i].Y, eps, "normal %d", i)
		assert.InDelta(t, read.normals[i].Z, computed.normals[i].Z, eps, "normal %d", i)
		assert.InDelta(t, read.tangents[i].X, computed.tangents[i].X, eps, "tangent %d", i)
		assert.Equal(t, read.tangents[i].W, computed.tangents[i].W, "tangent %d", i)
	}
}

func TestImportMesh_Points(t *testing.T) {
	key := MeshKey{Points: [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}}
	m := importMesh(key, abc.NodePoints, plainOptions())

	require.Len(t, m.submeshes, 1)
	assert.Equal(t, nvc.TopologyPoints, m.submeshes[0].topology)
	assert.Equal(t, []int32{0, 1, 2}, m.submeshes[0].indices)
	assert.Nil(t, m.normals)
}

func TestBuildSubmeshes(t *testing.T) {
	faces := [][]int32{{0}, {0, 1}, {0, 1, 2}, {0, 1, 2, 3}, {0, 1, 2, 3, 4}}

	subs := buildSubmeshes(faces, plainOptions())
	require.Len(t, subs, 4)
	assert.Equal(t, submesh{nvc.TopologyPoints, []int32{0}}, subs[0])
	assert.Equal(t, submesh{nvc.TopologyLines, []int32{0, 1}}, subs[1])
	assert.Equal(t, submesh{nvc.TopologyTriangles, []int32{0, 1, 2, 0, 1, 2, 0, 2, 3, 0, 3, 4}}, subs[2])
	assert.Equal(t, submesh{nvc.TopologyQuads, []int32{0, 1, 2, 3}}, subs[3])
}

func TestBuildSubmeshes_Options(t *testing.T) {
	faces := [][]int32{{0}, {0, 1}, {0, 1, 2}, {0, 1, 2, 3}}

	opts := plainOptions()
	opts.ImportPointPolygon = false
	opts.ImportLinePolygon = false
	opts.SwapFaceWinding = true
	opts.TurnQuadEdges = true

	subs := buildSubmeshes(faces, opts)
	require.Len(t, subs, 1)
	assert.Equal(t, nvc.TopologyTriangles, subs[0].topology)
	assert.Equal(t, []int32{2, 1, 0, 2, 1, 0, 2, 0, 3}, subs[0].indices)
}

func TestImportScene_SortsSamples(t *testing.T) {
	s, err := Parse([]byte(`
nodes:
  - name: a
    type: xform
    xform:
      - {time: 2, translation: [2, 0, 0]}
      - {time: 1, translation: [1, 0, 0]}
`))
	require.NoError(t, err)

	nodes, err := importScene(s, plainOptions())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, float32(1), nodes[0].xforms[0].Time)
	assert.Equal(t, 2, nodes[0].sampleCount())
}
