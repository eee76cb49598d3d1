package sketch

import (
	"cmp"
	"slices"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/math"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

// node is a scene node after import options have been applied.
type node struct {
	name    string
	path    string
	typ     abc.NodeType
	xforms  []abc.XformSample
	cameras []abc.CameraSample
	meshes  []meshSample
}

func (n *node) sampleCount() int {
	switch n.typ {
	case abc.NodeXform:
		return len(n.xforms)
	case abc.NodeCamera:
		return len(n.cameras)
	case abc.NodeMesh, abc.NodePoints:
		return len(n.meshes)
	default:
		return 0
	}
}

type submesh struct {
	topology nvc.Topology
	indices  []int32
}

// meshSample is one imported mesh sample. Optional streams are nil when
// absent.
type meshSample struct {
	time      float32
	points    []math.Vec3
	normals   []math.Vec3
	tangents  []math.Vec4
	uv0       []math.Vec2
	submeshes []submesh
}

// importScene applies opts to every node of s.
func importScene(s *Scene, opts abc.ImportOptions) ([]*node, error) {
	paths, err := s.Paths()
	if err != nil {
		return nil, err
	}

	nodes := make([]*node, len(s.Nodes))
	for i, ns := range s.Nodes {
		typ, err := ParseNodeType(ns.Type)
		if err != nil {
			return nil, err
		}
		n := &node{name: ns.Name, path: paths[i], typ: typ}

		switch typ {
		case abc.NodeXform:
			for _, k := range ns.Xform {
				n.xforms = append(n.xforms, importXform(k, opts))
			}
			slices.SortStableFunc(n.xforms, func(a, b abc.XformSample) int { return cmp.Compare(a.Time, b.Time) })
		case abc.NodeCamera:
			for _, k := range ns.Camera {
				n.cameras = append(n.cameras, importCamera(k, opts))
			}
			slices.SortStableFunc(n.cameras, func(a, b abc.CameraSample) int { return cmp.Compare(a.Time, b.Time) })
		case abc.NodeMesh, abc.NodePoints:
			for _, k := range ns.Mesh {
				n.meshes = append(n.meshes, importMesh(k, typ, opts))
			}
			slices.SortStableFunc(n.meshes, func(a, b meshSample) int { return cmp.Compare(a.time, b.time) })
		}
		nodes[i] = n
	}
	return nodes, nil
}

func importXform(k XformKey, opts abc.ImportOptions) abc.XformSample {
	s := abc.XformSample{
		Time:        k.Time,
		Visible:     !k.Hidden,
		Translation: vec3(k.Translation).Scale(opts.ScaleFactor),
		Rotation:    math.QuatIdentity(),
		Scale:       math.Vec3One(),
	}
	if k.Rotation != nil {
		r := *k.Rotation
		s.Rotation = math.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]}.Normalize()
	}
	if k.Scale != nil {
		s.Scale = vec3(*k.Scale)
	}
	if opts.SwapHandedness {
		s.Translation = s.Translation.FlipX()
		s.Rotation = s.Rotation.FlipHandedness()
	}
	return s
}

func importCamera(k CameraKey, opts abc.ImportOptions) abc.CameraSample {
	s := abc.CameraSample{
		Time:              k.Time,
		Visible:           !k.Hidden,
		NearClippingPlane: k.Near * opts.ScaleFactor,
		FarClippingPlane:  k.Far * opts.ScaleFactor,
		FieldOfView:       k.FieldOfView,
		AspectRatio:       k.AspectRatio,
		FocusDistance:     k.FocusDistance * opts.ScaleFactor,
		FocalLength:       k.FocalLength,
		Aperture:          k.Aperture,
	}
	if opts.AspectRatio > 0 {
		s.AspectRatio = opts.AspectRatio
	}
	return s
}

// importMesh builds every stream in source space and converts
// handedness last, so read and computed normals agree.
func importMesh(k MeshKey, typ abc.NodeType, opts abc.ImportOptions) meshSample {
	m := meshSample{time: k.Time, points: make([]math.Vec3, len(k.Points))}
	for i, p := range k.Points {
		m.points[i] = vec3(p).Scale(opts.ScaleFactor)
	}
	if len(k.UV0) > 0 {
		m.uv0 = make([]math.Vec2, len(k.UV0))
		for i, uv := range k.UV0 {
			m.uv0[i] = math.Vec2{X: uv[0], Y: uv[1]}
		}
	}

	if typ == abc.NodePoints || len(k.Faces) == 0 {
		all := make([]int32, len(m.points))
		for i := range all {
			all[i] = int32(i)
		}
		if len(all) > 0 {
			m.submeshes = []submesh{{topology: nvc.TopologyPoints, indices: all}}
		}
	} else {
		m.submeshes = buildSubmeshes(k.Faces, opts)
	}

	// point clouds have no surface to derive normals from
	surface := typ == abc.NodeMesh
	switch opts.NormalsMode {
	case abc.NormalsReadFromFile, abc.NormalsComputeIfMissing:
		if len(k.Normals) > 0 {
			m.normals = make([]math.Vec3, len(k.Normals))
			for i, n := range k.Normals {
				m.normals[i] = vec3(n)
			}
		} else if opts.NormalsMode == abc.NormalsComputeIfMissing && surface {
			m.normals = computeNormals(m.points, m.submeshes)
		}
	case abc.NormalsAlwaysCompute:
		if surface {
			m.normals = computeNormals(m.points, m.submeshes)
		}
	}

	if opts.TangentsMode == abc.TangentsCompute && m.normals != nil && m.uv0 != nil {
		m.tangents = computeTangents(m.points, m.normals, m.uv0, m.submeshes)
	}

	if opts.SwapHandedness {
		m.swapHandedness()
	}
	return m
}

// swapHandedness mirrors every stream along X. A reflection reverses
// the bitangent sign of the tangent frame.
func (m *meshSample) swapHandedness() {
	for i := range m.points {
		m.points[i] = m.points[i].FlipX()
	}
	for i := range m.normals {
		m.normals[i] = m.normals[i].FlipX()
	}
	for i, t := range m.tangents {
		m.tangents[i] = math.Vec4{X: -t.X, Y: t.Y, Z: t.Z, W: -t.W}
	}
}

// buildSubmeshes groups faces by topology in points, lines, triangles,
// quads order. Disabled polygon kinds are dropped.
func buildSubmeshes(faces [][]int32, opts abc.ImportOptions) []submesh {
	groups := make(map[nvc.Topology][]int32)
	for _, face := range faces {
		face = slices.Clone(face)
		if opts.SwapFaceWinding {
			slices.Reverse(face)
		}
		switch n := len(face); {
		case n == 1 && opts.ImportPointPolygon:
			groups[nvc.TopologyPoints] = append(groups[nvc.TopologyPoints], face...)
		case n == 2 && opts.ImportLinePolygon:
			groups[nvc.TopologyLines] = append(groups[nvc.TopologyLines], face...)
		case n == 3 && opts.ImportTrianglePolygon:
			groups[nvc.TopologyTriangles] = append(groups[nvc.TopologyTriangles], face...)
		case n == 4 && opts.TurnQuadEdges && opts.ImportTrianglePolygon:
			groups[nvc.TopologyTriangles] = append(groups[nvc.TopologyTriangles],
				face[1], face[2], face[3], face[1], face[3], face[0])
		case n == 4:
			groups[nvc.TopologyQuads] = append(groups[nvc.TopologyQuads], face...)
		case n > 4 && opts.ImportTrianglePolygon:
			for _, tri := range fan(face) {
				groups[nvc.TopologyTriangles] = append(groups[nvc.TopologyTriangles], tri[:]...)
			}
		}
	}

	var out []submesh
	for _, t := range []nvc.Topology{nvc.TopologyPoints, nvc.TopologyLines, nvc.TopologyTriangles, nvc.TopologyQuads} {
		if idx := groups[t]; len(idx) > 0 {
			out = append(out, submesh{topology: t, indices: idx})
		}
	}
	return out
}

func fan(face []int32) [][3]int32 {
	var tris [][3]int32
	for i := 2; i < len(face); i++ {
		tris = append(tris, [3]int32{face[0], face[i-1], face[i]})
	}
	return tris
}

// triangles lists every triangle of the surface submeshes, splitting
// quads along their first diagonal.
func triangles(subs []submesh) [][3]int32 {
	var tris [][3]int32
	for _, s := range subs {
		switch s.topology {
		case nvc.TopologyTriangles:
			for i := 0; i+2 < len(s.indices); i += 3 {
				tris = append(tris, [3]int32(s.indices[i:i+3]))
			}
		case nvc.TopologyQuads:
			for i := 0; i+3 < len(s.indices); i += 4 {
				tris = append(tris, fan(s.indices[i:i+4])...)
			}
		}
	}
	return tris
}

// computeNormals returns area weighted vertex normals. Vertices on no
// triangle get a zero normal.
func computeNormals(points []math.Vec3, subs []submesh) []math.Vec3 {
	normals := make([]math.Vec3, len(points))
	for _, t := range triangles(subs) {
		p0, p1, p2 := points[t[0]], points[t[1]], points[t[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, i := range t {
			normals[i] = normals[i].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	return normals
}

// computeTangents derives per vertex tangents from uv0. W carries the
// bitangent sign.
func computeTangents(points, normals []math.Vec3, uv []math.Vec2, subs []submesh) []math.Vec4 {
	tan := make([]math.Vec3, len(points))
	bit := make([]math.Vec3, len(points))
	for _, t := range triangles(subs) {
		e1 := points[t[1]].Sub(points[t[0]])
		e2 := points[t[2]].Sub(points[t[0]])
		d1 := uv[t[1]].Sub(uv[t[0]])
		d2 := uv[t[2]].Sub(uv[t[0]])

		r := d1.X*d2.Y - d2.X*d1.Y
		if r == 0 {
			continue
		}
		sdir := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(1 / r)
		tdir := e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(1 / r)
		for _, i := range t {
			tan[i] = tan[i].Add(sdir)
			bit[i] = bit[i].Add(tdir)
		}
	}

	out := make([]math.Vec4, len(points))
	for i, n := range normals {
		t := tan[i].Sub(n.Scale(n.Dot(tan[i]))).Normalize()
		if t == (math.Vec3{}) {
			t = math.Vec3{X: 1}
		}
		w := float32(1)
		if n.Cross(t).Dot(bit[i]) < 0 {
			w = -1
		}
		out[i] = math.Vec4{X: t.X, Y: t.Y, Z: t.Z, W: w}
	}
	return out
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
