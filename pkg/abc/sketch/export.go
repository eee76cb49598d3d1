package sketch

import (
	"slices"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/math"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

// gatherer merges the geometry nodes of an imported scene into cache
// frames, one mesh per node.
type gatherer struct {
	nodes       []*node
	interpolate bool
	descs       nvc.Descs
}

func newGatherer(nodes []*node, opts abc.ImportOptions) *gatherer {
	g := &gatherer{interpolate: opts.InterpolateSamples}

	var normals, tangents, uvs bool
	for _, n := range nodes {
		if n.typ != abc.NodeMesh && !(n.typ == abc.NodePoints && opts.ImportPoints) {
			continue
		}
		if len(n.meshes) == 0 {
			continue
		}
		g.nodes = append(g.nodes, n)
		for _, m := range n.meshes {
			normals = normals || m.normals != nil
			tangents = tangents || m.tangents != nil
			uvs = uvs || m.uv0 != nil
		}
	}

	g.descs = nvc.Descs{{Semantic: nvc.SemanticPoints, Format: nvc.FormatFloat3}}
	if normals {
		g.descs = append(g.descs, nvc.Desc{Semantic: nvc.SemanticNormals, Format: nvc.FormatFloat3})
	}
	if tangents {
		g.descs = append(g.descs, nvc.Desc{Semantic: nvc.SemanticTangents, Format: nvc.FormatFloat4})
	}
	if uvs {
		g.descs = append(g.descs, nvc.Desc{Semantic: nvc.SemanticUV0, Format: nvc.FormatFloat2})
	}
	g.descs = append(g.descs, nvc.Desc{Semantic: nvc.SemanticMeshID, Format: nvc.FormatInt})
	return g
}

// times returns every distinct sample time of the gathered nodes.
func (g *gatherer) times() []float32 {
	var ts []float32
	for _, n := range g.nodes {
		for _, m := range n.meshes {
			ts = append(ts, m.time)
		}
	}
	slices.Sort(ts)
	return slices.Compact(ts)
}

// cache gathers every sample time into an input cache whose constants
// are the mesh node paths.
func (g *gatherer) cache() (*nvc.InputCache, error) {
	if len(g.nodes) == 0 {
		return nil, ErrNoGeometry
	}

	paths := make(nvc.ConstantData, len(g.nodes))
	for i, n := range g.nodes {
		paths[i] = n.path
	}
	c, err := nvc.NewInputCache(g.descs, paths)
	if err != nil {
		return nil, err
	}
	for _, t := range g.times() {
		if _, err := c.Add(t, g.frame(t)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// frame merges every node's sample at t.
func (g *gatherer) frame(t float32) nvc.Frame {
	var (
		f        nvc.Frame
		points   []math.Vec3
		normals  []math.Vec3
		tangents []math.Vec4
		uvs      []math.Vec2
		meshIDs  []int32
	)

	for id, n := range g.nodes {
		s := n.sampleAt(t, g.interpolate)
		base := uint32(len(points))

		f.Meshes = append(f.Meshes, nvc.Mesh{
			SubmeshOffset: uint32(len(f.Submeshes)),
			SubmeshCount:  uint32(len(s.submeshes)),
			VertexOffset:  base,
			VertexCount:   uint32(len(s.points)),
		})
		for _, sm := range s.submeshes {
			f.Submeshes = append(f.Submeshes, nvc.Submesh{
				IndexOffset: uint32(len(f.Indices)),
				IndexCount:  uint32(len(sm.indices)),
				Topology:    sm.topology,
			})
			for _, idx := range sm.indices {
				f.Indices = append(f.Indices, idx+int32(base))
			}
		}

		count := len(s.points)
		points = append(points, s.points...)
		normals = appendOrZero(normals, s.normals, count)
		tangents = appendOrZero(tangents, s.tangents, count)
		uvs = appendOrZero(uvs, s.uv0, count)
		for range count {
			meshIDs = append(meshIDs, int32(id))
		}
	}

	f.VertexCount = len(points)
	for _, d := range g.descs {
		var stream []byte
		switch d.Semantic {
		case nvc.SemanticPoints:
			stream = nvc.EncodeVec3s(points)
		case nvc.SemanticNormals:
			stream = nvc.EncodeVec3s(normals)
		case nvc.SemanticTangents:
			stream = nvc.EncodeVec4s(tangents)
		case nvc.SemanticUV0:
			stream = nvc.EncodeVec2s(uvs)
		case nvc.SemanticMeshID:
			stream = nvc.EncodeInt32s(meshIDs)
		}
		f.Attributes = append(f.Attributes, stream)
	}
	return f
}

func appendOrZero[T any](dst, src []T, n int) []T {
	if src != nil {
		return append(dst, src...)
	}
	return append(dst, make([]T, n)...)
}

// sampleAt returns the latest sample at or before t, or the first sample
// when t precedes them all. With interpolate set, point and normal
// positions are blended towards the next sample when both samples share
// a vertex count.
func (n *node) sampleAt(t float32, interpolate bool) meshSample {
	i, found := slices.BinarySearchFunc(n.meshes, t, func(m meshSample, t float32) int {
		switch {
		case m.time < t:
			return -1
		case m.time > t:
			return 1
		default:
			return 0
		}
	})
	switch {
	case found:
		return n.meshes[i]
	case i == 0:
		return n.meshes[0]
	case i == len(n.meshes) || !interpolate:
		return n.meshes[i-1]
	}

	a, b := n.meshes[i-1], n.meshes[i]
	if len(a.points) != len(b.points) {
		return a
	}
	w := (t - a.time) / (b.time - a.time)
	out := a
	out.points = make([]math.Vec3, len(a.points))
	for j := range a.points {
		out.points[j] = a.points[j].Lerp(b.points[j], w)
	}
	if a.normals != nil && b.normals != nil {
		out.normals = make([]math.Vec3, len(a.normals))
		for j := range a.normals {
			out.normals[j] = a.normals[j].Lerp(b.normals[j], w).Normalize()
		}
	}
	if len(a.tangents) == len(b.tangents) && a.tangents != nil {
		out.tangents = make([]math.Vec4, len(a.tangents))
		for j := range a.tangents {
			xyz := a.tangents[j].Lerp(b.tangents[j], w).XYZ().Normalize()
			out.tangents[j] = math.Vec4{X: xyz.X, Y: xyz.Y, Z: xyz.Z, W: a.tangents[j].W}
		}
	}
	if len(a.uv0) == len(b.uv0) && a.uv0 != nil {
		out.uv0 = make([]math.Vec2, len(a.uv0))
		for j := range a.uv0 {
			out.uv0[j] = a.uv0[j].Lerp(b.uv0[j], w)
		}
	}
	return out
}
