//go:build cgo && nvcabc

package native

/*
#cgo LDFLAGS: -lAlembicToGeomCache
#include <stdlib.h>
#include "nvcabc.h"
*/
import "C"

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/math"
)

// Available reports whether the native importer is linked in.
func Available() error { return nil }

// Backend calls the native importer. Handles given out are registry ids,
// never native pointers, so a released or forged Handle cannot reach the
// library.
type Backend struct {
	next     atomic.Uintptr
	contexts sync.Map // abc.Handle -> *C.nvcabcContext
}

// New returns a Backend bound to the native importer.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) lookup(h abc.Handle) (*C.nvcabcContext, bool) {
	v, ok := b.contexts.Load(h)
	if !ok {
		return nil, false
	}
	return v.(*C.nvcabcContext), true
}

func (b *Backend) Create() abc.Handle {
	ctx := C.nvcabcCreateContext()
	if ctx == nil {
		return 0
	}
	h := abc.Handle(b.next.Add(1))
	b.contexts.Store(h, ctx)
	return h
}

func (b *Backend) Release(h abc.Handle) {
	if v, ok := b.contexts.LoadAndDelete(h); ok {
		C.nvcabcReleaseContext(v.(*C.nvcabcContext))
	}
}

func (b *Backend) Open(h abc.Handle, path string, opts *abc.ImportOptions) bool {
	ctx, ok := b.lookup(h)
	if !ok {
		return false
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	copts := importOptions(opts)
	return bool(C.nvcabcOpen(ctx, cpath, &copts))
}

func (b *Backend) ExportNVC(h abc.Handle, path string, opts *abc.ExportOptions) bool {
	ctx, ok := b.lookup(h)
	if !ok {
		return false
	}
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	copts := C.nvcabcExportOptions{
		compression_type: C.int32_t(opts.Compression),
		block_size:       C.int32_t(opts.BlockSize),
	}
	return bool(C.nvcabcExportNVC(ctx, cpath, &copts))
}

func (b *Backend) NodeCount(h abc.Handle) int {
	ctx, ok := b.lookup(h)
	if !ok {
		return 0
	}
	return int(C.nvcabcGetNodeCount(ctx))
}

func (b *Backend) NodeName(h abc.Handle, i int) string {
	ctx, ok := b.lookup(h)
	if !ok {
		return ""
	}
	return goString(C.nvcabcGetNodeName(ctx, C.int(i)))
}

func (b *Backend) NodePath(h abc.Handle, i int) string {
	ctx, ok := b.lookup(h)
	if !ok {
		return ""
	}
	return goString(C.nvcabcGetNodePath(ctx, C.int(i)))
}

func (b *Backend) NodeType(h abc.Handle, i int) abc.NodeType {
	ctx, ok := b.lookup(h)
	if !ok {
		return abc.NodeUnknown
	}
	return abc.NodeType(C.nvcabcGetNodeType(ctx, C.int(i)))
}

func (b *Backend) SampleCount(h abc.Handle, i int) int {
	ctx, ok := b.lookup(h)
	if !ok {
		return 0
	}
	return int(C.nvcabcGetSampleCount(ctx, C.int(i)))
}

func (b *Backend) FillXformSamples(h abc.Handle, i int, dst []abc.XformSample) bool {
	ctx, ok := b.lookup(h)
	if !ok {
		return false
	}
	buf := make([]C.nvcabcXformData, len(dst))
	var p *C.nvcabcXformData
	if len(buf) > 0 {
		p = &buf[0]
	}
	if !bool(C.nvcabcFillXformSamples(ctx, C.int(i), p)) {
		return false
	}
	for j, s := range buf {
		dst[j] = abc.XformSample{
			Time:        float32(s.time),
			Visible:     s.visibility != 0,
			Translation: vec3(s.translation),
			Rotation: math.Quat{
				X: float32(s.rotation[0]),
				Y: float32(s.rotation[1]),
				Z: float32(s.rotation[2]),
				W: float32(s.rotation[3]),
			},
			Scale: vec3(s.scale),
		}
	}
	return true
}

func (b *Backend) FillCameraSamples(h abc.Handle, i int, dst []abc.CameraSample) bool {
	ctx, ok := b.lookup(h)
	if !ok {
		return false
	}
	buf := make([]C.nvcabcCameraData, len(dst))
	var p *C.nvcabcCameraData
	if len(buf) > 0 {
		p = &buf[0]
	}
	if !bool(C.nvcabcFillCameraSamples(ctx, C.int(i), p)) {
		return false
	}
	for j, s := range buf {
		dst[j] = abc.CameraSample{
			Time:              float32(s.time),
			Visible:           s.visibility != 0,
			NearClippingPlane: float32(s.near_clipping_plane),
			FarClippingPlane:  float32(s.far_clipping_plane),
			FieldOfView:       float32(s.field_of_view),
			AspectRatio:       float32(s.aspect_ratio),
			FocusDistance:     float32(s.focus_distance),
			FocalLength:       float32(s.focal_length),
			Aperture:          float32(s.aperture),
		}
	}
	return true
}

func importOptions(o *abc.ImportOptions) C.nvcabcImportOptions {
	return C.nvcabcImportOptions{
		normals_mode:            C.int32_t(o.NormalsMode),
		tangents_mode:           C.int32_t(o.TangentsMode),
		scale_factor:            C.float(o.ScaleFactor),
		aspect_ratio:            C.float(o.AspectRatio),
		vertex_motion_scale:     C.float(o.VertexMotionScale),
		split_unit:              C.int32_t(o.SplitUnit),
		swap_handedness:         cbool(o.SwapHandedness),
		swap_face_winding:       cbool(o.SwapFaceWinding),
		interpolate_samples:     cbool(o.InterpolateSamples),
		turn_quad_edges:         cbool(o.TurnQuadEdges),
		multithreading:          cbool(o.Multithreading),
		import_point_polygon:    cbool(o.ImportPointPolygon),
		import_line_polygon:     cbool(o.ImportLinePolygon),
		import_triangle_polygon: cbool(o.ImportTrianglePolygon),
		import_points:           cbool(o.ImportPoints),
	}
}

func cbool(b bool) C.uint8_t {
	if b {
		return 1
	}
	return 0
}

func vec3(v [3]C.float) math.Vec3 {
	return math.Vec3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// goString copies a native string; the library owns the original.
func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}
