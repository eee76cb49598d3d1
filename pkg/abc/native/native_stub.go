//go:build !cgo || !nvcabc

package native

import "github.com/Faultbox/vertexcache/pkg/abc"

// Available reports whether the native importer is linked in.
func Available() error { return ErrNotBuilt }

// Backend stands in for the native importer in builds without it. Create
// always returns the invalid handle, so abc.NewContext fails with
// abc.ErrInvalidHandle.
type Backend struct{}

// New returns the stub Backend.
func New() *Backend {
	return &Backend{}
}

func (*Backend) Create() abc.Handle                                    { return 0 }
func (*Backend) Release(abc.Handle)                                    {}
func (*Backend) Open(abc.Handle, string, *abc.ImportOptions) bool      { return false }
func (*Backend) ExportNVC(abc.Handle, string, *abc.ExportOptions) bool { return false }
func (*Backend) NodeCount(abc.Handle) int                              { return 0 }
func (*Backend) NodeName(abc.Handle, int) string                       { return "" }
func (*Backend) NodePath(abc.Handle, int) string                       { return "" }
func (*Backend) NodeType(abc.Handle, int) abc.NodeType                 { return abc.NodeUnknown }
func (*Backend) SampleCount(abc.Handle, int) int                       { return 0 }
func (*Backend) FillXformSamples(abc.Handle, int, []abc.XformSample) bool {
	return false
}
func (*Backend) FillCameraSamples(abc.Handle, int, []abc.CameraSample) bool {
	return false
}
