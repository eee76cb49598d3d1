// Package native binds the AlembicToGeomCache importer through cgo.
//
// The binding is compiled only with cgo enabled and the nvcabc build tag,
// and links against the importer library:
//
//	CGO_LDFLAGS=-L/opt/nvcabc/lib go build -tags nvcabc ./...
//
// Without the tag New returns a Backend whose every call fails and
// Available returns ErrNotBuilt.
package native

import "errors"

// ErrNotBuilt reports that the binary was built without the native importer.
var ErrNotBuilt = errors.New("native importer not built (requires cgo and -tags nvcabc)")
