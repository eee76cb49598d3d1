package sketch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

type session struct {
	opts  abc.ImportOptions
	nodes []*node // nil until a scene is open
}

// Backend serves scene sketches through the abc.Backend call surface.
// Failures are reported as false to the caller and logged with their
// cause.
type Backend struct {
	log *zap.Logger

	mu       sync.Mutex
	next     abc.Handle
	sessions map[abc.Handle]*session
}

// New returns a sketch Backend. A nil logger discards log output.
func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		log:      log.Named("sketch"),
		sessions: make(map[abc.Handle]*session),
	}
}

func (b *Backend) session(h abc.Handle) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[h]
}

func (b *Backend) node(h abc.Handle, i int) *node {
	s := b.session(h)
	if s == nil || i < 0 || i >= len(s.nodes) {
		return nil
	}
	return s.nodes[i]
}

func (b *Backend) Create() abc.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.sessions[b.next] = &session{}
	return b.next
}

func (b *Backend) Release(h abc.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, h)
}

func (b *Backend) Open(h abc.Handle, path string, opts *abc.ImportOptions) bool {
	s := b.session(h)
	if s == nil {
		return false
	}
	s.nodes = nil

	scene, err := Load(path)
	if err != nil {
		b.log.Warn("Failed to open sketch", zap.String("path", path), zap.Error(err))
		return false
	}
	nodes, err := importScene(scene, *opts)
	if err != nil {
		b.log.Warn("Failed to import sketch", zap.String("path", path), zap.Error(err))
		return false
	}

	s.opts = *opts
	s.nodes = nodes
	b.log.Debug("Opened sketch",
		zap.String("path", path),
		zap.String("scene", scene.Name),
		zap.Int("nodes", len(nodes)))
	return true
}

func (b *Backend) ExportNVC(h abc.Handle, path string, opts *abc.ExportOptions) bool {
	s := b.session(h)
	if s == nil || s.nodes == nil {
		return false
	}

	cache, err := newGatherer(s.nodes, s.opts).cache()
	if err != nil {
		b.log.Warn("Failed to gather frames", zap.String("path", path), zap.Error(err))
		return false
	}
	if err := nvc.WriteFile(path, cache, opts.Compression, int(opts.BlockSize)); err != nil {
		b.log.Warn("Failed to write cache", zap.String("path", path), zap.Error(err))
		return false
	}

	b.log.Debug("Exported cache",
		zap.String("path", path),
		zap.Int("frames", cache.Len()),
		zap.Stringer("compression", opts.Compression))
	return true
}

func (b *Backend) NodeCount(h abc.Handle) int {
	if s := b.session(h); s != nil {
		return len(s.nodes)
	}
	return 0
}

func (b *Backend) NodeName(h abc.Handle, i int) string {
	if n := b.node(h, i); n != nil {
		return n.name
	}
	return ""
}

func (b *Backend) NodePath(h abc.Handle, i int) string {
	if n := b.node(h, i); n != nil {
		return n.path
	}
	return ""
}

func (b *Backend) NodeType(h abc.Handle, i int) abc.NodeType {
	if n := b.node(h, i); n != nil {
		return n.typ
	}
	return abc.NodeUnknown
}

func (b *Backend) SampleCount(h abc.Handle, i int) int {
	if n := b.node(h, i); n != nil {
		return n.sampleCount()
	}
	return 0
}

func (b *Backend) FillXformSamples(h abc.Handle, i int, dst []abc.XformSample) bool {
	n := b.node(h, i)
	if n == nil || n.typ != abc.NodeXform || len(dst) < len(n.xforms) {
		return false
	}
	copy(dst, n.xforms)
	return true
}

func (b *Backend) FillCameraSamples(h abc.Handle, i int, dst []abc.CameraSample) bool {
	n := b.node(h, i)
	if n == nil || n.typ != abc.NodeCamera || len(dst) < len(n.cameras) {
		return false
	}
	copy(dst, n.cameras)
	return true
}
