package abc

import (
	"fmt"
	"sync"
)

// Context owns one import session of a Backend. Create it with
// NewContext and release it with Close on every exit path. Calls are
// serialised; use one Context per goroutine for parallel imports.
type Context struct {
	mu      sync.Mutex
	backend Backend
	handle  Handle
	opened  bool
}

// NewContext creates a session on backend.
func NewContext(backend Backend) (*Context, error) {
	h := backend.Create()
	if h == 0 {
		return nil, ErrInvalidHandle
	}
	return &Context{backend: backend, handle: h}, nil
}

// Close releases the session. The handle is released exactly once;
// later calls are no-ops.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == 0 {
		return nil
	}
	c.backend.Release(c.handle)
	c.handle = 0
	c.opened = false
	return nil
}

// Valid reports whether the context still owns a session.
func (c *Context) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != 0
}

// Open loads the scene at path. A failed Open leaves no scene loaded.
func (c *Context) Open(path string, opts ImportOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == 0 {
		return ErrClosed
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("import options: %w", err)
	}
	c.opened = c.backend.Open(c.handle, path, &opts)
	if !c.opened {
		return fmt.Errorf("%w: %s", ErrOpenFailed, path)
	}
	return nil
}

// ExportNVC writes the loaded scene's mesh animation to a geometry cache
// at path.
func (c *Context) ExportNVC(path string, opts ExportOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ready(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("export options: %w", err)
	}
	if !c.backend.ExportNVC(c.handle, path, &opts) {
		return fmt.Errorf("%w: %s", ErrExportFailed, path)
	}
	return nil
}

func (c *Context) ready() error {
	if c.handle == 0 {
		return ErrClosed
	}
	if !c.opened {
		return ErrNotOpen
	}
	return nil
}

// NodeCount returns the number of nodes in the loaded scene, or 0 when
// nothing is loaded.
func (c *Context) NodeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodeCount()
}

func (c *Context) nodeCount() int {
	if c.ready() != nil {
		return 0
	}
	return c.backend.NodeCount(c.handle)
}

// NodeName returns the name of node i, or "" when i is invalid.
func (c *Context) NodeName(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkIndex(i) != nil {
		return ""
	}
	return c.backend.NodeName(c.handle, i)
}

// NodePath returns the full hierarchy path of node i, or "" when i is
// invalid.
func (c *Context) NodePath(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkIndex(i) != nil {
		return ""
	}
	return c.backend.NodePath(c.handle, i)
}

// NodeType returns the kind of node i, or NodeUnknown when i is invalid.
func (c *Context) NodeType(i int) NodeType {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkIndex(i) != nil {
		return NodeUnknown
	}
	return c.nodeType(i)
}

func (c *Context) nodeType(i int) NodeType {
	t := c.backend.NodeType(c.handle, i)
	if !t.Valid() {
		return NodeUnknown
	}
	return t
}

// SampleCount returns the number of samples of node i, or 0 when i is
// invalid.
func (c *Context) SampleCount(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checkIndex(i) != nil {
		return 0
	}
	return max(c.backend.SampleCount(c.handle, i), 0)
}

// Node returns a summary of node i.
func (c *Context) Node(i int) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIndex(i); err != nil {
		return Node{}, err
	}
	return c.node(i), nil
}

func (c *Context) node(i int) Node {
	return Node{
		Index:       i,
		Name:        c.backend.NodeName(c.handle, i),
		Path:        c.backend.NodePath(c.handle, i),
		Type:        c.nodeType(i),
		SampleCount: max(c.backend.SampleCount(c.handle, i), 0),
	}
}

// Nodes returns a summary of every node in index order.
func (c *Context) Nodes() []Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.nodeCount()
	out := make([]Node, n)
	for i := range out {
		out[i] = c.node(i)
	}
	return out
}

func (c *Context) checkIndex(i int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if n := c.backend.NodeCount(c.handle); i < 0 || i >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrNodeIndex, i, n)
	}
	return nil
}

// checkFill validates a fill request and returns the node's sample count.
func (c *Context) checkFill(i int, want NodeType, have int) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	if t := c.nodeType(i); t != want {
		return 0, fmt.Errorf("%w: node %d is %s, not %s", ErrNodeType, i, t, want)
	}
	n := max(c.backend.SampleCount(c.handle, i), 0)
	if have < n {
		return 0, fmt.Errorf("%w: %d < %d", ErrBufferTooSmall, have, n)
	}
	return n, nil
}

// FillXformSamples writes the samples of transform node i into dst,
// which must hold at least SampleCount(i) elements. Elements past the
// sample count are left untouched.
func (c *Context) FillXformSamples(i int, dst []XformSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.checkFill(i, NodeXform, len(dst))
	if err != nil {
		return err
	}
	if !c.backend.FillXformSamples(c.handle, i, dst[:n]) {
		return fmt.Errorf("%w: xform node %d", ErrFillFailed, i)
	}
	return nil
}

// FillCameraSamples writes the samples of camera node i into dst, which
// must hold at least SampleCount(i) elements.
func (c *Context) FillCameraSamples(i int, dst []CameraSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.checkFill(i, NodeCamera, len(dst))
	if err != nil {
		return err
	}
	if !c.backend.FillCameraSamples(c.handle, i, dst[:n]) {
		return fmt.Errorf("%w: camera node %d", ErrFillFailed, i)
	}
	return nil
}

// XformSamples allocates and fills the samples of transform node i.
func (c *Context) XformSamples(i int) ([]XformSample, error) {
	dst := make([]XformSample, c.SampleCount(i))
	if err := c.FillXformSamples(i, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// CameraSamples allocates and fills the samples of camera node i.
func (c *Context) CameraSamples(i int) ([]CameraSample, error) {
	dst := make([]CameraSample, c.SampleCount(i))
	if err := c.FillCameraSamples(i, dst); err != nil {
		return nil, err
	}
	return dst, nil
}
