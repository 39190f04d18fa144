package deepsize

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultMaxDepth bounds traversal recursion when no explicit limit is set.
// The visited-identity set, not this bound, is what terminates ownership
// cycles; the bound is a last-resort guard against pathological nesting, so
// it is deliberately generous.
const DefaultMaxDepth = 1 << 16

// Identity names one heap allocation for double-count tracking: the address
// of the block and, for views into variably sized backing stores (slice
// backing arrays, string data), the byte span of the view. Span is 0 for
// single-value pointers and map handles, whose extent is implied by the
// address alone.
type Identity struct {
	Addr uintptr
	Span uintptr
}

// Context carries the mutable state of one traversal: the set of allocation
// identities already counted and the recursion depth. It belongs to exactly
// one top-level measurement. It is created there, threaded through the whole
// call tree, and discarded when the call returns; a Context that has already
// measured sees every prior allocation as visited and under-counts, which is
// why Scan refuses to run twice on one Context.
//
// A Context is not safe for concurrent use. Concurrent measurements each
// take their own Context and may legitimately count the same shared
// allocation once per traversal.
type Context struct {
	seen      mapset.Set[Identity]
	depth     int
	maxDepth  int
	rounding  bool
	truncated bool
	used      bool
	tally     *tally
}

// NewContext returns an empty Context with default settings.
func NewContext() *Context {
	return &Context{
		seen:     mapset.NewThreadUnsafeSet[Identity](),
		maxDepth: DefaultMaxDepth,
	}
}

// WithMaxDepth sets the recursion bound and returns the Context for
// chaining. Values below 1 are ignored.
func (c *Context) WithMaxDepth(n int) *Context {
	if n >= 1 {
		c.maxDepth = n
	}
	return c
}

// WithAllocRounding makes every heap contribution round up to the size
// class the runtime allocator actually reserves (see AllocSize), reporting
// allocator footprint instead of requested bytes.
func (c *Context) WithAllocRounding() *Context {
	c.rounding = true
	return c
}

// TryMark records id as counted. It returns true the first time an identity
// is seen in this traversal and false on every later attempt; the caller
// contributes the allocation's bytes only on true. This is the sole
// primitive that prevents double counting and breaks ownership cycles.
func (c *Context) TryMark(id Identity) bool {
	return c.seen.Add(id)
}

// Visited returns the number of allocation identities counted so far.
func (c *Context) Visited() int {
	return c.seen.Cardinality()
}

// Truncated reports whether the depth guard fired, meaning the figure is a
// partial under-count of a pathologically deep value rather than a failure.
func (c *Context) Truncated() bool {
	return c.truncated
}

// descend reserves one level of recursion. When the bound is exhausted it
// latches the truncated state and the caller contributes 0 further.
func (c *Context) descend() bool {
	if c.depth >= c.maxDepth {
		c.truncated = true
		return false
	}
	c.depth++
	return true
}

func (c *Context) ascend() { c.depth-- }

// alloc converts a requested heap byte count into its accounted
// contribution, applying size-class rounding when enabled.
func (c *Context) alloc(n uintptr) uintptr {
	if c.rounding && n != 0 {
		return AllocSize(n)
	}
	return n
}

// Of returns the total footprint of v using this Context's settings:
//
//	n := deepsize.NewContext().WithMaxDepth(128).Of(v)
//
// The Context must be fresh; see the type comment.
func (c *Context) Of(v any) uintptr {
	if v == nil {
		return 0
	}
	c.used = true
	t := reflect.TypeOf(v)
	c.record(t, t.Size(), 1)
	return t.Size() + children(reflect.ValueOf(v), c)
}
