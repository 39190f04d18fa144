package deepsize

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// tally accumulates per-type attribution while a Scan traversal runs.
type tally struct {
	types  map[reflect.Type]*TypeSize
	opaque map[string]struct{}
}

// record attributes n bytes carried by allocs allocation events to type t.
// Outside Scan traversals there is no tally and recording is a no-op.
func (c *Context) record(t reflect.Type, n uintptr, allocs int) {
	if c.tally == nil || n == 0 {
		return
	}
	ts := c.tally.types[t]
	if ts == nil {
		ts = &TypeSize{Type: t.String()}
		c.tally.types[t] = ts
	}
	ts.Bytes += n
	ts.Count += allocs
}

// opaque surfaces a type the traversal cannot see behind.
func (c *Context) opaque(t reflect.Type) {
	if c.tally == nil {
		return
	}
	if c.tally.opaque == nil {
		c.tally.opaque = make(map[string]struct{})
	}
	c.tally.opaque[t.String()] = struct{}{}
}

// TypeSize is one row of a report: the bytes attributed to a type's
// allocations and how many allocations carried them.
type TypeSize struct {
	Type  string
	Count int
	Bytes uintptr
}

// Sizes is the result of a Scan: the total footprint broken down by type,
// the opaque types encountered along the way (channels, funcs, raw
// pointers, each contributing 0 unless a cost was declared for them), and
// whether the depth guard truncated the traversal, making Total a partial
// under-count.
//
// Rows cover the allocations the traversal itself counted. Bytes declared
// by fixed-cost tags or returned by a custom SizeChildren without routing
// through the Context are in Total but carry no allocation identity, so
// they have no row.
type Sizes struct {
	Total     uintptr
	Truncated bool
	Types     []TypeSize
	Opaque    []string
}

// Scan measures v the same way Of does and additionally attributes every
// counted allocation to its type, answering "what is this value's footprint
// made of". It is the diagnostic entry point; use Of when only the figure
// is needed.
func Scan(v any) (*Sizes, error) {
	return NewContext().Scan(v)
}

// Scan measures v on this Context with attribution enabled.
func (c *Context) Scan(v any) (*Sizes, error) {
	if v == nil {
		return nil, ErrNilRoot
	}
	if c.used {
		return nil, ErrContextUsed
	}
	c.tally = &tally{types: make(map[reflect.Type]*TypeSize)}
	total := c.Of(v)
	s := &Sizes{Total: total, Truncated: c.truncated}
	for _, ts := range c.tally.types {
		s.Types = append(s.Types, *ts)
	}
	sort.Slice(s.Types, func(i, j int) bool {
		if s.Types[i].Bytes != s.Types[j].Bytes {
			return s.Types[i].Bytes > s.Types[j].Bytes
		}
		return s.Types[i].Type < s.Types[j].Type
	})
	for name := range c.tally.opaque {
		s.Opaque = append(s.Opaque, name)
	}
	sort.Strings(s.Opaque)
	return s, nil
}

// String renders the report with binary-prefixed figures, heaviest type
// first.
func (s *Sizes) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s total", humanize.IBytes(uint64(s.Total)))
	if s.Truncated {
		b.WriteString(" (truncated)")
	}
	for _, ts := range s.Types {
		fmt.Fprintf(&b, "\n%10s  %s (%d)", humanize.IBytes(uint64(ts.Bytes)), ts.Type, ts.Count)
	}
	if len(s.Opaque) > 0 {
		fmt.Fprintf(&b, "\nopaque: %s", strings.Join(s.Opaque, ", "))
	}
	return b.String()
}

// Human returns the footprint of v as a binary-prefixed figure, sized for
// log lines.
func Human(v any) string {
	return humanize.IBytes(uint64(Of(v)))
}
