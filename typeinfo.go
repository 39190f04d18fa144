package deepsize

import (
	"reflect"
	"strconv"

	"github.com/puzpuzpuz/xsync/v3"
)

// TagName is the struct tag consulted for per-field directives: "-" declares
// a field contribution-free, an unsigned integer declares a fixed
// children-size in bytes for fields the walker cannot introspect.
//
//	type Conn struct {
//		handle unsafe.Pointer `deepsize:"4096"`
//		debug  *Tracer        `deepsize:"-"`
//	}
const TagName = "deepsize"

// walkCache memoizes, per type, whether traversal can find anything worth
// visiting below a value of that type. Containers of such types are sized
// without visiting elements.
var walkCache = xsync.NewMapOf[reflect.Type, bool]()

// planCache memoizes per-struct traversal plans, so field tags are parsed
// once per type rather than once per value.
var planCache = xsync.NewMapOf[reflect.Type, *structPlan]()

// needsWalk reports whether a value of type t can contribute anything
// beyond its inline bytes: it may own heap memory, implement Sizer, or be
// an opaque kind worth surfacing in reports. Scalars and aggregates of
// scalars return false, and whole containers of them are skipped during
// traversal.
func needsWalk(t reflect.Type) bool {
	if r, ok := walkCache.Load(t); ok {
		return r
	}
	r := computeNeedsWalk(t)
	walkCache.Store(t, r)
	return r
}

func computeNeedsWalk(t reflect.Type) bool {
	if t.Implements(sizerType) || reflect.PointerTo(t).Implements(sizerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.String, reflect.Slice, reflect.Map, reflect.Interface,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	case reflect.Array:
		return needsWalk(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if _, ok := f.Tag.Lookup(TagName); ok {
				// A tagged field carries a directive the plan must apply.
				return true
			}
			if needsWalk(f.Type) {
				return true
			}
		}
	}
	return false
}

type fieldPlan struct {
	index int
	fixed bool
	cost  uintptr
}

type structPlan struct {
	fields []fieldPlan
}

// planFor returns the traversal plan for struct type t, building and
// caching it on first use. Skipped fields and fields that cannot contribute
// are dropped here, and fixed-cost tags are resolved to their byte value.
func planFor(t reflect.Type) *structPlan {
	if p, ok := planCache.Load(t); ok {
		return p
	}
	p := &structPlan{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if tag, ok := f.Tag.Lookup(TagName); ok {
			if tag == "-" {
				continue
			}
			if cost, err := strconv.ParseUint(tag, 10, 64); err == nil {
				p.fields = append(p.fields, fieldPlan{index: i, fixed: true, cost: uintptr(cost)})
				continue
			}
			// Malformed directives are ignored, not treated as skips: the
			// field stays visible to traversal and reports.
		}
		if !needsWalk(f.Type) {
			continue
		}
		p.fields = append(p.fields, fieldPlan{index: i})
	}
	planCache.Store(t, p)
	return p
}
