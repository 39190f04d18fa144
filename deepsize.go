// Package deepsize estimates the total memory footprint of a value: its own
// inline representation plus every heap allocation it transitively owns.
// Shared allocations are counted once per traversal and ownership cycles
// terminate, so the result is a safe input for memory accounting and
// footprint-bounded caches.
package deepsize

import "reflect"

// Sizer is the interface for types that report the heap memory they own.
// Implementing it overrides the built-in traversal rules for that type,
// which is how foreign handles, intrusive structures, or hot types with a
// cheaper hand-written rule plug into the accounting.
type Sizer interface {
	// SizeChildren returns the number of heap bytes transitively owned by
	// the value. It never includes the value's own inline bytes: those are
	// part of the holder's layout (or of the enclosing heap block) and are
	// counted there.
	//
	// Implementations must route every owned sub-value through Children (or
	// the typed helpers) with the same ctx, and must consult ctx.TryMark
	// before counting any allocation that could be shared. An implementation
	// on a pointer receiver describes the pointed-to value; the pointer cell
	// and the pointee block itself are accounted by the caller.
	SizeChildren(ctx *Context) uintptr
}

// sizerType is what the traversal matches against to find implementations.
var sizerType = reflect.TypeOf((*Sizer)(nil)).Elem()

// Of returns the total footprint of v in bytes: the inline size of its
// dynamic type plus all heap bytes it transitively owns. It cannot fail;
// Of(nil) is 0, and a value with no heap ownership reports exactly its
// inline size. Each call traverses with a fresh Context, so repeated calls
// on an unmodified value return the same figure.
//
// Pass a pointer to pick up Sizer implementations declared on pointer
// receivers, as with encoding/json marshalers. Of(&v) additionally counts
// the pointer cell and v's own block, since that is what the pointer owns.
func Of(v any) uintptr {
	return NewContext().Of(v)
}

// Children returns the heap bytes transitively owned by v, consulting and
// updating ctx. This is the accumulation primitive hand-written and
// generated Sizer implementations are built from: a product type sums
// Children over its fields, and an interface-based sum type contributes
// only its active variant (the built-in interface rule already does this).
//
// When v itself implements Sizer, that implementation is used; otherwise
// the built-in rules apply. Children of a nil value is 0.
func Children(v any, ctx *Context) uintptr {
	if v == nil {
		return 0
	}
	return children(reflect.ValueOf(v), ctx)
}
