package deepsize

import "reflect"

// SizeOf returns the static inline size of T: the portion of a footprint
// that exists before any heap allocation.
func SizeOf[T any]() uintptr {
	return reflect.TypeOf((*T)(nil)).Elem().Size()
}

// OfOwned sizes a heap box that is exclusively owned by its holder: the
// pointee block plus the pointee's children, counted unconditionally.
// Exclusivity is the caller's claim. If the block can in fact be reached
// from more than one holder, use OfShared so the context can deduplicate.
func OfOwned[T any](p *T, ctx *Context) uintptr {
	if p == nil {
		return 0
	}
	rv := reflect.ValueOf(p)
	t := rv.Type().Elem()
	if t.Size() == 0 {
		return 0
	}
	// The claim is unconditional, but the identity is still marked so that a
	// shared reference to the same block later in the traversal does not
	// count it a second time.
	ctx.TryMark(Identity{Addr: rv.Pointer()})
	n := ctx.alloc(t.Size())
	ctx.record(t, n, 1)
	return n + children(rv.Elem(), ctx)
}

// OfShared sizes a heap box that may be reachable from several holders: the
// block is claimed through the context first and contributes nothing when
// another holder already counted it. This is the same rule the built-in
// traversal applies to every plain pointer.
func OfShared[T any](p *T, ctx *Context) uintptr {
	if p == nil {
		return 0
	}
	return children(reflect.ValueOf(p), ctx)
}

// Fields sums Children over a value's members. It is the call shape a
// hand-written product implementation takes:
//
//	func (u *User) SizeChildren(ctx *deepsize.Context) uintptr {
//		return deepsize.Fields(ctx, u.Name, u.Tags, deepsize.Opaque(0))
//	}
//
// Every member is either routed through the traversal or declared with an
// explicit Opaque cost; a member omitted from the call is a silent 0, which
// is exactly what the form exists to avoid.
func Fields(ctx *Context, members ...any) uintptr {
	var n uintptr
	for _, m := range members {
		n += Children(m, ctx)
	}
	return n
}

// Opaque is a declared, fixed children-size for members traversal cannot
// introspect (foreign handles, memory owned outside Go). Opaque(0) states
// "owns nothing" explicitly instead of implying it.
type Opaque uintptr

var _ Sizer = Opaque(0)

// SizeChildren returns the declared cost.
func (o Opaque) SizeChildren(*Context) uintptr { return uintptr(o) }
