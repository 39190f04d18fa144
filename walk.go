package deepsize

import (
	"reflect"
	"unsafe"
)

// children applies the sizing rules to v: a custom Sizer implementation
// when one is reachable, the built-in kind rules otherwise.
func children(v reflect.Value, c *Context) uintptr {
	if !v.IsValid() {
		return 0
	}
	if !c.descend() {
		return 0
	}
	n := walk(v, c)
	c.ascend()
	return n
}

// walk dispatches on kind. The depth level is already reserved by children.
func walk(v reflect.Value, c *Context) uintptr {
	// Pointers and interfaces are not dispatched here: the pointee block or
	// box must be claimed and counted before any implementation on the held
	// value runs, and both rules below hand that value back to children,
	// which dispatches on it.
	if k := v.Kind(); k != reflect.Pointer && k != reflect.Interface {
		if s, ok := sizerOf(v); ok {
			return s.SizeChildren(c)
		}
	}

	switch v.Kind() {
	case reflect.Pointer:
		return pointerChildren(v, c)
	case reflect.String:
		return stringChildren(v, c)
	case reflect.Slice:
		return sliceChildren(v, c)
	case reflect.Array:
		return arrayChildren(v, c)
	case reflect.Map:
		return mapChildren(v, c)
	case reflect.Struct:
		return structChildren(v, c)
	case reflect.Interface:
		return interfaceChildren(v, c)
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		// Opaque handles: nothing to introspect behind them. They count 0
		// unless the holder declares a cost (struct tag or Opaque member),
		// and Scan surfaces them so the 0 is a visible decision.
		c.opaque(v.Type())
		return 0
	default:
		// Booleans, integers, floats, complex numbers: inline only.
		return 0
	}
}

// sizerOf returns v's Sizer implementation when one is reachable. Values
// held in unexported fields cannot be materialized as interfaces, so they
// fall back to the built-in rules.
func sizerOf(v reflect.Value) (Sizer, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	t := v.Type()
	if t.Implements(sizerType) {
		return v.Interface().(Sizer), true
	}
	if v.CanAddr() && reflect.PointerTo(t).Implements(sizerType) {
		return v.Addr().Interface().(Sizer), true
	}
	return nil, false
}

// pointerChildren counts the pointee block once per traversal, then the
// pointee's own children. Any Go pointer may be shared, so the block is
// always claimed through the context first.
func pointerChildren(v reflect.Value, c *Context) uintptr {
	if v.IsNil() {
		return 0
	}
	et := v.Type().Elem()
	if et.Size() == 0 {
		// Zero-size pointees all alias the runtime's zero base; there is no
		// allocation to count or to mark.
		return 0
	}
	if !c.TryMark(Identity{Addr: v.Pointer()}) {
		return 0
	}
	n := c.alloc(et.Size())
	c.record(et, n, 1)
	return n + children(v.Elem(), c)
}

// stringChildren counts the backing byte data once per traversal. A string
// is an immutable view of exactly len bytes, so the identity is its data
// address plus that span; copies of one string dedupe, while views that
// merely overlap (substrings) are counted as separate stores.
func stringChildren(v reflect.Value, c *Context) uintptr {
	n := uintptr(v.Len())
	if n == 0 {
		return 0
	}
	s := v.String()
	id := Identity{Addr: uintptr(unsafe.Pointer(unsafe.StringData(s))), Span: n}
	if !c.TryMark(id) {
		return 0
	}
	b := c.alloc(n)
	c.record(v.Type(), b, 1)
	return b
}

// sliceChildren counts the full backing array, capacity not length, plus
// the children of the live elements. Elements between len and cap are
// reserved memory without constructed values, so their inline bytes count
// and their children do not.
func sliceChildren(v reflect.Value, c *Context) uintptr {
	if v.IsNil() {
		return 0
	}
	et := v.Type().Elem()
	span := uintptr(v.Cap()) * et.Size()
	var n uintptr
	if span != 0 {
		// The identity is the view into the backing array: two slices over
		// the same array share an address and dedupe on span. Zero-byte
		// spans all alias the runtime's zero base and are never marked.
		if !c.TryMark(Identity{Addr: v.Pointer(), Span: span}) {
			return 0
		}
		n = c.alloc(span)
		c.record(v.Type(), n, 1)
	}
	if needsWalk(et) {
		for i := 0; i < v.Len(); i++ {
			n += children(v.Index(i), c)
		}
	}
	return n
}

// arrayChildren sums element children. The array's own bytes are inline in
// its holder and already counted there.
func arrayChildren(v reflect.Value, c *Context) uintptr {
	if !needsWalk(v.Type().Elem()) {
		return 0
	}
	var n uintptr
	for i := 0; i < v.Len(); i++ {
		n += children(v.Index(i), c)
	}
	return n
}

// Map backing is estimated with the classic bucket model: load factor 6.5,
// bucket counts grown in powers of two, 16 bytes of per-bucket overhead and
// 8 key/value slots per bucket, plus a fixed header. The real layout varies
// across Go releases, so this is a documented approximation rather than an
// exact figure.
const (
	mapHeaderSize    = 48
	bucketOverhead   = 16
	slotsPerBucket   = 8
	bucketLoadFactor = 6.5
)

// mapChildren counts the estimated table backing once per traversal, plus
// the children of every key and value.
func mapChildren(v reflect.Value, c *Context) uintptr {
	if v.IsNil() {
		return 0
	}
	if !c.TryMark(Identity{Addr: v.Pointer()}) {
		return 0
	}
	kt, et := v.Type().Key(), v.Type().Elem()
	n := c.alloc(mapBacking(kt, et, v.Len()))
	c.record(v.Type(), n, 1)
	if needsWalk(kt) || needsWalk(et) {
		iter := v.MapRange()
		for iter.Next() {
			n += children(iter.Key(), c)
			n += children(iter.Value(), c)
		}
	}
	return n
}

// mapBacking estimates the bytes reserved by a map's table for n entries.
// An empty map still owns its header block.
func mapBacking(key, elem reflect.Type, n int) uintptr {
	if n == 0 {
		return mapHeaderSize
	}
	buckets := uintptr(1)
	for float64(n) > bucketLoadFactor*float64(buckets) {
		buckets <<= 1
	}
	return mapHeaderSize + buckets*(bucketOverhead+slotsPerBucket*(key.Size()+elem.Size()))
}

// structChildren sums field children following the cached per-type plan,
// which has already dropped skipped and contribution-free fields and
// resolved fixed-cost tags.
func structChildren(v reflect.Value, c *Context) uintptr {
	var n uintptr
	for _, f := range planFor(v.Type()).fields {
		if f.fixed {
			n += f.cost
			continue
		}
		n += children(v.Field(f.index), c)
	}
	return n
}

// interfaceChildren counts only the active dynamic value. Pointer-shaped
// values live directly in the interface data word; anything larger is boxed
// on the heap when stored, so the box counts as an owned block. The box
// address is not reachable through reflection, which means a box shared by
// several interface copies is counted once per holder.
func interfaceChildren(v reflect.Value, c *Context) uintptr {
	if v.IsNil() {
		return 0
	}
	elem := v.Elem()
	et := elem.Type()
	switch et.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return children(elem, c)
	}
	if et.Size() == 0 {
		return 0
	}
	n := c.alloc(et.Size())
	c.record(et, n, 1)
	return n + children(elem, c)
}
