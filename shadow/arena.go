// Package shadow executes the handle protocol against a normalized model.
//
// An Arena plays the part of the generated bridge: it allocates one shadow
// per object, hands out handles, and reads, writes, calls and frees exactly
// the way the emitted Rust does for the same model and ownership.Plan.
// Wrapper plays the part of the generated Java class. Unlike the generated
// code, the arena detects stale handles, so misuse shows up as an error.
//
// Values cross the arena as plain Go values: int8..int64, uint8..uint64,
// float32, float64, bool, rune, string, Object for class values, and any
// of those for generic parameters.
package shadow

import (
	"errors"
	"fmt"
	"maps"

	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/ownership"
	"github.com/chazu/jbridge/typeres"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("jbridge.shadow")

var (
	ErrNullHandle    = errors.New("null handle")
	ErrStaleHandle   = errors.New("stale handle")
	ErrUnknownClass  = errors.New("unknown class")
	ErrUnknownMember = errors.New("unknown member")
	ErrNoImpl        = errors.New("no implementation registered")
	ErrTypeMismatch  = errors.New("type mismatch")
)

// Handle is the 64-bit value a shadow is known by on the host side.
// The low half is the slot index plus one, the high half its generation.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() uint32 { return uint32(h) - 1 }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

// Object is an underlying class value.
type Object struct {
	Class  string
	Fields map[string]any
}

// Obj builds an Object from alternating field names and values.
func Obj(class string, kv ...any) Object {
	o := Object{Class: class, Fields: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		o.Fields[kv[i].(string)] = kv[i+1]
	}
	return o
}

// Clone returns a deep copy of o.
func (o Object) Clone() Object {
	c := Object{Class: o.Class, Fields: maps.Clone(o.Fields)}
	for k, v := range c.Fields {
		c.Fields[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	if o, ok := v.(Object); ok {
		return o.Clone()
	}
	return v
}

// Impl is a native method body. self is nil for static methods and
// constructors. A nil result from an optional method means absent.
type Impl func(self *Object, args []any) (any, error)

type slot struct {
	gen  uint32
	live bool
	// class is nil for a heap-indirected plain value.
	class  *model.Class
	fields map[string]any
	value  any
}

// Arena owns every shadow allocated for one model.
type Arena struct {
	unit  *model.Unit
	plan  ownership.Plan
	impls map[string]Impl

	slots    []slot
	freeList []uint32
	frees    map[string]int
	allocs   int
}

// NewArena returns an empty arena for unit, following plan.
func NewArena(unit *model.Unit, plan ownership.Plan) *Arena {
	return &Arena{
		unit:  unit,
		plan:  plan,
		impls: make(map[string]Impl),
		frees: make(map[string]int),
	}
}

// Register installs the native body of class.method.
func (a *Arena) Register(class, method string, impl Impl) {
	a.impls[class+"."+method] = impl
}

// Frees returns how many shadows of class have been freed. The empty class
// name counts heap-indirected plain values.
func (a *Arena) Frees(class string) int { return a.frees[class] }

// TotalFrees returns the number of frees of any kind.
func (a *Arena) TotalFrees() int {
	n := 0
	for _, c := range a.frees {
		n += c
	}
	return n
}

// Allocs returns the number of allocations made.
func (a *Arena) Allocs() int { return a.allocs }

// Live returns the number of allocations not yet freed.
func (a *Arena) Live() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].live {
			n++
		}
	}
	return n
}

func (a *Arena) alloc(s slot) Handle {
	a.allocs++
	s.live = true
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		s.gen = a.slots[idx].gen
		a.slots[idx] = s
		return makeHandle(idx, s.gen)
	}
	a.slots = append(a.slots, s)
	return makeHandle(uint32(len(a.slots)-1), 0)
}

func (a *Arena) lookup(h Handle) (*slot, error) {
	if h == 0 {
		return nil, ErrNullHandle
	}
	idx := h.index()
	if int(idx) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %#x", ErrStaleHandle, uint64(h))
	}
	s := &a.slots[idx]
	if !s.live || s.gen != h.gen() {
		return nil, fmt.Errorf("%w: %#x", ErrStaleHandle, uint64(h))
	}
	return s, nil
}

func (a *Arena) release(h Handle) error {
	s, err := a.lookup(h)
	if err != nil {
		return err
	}
	name := ""
	if s.class != nil {
		name = s.class.Name
	}
	a.frees[name]++
	*s = slot{gen: s.gen + 1}
	a.freeList = append(a.freeList, h.index())
	return nil
}

func (a *Arena) class(name string) (*model.Class, error) {
	c := a.unit.Class(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	return c, nil
}

func (a *Arena) classSlot(h Handle) (*slot, error) {
	s, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.class == nil {
		return nil, fmt.Errorf("%w: handle %#x is not a class shadow", ErrTypeMismatch, uint64(h))
	}
	return s, nil
}

// Construct builds a shadow from v and returns its handle. Primitive fields
// are copied; every handle field is allocated as its own shadow.
func (a *Arena) Construct(v Object) (Handle, error) {
	c, err := a.class(v.Class)
	if err != nil {
		return 0, err
	}
	return a.of(c, v)
}

func (a *Arena) of(c *model.Class, v Object) (Handle, error) {
	if v.Class != c.Name {
		return 0, fmt.Errorf("%w: %s value for %s shadow", ErrTypeMismatch, v.Class, c.Name)
	}
	if c.Wrapped {
		return a.alloc(slot{class: c, value: v.Clone()}), nil
	}
	fields := make(map[string]any, len(c.Fields))
	for _, f := range c.Fields {
		fv, ok := v.Fields[f.Name]
		if !ok {
			return 0, fmt.Errorf("%w: %s.%s missing", ErrTypeMismatch, c.Name, f.Name)
		}
		stored, err := a.toNative(f.Type, fv)
		if err != nil {
			return 0, fmt.Errorf("%s.%s: %w", c.Name, f.Name, err)
		}
		fields[f.Name] = stored
	}
	return a.alloc(slot{class: c, fields: fields}), nil
}

// toNative stores a value of type t the way a shadow field holds it.
func (a *Arena) toNative(t typeres.Type, v any) (any, error) {
	switch {
	case t.IsPrimitive():
		return v, checkPrimitive(t.Kind, v)
	case t.IsGeneric():
		return a.box(v), nil
	}
	o, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: want %s value, got %T", ErrTypeMismatch, t.Name, v)
	}
	c, err := a.class(t.Name)
	if err != nil {
		return nil, err
	}
	return a.of(c, o)
}

func (a *Arena) box(v any) Handle {
	return a.alloc(slot{value: cloneValue(v)})
}

// Value rebuilds the underlying value of the shadow h.
func (a *Arena) Value(h Handle) (Object, error) {
	s, err := a.classSlot(h)
	if err != nil {
		return Object{}, err
	}
	if s.class.Wrapped {
		return s.value.(Object).Clone(), nil
	}
	out := Object{Class: s.class.Name, Fields: make(map[string]any, len(s.fields))}
	for _, f := range s.class.Fields {
		v, err := a.fromNative(f.Type, s.fields[f.Name])
		if err != nil {
			return Object{}, fmt.Errorf("%s.%s: %w", s.class.Name, f.Name, err)
		}
		out.Fields[f.Name] = v
	}
	return out, nil
}

func (a *Arena) fromNative(t typeres.Type, stored any) (any, error) {
	if t.IsPrimitive() {
		return stored, nil
	}
	h, _ := stored.(Handle)
	if t.IsGeneric() {
		return a.Unbox(h)
	}
	return a.Value(h)
}

// Unbox reads a heap-indirected value.
func (a *Arena) Unbox(h Handle) (any, error) {
	s, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.class != nil {
		return nil, fmt.Errorf("%w: handle %#x is a class shadow", ErrTypeMismatch, uint64(h))
	}
	return cloneValue(s.value), nil
}

func field(c *model.Class, name string) (*model.Field, error) {
	f := c.Field(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, c.Name, name)
	}
	return f, nil
}

// Get reads a field. Handle fields return the handle already allocated for
// them; no read allocates.
func (a *Arena) Get(h Handle, name string) (any, error) {
	s, err := a.classSlot(h)
	if err != nil {
		return nil, err
	}
	if _, err := field(s.class, name); err != nil {
		return nil, err
	}
	if s.class.Wrapped {
		return s.value.(Object).Fields[name], nil
	}
	return s.fields[name], nil
}

// Set writes a field. A handle field takes ownership of the handle v; the
// previous pointee is not freed. The shadow's own handle never changes.
func (a *Arena) Set(h Handle, name string, v any) error {
	s, err := a.classSlot(h)
	if err != nil {
		return err
	}
	f, err := field(s.class, name)
	if err != nil {
		return err
	}
	if f.IsPrimitive() {
		if err := checkPrimitive(f.Type.Kind, v); err != nil {
			return fmt.Errorf("%s.%s: %w", s.class.Name, name, err)
		}
		if s.class.Wrapped {
			s.value.(Object).Fields[name] = v
		} else {
			s.fields[name] = v
		}
		return nil
	}
	ch, ok := v.(Handle)
	if !ok {
		return fmt.Errorf("%w: %s.%s takes a handle, got %T", ErrTypeMismatch, s.class.Name, name, v)
	}
	if _, err := a.lookup(ch); err != nil {
		return fmt.Errorf("%s.%s: %w", s.class.Name, name, err)
	}
	s.fields[name] = ch
	return nil
}

// Destroy frees the shadow h and the handle fields its free plan names.
func (a *Arena) Destroy(h Handle) error {
	s, err := a.classSlot(h)
	if err != nil {
		return err
	}
	var errs []error
	for _, r := range ownership.FreePlan(s.class, a.plan.Free) {
		child, _ := s.fields[r.Field.Name].(Handle)
		if r.Recurse {
			errs = append(errs, a.Destroy(child))
		} else {
			errs = append(errs, a.release(child))
		}
	}
	log.Debugf("free %s %#x", s.class.Name, uint64(h))
	errs = append(errs, a.release(h))
	return errors.Join(errs...)
}

// Call invokes method on class. h is ignored for static methods and
// constructors. Class arguments are passed as handles, generic arguments as
// boxed handles, primitives as values.
func (a *Arena) Call(class string, h Handle, method string, args ...any) (any, error) {
	c, err := a.class(class)
	if err != nil {
		return nil, err
	}
	m := c.Method(method)
	if m == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, class, method)
	}
	impl := a.impls[class+"."+method]
	if impl == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoImpl, class, method)
	}
	if len(args) != len(m.Args) {
		return nil, fmt.Errorf("%w: %s.%s takes %d arguments, got %d", ErrTypeMismatch, class, method, len(m.Args), len(args))
	}

	native := make([]any, len(args))
	for i, arg := range m.Args {
		v, err := a.argValue(arg.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s(%s): %w", class, method, arg.Name, err)
		}
		native[i] = v
	}

	recv := ownership.ReceiverOf(m)
	var self *Object
	if recv != ownership.NoReceiver {
		v, err := a.Value(h)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", class, method, err)
		}
		self = &v
	}

	res, err := impl(self, native)
	if err != nil {
		return nil, err
	}

	switch {
	case recv == ownership.Consumed:
		if err := a.Destroy(h); err != nil {
			return nil, err
		}
	case a.plan.WritesBack(m):
		if err := a.store(h, *self); err != nil {
			return nil, err
		}
	}
	return a.result(m, res)
}

func (a *Arena) argValue(t typeres.Type, v any) (any, error) {
	if t.IsPrimitive() {
		return v, checkPrimitive(t.Kind, v)
	}
	h, ok := v.(Handle)
	if !ok {
		return nil, fmt.Errorf("%w: want handle, got %T", ErrTypeMismatch, v)
	}
	if t.IsGeneric() {
		return a.Unbox(h)
	}
	return a.Value(h)
}

func (a *Arena) result(m *model.Method, res any) (any, error) {
	switch ownership.ReturnOf(m) {
	case ownership.ReturnVoid:
		return nil, nil
	case ownership.ReturnDirect:
		return res, checkPrimitive(m.Returns.Kind, res)
	case ownership.ReturnHandle:
		return a.toNative(m.Returns, res)
	case ownership.ReturnOptional:
		if res == nil {
			return Handle(0), nil
		}
	case ownership.ReturnBoxed:
		if res == nil {
			return nil, fmt.Errorf("%w: boxed %s returned nothing", ErrTypeMismatch, m.Name)
		}
	}
	if m.Returns.IsClass() {
		return a.toNative(m.Returns, res)
	}
	if m.Returns.IsPrimitive() {
		if err := checkPrimitive(m.Returns.Kind, res); err != nil {
			return nil, err
		}
	}
	return a.box(res), nil
}

// store writes v back into the shadow h, reusing every handle field so all
// handles into the tree stay valid.
func (a *Arena) store(h Handle, v Object) error {
	s, err := a.classSlot(h)
	if err != nil {
		return err
	}
	if s.class.Wrapped {
		s.value = v.Clone()
		return nil
	}
	for _, f := range s.class.Fields {
		fv := v.Fields[f.Name]
		switch {
		case f.IsPrimitive():
			s.fields[f.Name] = fv
		case f.Type.IsGeneric():
			bs, err := a.lookup(s.fields[f.Name].(Handle))
			if err != nil {
				return err
			}
			bs.value = cloneValue(fv)
		default:
			o, ok := fv.(Object)
			if !ok {
				return fmt.Errorf("%w: %s.%s", ErrTypeMismatch, s.class.Name, f.Name)
			}
			if err := a.store(s.fields[f.Name].(Handle), o); err != nil {
				return err
			}
		}
	}
	return nil
}
