package shadow

import (
	"fmt"

	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/naming"
	"github.com/chazu/jbridge/ownership"
)

// Owner is implemented by every wrapper that can hold another wrapper in
// one of its fields. A child calls UpdateField on its owner after any write
// so each enclosing level re-validates the handle it caches for that field.
type Owner interface {
	UpdateField(field string, h Handle) error
}

// Wrapper mirrors a generated host class: a handle plus an optional owner
// and the field it occupies there.
type Wrapper struct {
	arena       *Arena
	class       *model.Class
	ptr         Handle
	parent      Owner
	parentField string
}

var _ Owner = (*Wrapper)(nil)

// Wrap is the host `from(ptr)` factory.
func (a *Arena) Wrap(class string, h Handle) (*Wrapper, error) {
	c, err := a.class(class)
	if err != nil {
		return nil, err
	}
	return &Wrapper{arena: a, class: c, ptr: h}, nil
}

// WrapChild is the host `from(ptr, parent, field)` factory.
func (a *Arena) WrapChild(class string, h Handle, parent Owner, field string) (*Wrapper, error) {
	w, err := a.Wrap(class, h)
	if err != nil {
		return nil, err
	}
	w.parent = parent
	w.parentField = field
	return w, nil
}

// New runs a constructor the way the host class does.
func (a *Arena) New(class, ctor string, args ...any) (*Wrapper, error) {
	c, err := a.class(class)
	if err != nil {
		return nil, err
	}
	m := c.Method(ctor)
	if m == nil || !m.Init {
		return nil, fmt.Errorf("%w: constructor %s.%s", ErrUnknownMember, class, ctor)
	}
	res, err := a.hostCall(c, 0, m, args)
	if err != nil {
		return nil, err
	}
	return res.(*Wrapper), nil
}

// CallStatic calls a static method from the host side.
func (a *Arena) CallStatic(class, method string, args ...any) (any, error) {
	c, err := a.class(class)
	if err != nil {
		return nil, err
	}
	m := c.Method(method)
	if m == nil || m.HasReceiver() {
		return nil, fmt.Errorf("%w: static %s.%s", ErrUnknownMember, class, method)
	}
	return a.hostCall(c, 0, m, args)
}

// Pointer returns the wrapped handle.
func (w *Wrapper) Pointer() Handle { return w.ptr }

// Parent returns the owner this wrapper was read from, if any.
func (w *Wrapper) Parent() (Owner, string) { return w.parent, w.parentField }

// Class returns the class name.
func (w *Wrapper) Class() string { return w.class.Name }

func (w *Wrapper) hostField(name string) (*model.Field, error) {
	f := w.class.Field(name)
	if f == nil || f.NativeOnly {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, w.class.Name, name)
	}
	return f, nil
}

// Get is the host getter. Class-typed fields come back as child wrappers
// linked to w at that field; generic fields as raw handles.
func (w *Wrapper) Get(name string) (any, error) {
	f, err := w.hostField(name)
	if err != nil {
		return nil, err
	}
	v, err := w.arena.Get(w.ptr, name)
	if err != nil {
		return nil, err
	}
	switch {
	case f.IsPrimitive():
		return ToWire(f.Type.Kind, v), nil
	case f.Type.IsGeneric():
		return v, nil
	}
	return w.arena.WrapChild(f.Type.Name, v.(Handle), w, name)
}

// Set is the host setter. It notifies the owner afterward.
func (w *Wrapper) Set(name string, v any) error {
	f, err := w.hostField(name)
	if err != nil {
		return err
	}
	v = hostToWire(v)
	if f.IsPrimitive() {
		v = FromWire(f.Type.Kind, v)
	}
	if err := w.arena.Set(w.ptr, name, v); err != nil {
		return err
	}
	return w.notify()
}

// UpdateField stores h in field and propagates the update to w's own owner.
func (w *Wrapper) UpdateField(field string, h Handle) error {
	if err := w.arena.Set(w.ptr, field, h); err != nil {
		return err
	}
	return w.notify()
}

func (w *Wrapper) notify() error {
	if w.parent == nil {
		return nil
	}
	return w.parent.UpdateField(w.parentField, w.ptr)
}

// Call is a host method call on w.
func (w *Wrapper) Call(method string, args ...any) (any, error) {
	m := w.class.Method(method)
	if m == nil || m.Init {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, w.class.Name, method)
	}
	res, err := w.arena.hostCall(w.class, w.ptr, m, args)
	if err != nil {
		return nil, err
	}
	if ownership.Notifies(naming.Method, m) {
		if err := w.notify(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Free is the host destructor.
func (w *Wrapper) Free() error {
	return w.arena.Destroy(w.ptr)
}

func hostToWire(v any) any {
	if hw, ok := v.(*Wrapper); ok {
		return hw.ptr
	}
	return v
}

// hostCall converts host arguments, calls through the arena and converts the
// result back the way the generated host method does.
func (a *Arena) hostCall(c *model.Class, h Handle, m *model.Method, args []any) (any, error) {
	if len(args) != len(m.Args) {
		return nil, fmt.Errorf("%w: %s.%s takes %d arguments, got %d", ErrTypeMismatch, c.Name, m.Name, len(m.Args), len(args))
	}
	wire := make([]any, len(args))
	for i, arg := range m.Args {
		v := hostToWire(args[i])
		if arg.Type.IsPrimitive() {
			v = FromWire(arg.Type.Kind, v)
		}
		wire[i] = v
	}
	res, err := a.Call(c.Name, h, m.Name, wire...)
	if err != nil {
		return nil, err
	}

	ret := ownership.ReturnOf(m)
	switch {
	case ret == ownership.ReturnVoid:
		return nil, nil
	case ret == ownership.ReturnDirect:
		return ToWire(m.Returns.Kind, res), nil
	}
	rh := res.(Handle)
	switch {
	case ret == ownership.ReturnOptional && rh == 0:
		return nil, nil
	case m.Returns.IsGeneric():
		return rh, nil
	case m.Returns.IsClass():
		return a.Wrap(m.Returns.Name, rh)
	}
	// NativeTools getters consume the indirection they read.
	v, err := a.Unbox(rh)
	if err != nil {
		return nil, err
	}
	if err := a.release(rh); err != nil {
		return nil, err
	}
	return ToWire(m.Returns.Kind, v), nil
}
