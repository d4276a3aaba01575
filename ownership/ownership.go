// Package ownership decides how every member crosses the handle boundary.
//
// The bridge generator, the wrapper generator and the shadow arena all ask
// this package the same questions (how is this field stored, who owns the
// receiver during this call, what is freed on destroy) so the three can
// never disagree.
package ownership

import (
	"fmt"

	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/naming"
)

// Access is how a field is stored in its shadow.
type Access int

const (
	// Inline fields hold a copy of the value.
	Inline Access = iota
	// Handle fields hold an owned pointer to a separately allocated shadow.
	Handle
)

// FieldAccess returns the storage of f.
func FieldAccess(f model.Field) Access {
	if f.IsPrimitive() {
		return Inline
	}
	return Handle
}

// Receiver is what a bridge method does with the receiving shadow.
type Receiver int

const (
	// NoReceiver is a static call or constructor.
	NoReceiver Receiver = iota
	// Borrowed calls a read-only method on an owned copy of the value.
	Borrowed
	// OwnedCopy calls a mutating method on an owned copy of the value.
	OwnedCopy
	// Consumed hands the value to the call and frees the shadow afterward.
	Consumed
)

func (r Receiver) String() string {
	switch r {
	case NoReceiver:
		return "none"
	case Borrowed:
		return "borrowed"
	case OwnedCopy:
		return "owned-copy"
	case Consumed:
		return "consumed"
	}
	return fmt.Sprintf("Receiver(%d)", int(r))
}

// ReceiverOf returns the receiver mode of m.
func ReceiverOf(m *model.Method) Receiver {
	switch {
	case !m.HasReceiver():
		return NoReceiver
	case m.Consumed:
		return Consumed
	case m.Mut:
		return OwnedCopy
	}
	return Borrowed
}

// Return is how a method result reaches the host.
type Return int

const (
	ReturnVoid Return = iota
	// ReturnDirect converts the value to its wire form.
	ReturnDirect
	// ReturnHandle moves a class value into a fresh shadow.
	ReturnHandle
	// ReturnOptional heap-indirects a present value; 0 means absent.
	ReturnOptional
	// ReturnBoxed heap-indirects the value once more before exposing it.
	ReturnBoxed
)

// ReturnOf returns the return mode of m.
func ReturnOf(m *model.Method) Return {
	switch {
	case m.Returns.IsVoid():
		return ReturnVoid
	case m.Optional:
		return ReturnOptional
	case m.Boxed:
		return ReturnBoxed
	case !m.Returns.IsPrimitive():
		return ReturnHandle
	}
	return ReturnDirect
}

// Indirect reports whether the result crosses as a pointer to a heap copy
// that the host must unbox.
func (r Return) Indirect() bool { return r == ReturnOptional || r == ReturnBoxed }

// FreePolicy is how far destruction reaches into nested shadows.
type FreePolicy int

const (
	// Shallow frees the shadow and its direct handle fields. Fields of
	// those fields are leaked.
	Shallow FreePolicy = iota
	// Recursive frees every shadow reachable through handle fields.
	Recursive
)

func (p FreePolicy) String() string {
	if p == Recursive {
		return "recursive"
	}
	return "shallow"
}

// ParseFreePolicy reads a policy name as written in configuration.
func ParseFreePolicy(s string) (FreePolicy, error) {
	switch s {
	case "", "shallow":
		return Shallow, nil
	case "recursive":
		return Recursive, nil
	}
	return Shallow, fmt.Errorf("unknown free policy %q", s)
}

// MutationMode is what a mutating, non-consuming call does to the shadow.
type MutationMode int

const (
	// Copy mutates a throwaway copy; the shadow is unchanged.
	Copy MutationMode = iota
	// WriteBack stores the mutated copy back into the existing shadow,
	// reusing its handle fields so every handle stays valid.
	WriteBack
)

func (m MutationMode) String() string {
	if m == WriteBack {
		return "write-back"
	}
	return "copy"
}

// ParseMutationMode reads a mode name as written in configuration.
func ParseMutationMode(s string) (MutationMode, error) {
	switch s {
	case "", "copy":
		return Copy, nil
	case "write-back":
		return WriteBack, nil
	}
	return Copy, fmt.Errorf("unknown mutation mode %q", s)
}

// Plan is the set of protocol choices a generation run is made with.
type Plan struct {
	Free     FreePolicy
	Mutation MutationMode
}

// Release is one pointer freed when a shadow goes away.
type Release struct {
	Field model.Field
	// Recurse is set when the pointee releases its own handle fields first.
	Recurse bool
}

// FreePlan returns what destroying a shadow of c (or consuming it) frees
// besides the shadow itself: each direct handle field, one level deep.
// Generic fields point at plain values and never recurse.
func FreePlan(c *model.Class, policy FreePolicy) []Release {
	var out []Release
	for _, f := range c.HandleFields() {
		out = append(out, Release{
			Field:   f,
			Recurse: policy == Recursive && f.Type.IsClass(),
		})
	}
	return out
}

// WritesBack reports whether a call to m stores its mutated receiver back.
func (p Plan) WritesBack(m *model.Method) bool {
	return p.Mutation == WriteBack && ReceiverOf(m) == OwnedCopy
}

// Notifies reports whether the host wrapper must notify its owner after
// calling a member of this kind.
func Notifies(kind naming.MemberKind, m *model.Method) bool {
	switch kind {
	case naming.Setter:
		return true
	case naming.Method:
		return m != nil && ReceiverOf(m) == OwnedCopy
	}
	return false
}
