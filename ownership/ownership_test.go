package ownership

import (
	"testing"

	"github.com/chazu/jbridge/ir"
	"github.com/chazu/jbridge/model"
	"github.com/chazu/jbridge/naming"
)

func buildUnit(t *testing.T) *model.Unit {
	t.Helper()
	u, err := model.Build(&ir.Unit{
		Package: "com.example",
		Classes: []ir.Class{
			{Name: "Point", Fields: []ir.Field{{Name: "x", Type: "i32"}, {Name: "y", Type: "i32"}}},
			{
				Name:     "Line",
				Generics: []ir.Generic{{Name: "T"}},
				Fields: []ir.Field{
					{Name: "a", Type: "Point"},
					{Name: "b", Type: "Point"},
					{Name: "tag", Type: "T"},
					{Name: "width", Type: "f32"},
				},
				Methods: []ir.Method{
					{Name: "new", Init: true},
					{Name: "origin", Static: true, Returns: "Point"},
					{Name: "length", Returns: "f64"},
					{Name: "shift", Mut: true, Args: []ir.Arg{{Name: "dx", Type: "i32"}}},
					{Name: "into_points", Consumed: true, Returns: "Point"},
					{Name: "midpoint", Optional: true, Returns: "Point"},
					{Name: "slope", Optional: true, Returns: "f64"},
					{Name: "weight", Boxed: true, Returns: "i64"},
				},
			},
		},
	}, model.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return u
}

func TestFieldAccess(t *testing.T) {
	line := buildUnit(t).Class("Line")
	want := map[string]Access{"a": Handle, "b": Handle, "tag": Handle, "width": Inline}
	for _, f := range line.Fields {
		if got := FieldAccess(f); got != want[f.Name] {
			t.Errorf("FieldAccess(%s) = %v, want %v", f.Name, got, want[f.Name])
		}
	}
}

func TestReceiverAndReturn(t *testing.T) {
	line := buildUnit(t).Class("Line")
	tests := []struct {
		method   string
		recv     Receiver
		ret      Return
		indirect bool
	}{
		{"new", NoReceiver, ReturnHandle, false},
		{"origin", NoReceiver, ReturnHandle, false},
		{"length", Borrowed, ReturnDirect, false},
		{"shift", OwnedCopy, ReturnVoid, false},
		{"into_points", Consumed, ReturnHandle, false},
		{"midpoint", Borrowed, ReturnOptional, true},
		{"slope", Borrowed, ReturnOptional, true},
		{"weight", Borrowed, ReturnBoxed, true},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m := line.Method(tt.method)
			if got := ReceiverOf(m); got != tt.recv {
				t.Errorf("ReceiverOf = %v, want %v", got, tt.recv)
			}
			if got := ReturnOf(m); got != tt.ret {
				t.Errorf("ReturnOf = %v, want %v", got, tt.ret)
			}
			if got := ReturnOf(m).Indirect(); got != tt.indirect {
				t.Errorf("Indirect = %v, want %v", got, tt.indirect)
			}
		})
	}
}

func TestFreePlan(t *testing.T) {
	u := buildUnit(t)
	line := u.Class("Line")

	shallow := FreePlan(line, Shallow)
	if len(shallow) != 3 {
		t.Fatalf("shallow plan has %d releases, want 3", len(shallow))
	}
	for _, r := range shallow {
		if r.Recurse {
			t.Errorf("shallow release of %s recurses", r.Field.Name)
		}
		if r.Field.IsPrimitive() {
			t.Errorf("plan frees primitive field %s", r.Field.Name)
		}
	}

	for _, r := range FreePlan(line, Recursive) {
		want := r.Field.Name != "tag"
		if r.Recurse != want {
			t.Errorf("recursive release of %s: Recurse = %v, want %v", r.Field.Name, r.Recurse, want)
		}
	}

	if got := FreePlan(u.Class("Point"), Recursive); len(got) != 0 {
		t.Errorf("Point plan = %v, want empty", got)
	}
}

func TestNotifies(t *testing.T) {
	line := buildUnit(t).Class("Line")
	if !Notifies(naming.Setter, nil) {
		t.Error("setters must notify")
	}
	if Notifies(naming.Getter, nil) || Notifies(naming.Free, nil) {
		t.Error("getters and free must not notify")
	}
	if !Notifies(naming.Method, line.Method("shift")) {
		t.Error("mutating method must notify")
	}
	for _, name := range []string{"length", "into_points", "origin"} {
		if Notifies(naming.Method, line.Method(name)) {
			t.Errorf("%s must not notify", name)
		}
	}
}

func TestPlanWritesBack(t *testing.T) {
	line := buildUnit(t).Class("Line")
	copyPlan := Plan{}
	wb := Plan{Mutation: WriteBack}
	if copyPlan.WritesBack(line.Method("shift")) {
		t.Error("copy mode writes back")
	}
	if !wb.WritesBack(line.Method("shift")) {
		t.Error("write-back mode does not write back a mutating call")
	}
	if wb.WritesBack(line.Method("length")) {
		t.Error("write-back applies to a read-only call")
	}
}

func TestParseOptions(t *testing.T) {
	if p, err := ParseFreePolicy("recursive"); err != nil || p != Recursive {
		t.Errorf("ParseFreePolicy(recursive) = %v, %v", p, err)
	}
	if p, err := ParseFreePolicy(""); err != nil || p != Shallow {
		t.Errorf("ParseFreePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParseFreePolicy("deep"); err == nil {
		t.Error("expected error for unknown policy")
	}
	if m, err := ParseMutationMode("write-back"); err != nil || m != WriteBack {
		t.Errorf("ParseMutationMode(write-back) = %v, %v", m, err)
	}
	if _, err := ParseMutationMode("inplace"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
