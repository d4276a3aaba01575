// Package ir reads the declaration units produced by the interface front-end.
//
// A unit is the validated, still unnormalized description of the classes to
// bind: names, flags and type expressions as written. Units arrive as YAML,
// JSON or canonical CBOR and are checked against an embedded CUE schema
// before the model package normalizes them.
package ir

// Unit is one declaration file.
type Unit struct {
	Package string  `yaml:"package" json:"package" cbor:"package"`
	Classes []Class `yaml:"classes" json:"classes,omitempty" cbor:"classes"`
}

// Class declares one exposed class.
type Class struct {
	Name     string    `yaml:"name" json:"name" cbor:"name"`
	Wrapped  bool      `yaml:"wrapped,omitempty" json:"wrapped,omitempty" cbor:"wrapped,omitempty"`
	Real     *Real     `yaml:"real,omitempty" json:"real,omitempty" cbor:"real,omitempty"`
	Generics []Generic `yaml:"generics,omitempty" json:"generics,omitempty" cbor:"generics,omitempty"`
	Fields   []Field   `yaml:"fields,omitempty" json:"fields,omitempty" cbor:"fields,omitempty"`
	Methods  []Method  `yaml:"methods,omitempty" json:"methods,omitempty" cbor:"methods,omitempty"`
}

// Real names the underlying native type when it differs from the class name.
type Real struct {
	Name     string   `yaml:"name" json:"name" cbor:"name"`
	Generics []string `yaml:"generics,omitempty" json:"generics,omitempty" cbor:"generics,omitempty"`
}

// Generic declares a type parameter and its bounds.
type Generic struct {
	Name       string   `yaml:"name" json:"name" cbor:"name"`
	Bounds     []string `yaml:"bounds,omitempty" json:"bounds,omitempty" cbor:"bounds,omitempty"`
	NativeOnly bool     `yaml:"native_only,omitempty" json:"native_only,omitempty" cbor:"native_only,omitempty"`
	Free       bool     `yaml:"free,omitempty" json:"free,omitempty" cbor:"free,omitempty"`
}

// Field declares a field of the underlying value.
type Field struct {
	Name       string    `yaml:"name" json:"name" cbor:"name"`
	Type       string    `yaml:"type" json:"type" cbor:"type"`
	NativeOnly bool      `yaml:"native_only,omitempty" json:"native_only,omitempty" cbor:"native_only,omitempty"`
	Generics   []Generic `yaml:"generics,omitempty" json:"generics,omitempty" cbor:"generics,omitempty"`
}

// Method declares a bound method, constructor or free function.
type Method struct {
	Name     string    `yaml:"name" json:"name" cbor:"name"`
	Args     []Arg     `yaml:"args,omitempty" json:"args,omitempty" cbor:"args,omitempty"`
	Returns  string    `yaml:"returns,omitempty" json:"returns,omitempty" cbor:"returns,omitempty"`
	Static   bool      `yaml:"static,omitempty" json:"static,omitempty" cbor:"static,omitempty"`
	Mut      bool      `yaml:"mut,omitempty" json:"mut,omitempty" cbor:"mut,omitempty"`
	Init     bool      `yaml:"init,omitempty" json:"init,omitempty" cbor:"init,omitempty"`
	Optional bool      `yaml:"optional,omitempty" json:"optional,omitempty" cbor:"optional,omitempty"`
	Consumed bool      `yaml:"consumed,omitempty" json:"consumed,omitempty" cbor:"consumed,omitempty"`
	Boxed    bool      `yaml:"boxed,omitempty" json:"boxed,omitempty" cbor:"boxed,omitempty"`
	Source   string    `yaml:"source,omitempty" json:"source,omitempty" cbor:"source,omitempty"`
	Native   string    `yaml:"native,omitempty" json:"native,omitempty" cbor:"native,omitempty"`
	Generics []Generic `yaml:"generics,omitempty" json:"generics,omitempty" cbor:"generics,omitempty"`
}

// Arg declares a method argument.
type Arg struct {
	Name   string `yaml:"name" json:"name" cbor:"name"`
	Type   string `yaml:"type" json:"type" cbor:"type"`
	Borrow bool   `yaml:"borrow,omitempty" json:"borrow,omitempty" cbor:"borrow,omitempty"`
	Mut    bool   `yaml:"mut,omitempty" json:"mut,omitempty" cbor:"mut,omitempty"`
	Into   bool   `yaml:"into,omitempty" json:"into,omitempty" cbor:"into,omitempty"`
}
