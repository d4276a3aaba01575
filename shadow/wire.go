package shadow

import (
	"fmt"

	"github.com/chazu/jbridge/typeres"
)

// ToWire reinterprets a native primitive as the value the host receives.
// Unsigned widths become the signed value of the same width, like an `as`
// cast on the bridge side.
func ToWire(k typeres.Kind, v any) any {
	switch x := v.(type) {
	case uint8:
		return int8(x)
	case uint16:
		return int16(x)
	case uint32:
		return int32(x)
	case uint64:
		return int64(x)
	}
	return v
}

// FromWire reverses ToWire for a value of kind k.
func FromWire(k typeres.Kind, v any) any {
	switch k {
	case typeres.KindU8:
		if x, ok := v.(int8); ok {
			return uint8(x)
		}
	case typeres.KindU16:
		if x, ok := v.(int16); ok {
			return uint16(x)
		}
	case typeres.KindU32:
		if x, ok := v.(int32); ok {
			return uint32(x)
		}
	case typeres.KindU64:
		if x, ok := v.(int64); ok {
			return uint64(x)
		}
	}
	return v
}

func checkPrimitive(k typeres.Kind, v any) error {
	var ok bool
	switch k {
	case typeres.KindString:
		_, ok = v.(string)
	case typeres.KindI8:
		_, ok = v.(int8)
	case typeres.KindI16:
		_, ok = v.(int16)
	case typeres.KindI32, typeres.KindChar:
		_, ok = v.(int32)
	case typeres.KindI64:
		_, ok = v.(int64)
	case typeres.KindU8:
		_, ok = v.(uint8)
	case typeres.KindU16:
		_, ok = v.(uint16)
	case typeres.KindU32:
		_, ok = v.(uint32)
	case typeres.KindU64:
		_, ok = v.(uint64)
	case typeres.KindF32:
		_, ok = v.(float32)
	case typeres.KindF64:
		_, ok = v.(float64)
	case typeres.KindBool:
		_, ok = v.(bool)
	default:
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, k, v)
	}
	return nil
}
