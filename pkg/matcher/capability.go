package matcher

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// undefinedValue is the type of the Undefined sentinel.
type undefinedValue struct{}

// Undefined is the "absent" sentinel. It is distinct from nil,
// which plays the role of null.
var Undefined = undefinedValue{}

// Lengther is implemented by values that expose a size without
// being a builtin collection.
type Lengther interface {
	Len() int
}

// TypeOf returns the reflect.Type of T, for use with
// ToBeInstanceOf. Interface types are supported.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func isUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// isNull reports whether v is nil or a typed nil of a nil-able
// kind.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.Interface,
		reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// truthy applies the coercion: "", numeric zero, NaN, false,
// null and Undefined are falsy; everything else is truthy.
func truthy(v any) bool {
	if isNull(v) || isUndefined(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	}
	return true
}

// lengthOf extracts a size from strings (in runes), builtin
// collections and Lengther implementations.
func lengthOf(v any) (int, bool) {
	if isNull(v) {
		return 0, false
	}
	if l, ok := v.(Lengther); ok {
		return l.Len(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), true
	case reflect.Slice, reflect.Array, reflect.Map,
		reflect.Chan:
		return rv.Len(), true
	}
	return 0, false
}

// stringLike extracts text from strings, byte slices and
// fmt.Stringer implementations.
func stringLike(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	case fmt.Stringer:
		if isNull(v) {
			return "", false
		}
		return s.String(), true
	}
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// identical compares without recursing into structure: nil-able
// kinds by identity, scalars and comparable aggregates with ==.
// NaN is identical to NaN so that identity stays reflexive.
func identical(a, b any) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false, nil
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer(), nil
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() &&
			va.Len() == vb.Len() &&
			va.Cap() == vb.Cap(), nil
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true, nil
		}
		return fa == fb, nil
	case reflect.Struct, reflect.Array:
		if !va.Comparable() || !vb.Comparable() {
			return false, fmt.Errorf(
				"%s values are not comparable by identity; "+
					"use ToEqual or compare pointers",
				va.Type(),
			)
		}
	}
	return a == b, nil
}

// deepEqual is structural equality in which NaN equals NaN, so
// that anything identical is also equal.
func deepEqual(a, b any) bool {
	if assert.ObjectsAreEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return nanEqual(reflect.ValueOf(a), reflect.ValueOf(b), map[[2]uintptr]bool{})
}

// nanEqual walks a and b like reflect.DeepEqual but compares
// floats NaN-reflexively. seen breaks pointer cycles.
func nanEqual(a, b reflect.Value, seen map[[2]uintptr]bool) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Float32, reflect.Float64:
		fa, fb := a.Float(), b.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	case reflect.Slice:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		return elementsEqual(a, b, seen)
	case reflect.Array:
		return elementsEqual(a, b, seen)
	case reflect.Map:
		if a.IsNil() != b.IsNil() || a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			other := b.MapIndex(iter.Key())
			if !other.IsValid() || !nanEqual(iter.Value(), other, seen) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !nanEqual(a.Field(i), b.Field(i), seen) {
				return false
			}
		}
		return true
	case reflect.Pointer:
		if a.Pointer() == b.Pointer() {
			return true
		}
		if a.IsNil() || b.IsNil() {
			return false
		}
		key := [2]uintptr{a.Pointer(), b.Pointer()}
		if seen[key] {
			return true
		}
		seen[key] = true
		return nanEqual(a.Elem(), b.Elem(), seen)
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return nanEqual(a.Elem(), b.Elem(), seen)
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	case reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	}
	return a.Equal(b)
}

func elementsEqual(a, b reflect.Value, seen map[[2]uintptr]bool) bool {
	for i := 0; i < a.Len(); i++ {
		if !nanEqual(a.Index(i), b.Index(i), seen) {
			return false
		}
	}
	return true
}

// number is a numeric operand normalised for comparison.
type number struct {
	kind reflect.Kind // Int64, Uint64 or Float64
	i    int64
	u    uint64
	f    float64
}

func toNumber(v any) (number, bool) {
	if v == nil {
		return number{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return number{kind: reflect.Int64, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: reflect.Uint64, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: reflect.Float64, f: rv.Float()}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	switch n.kind {
	case reflect.Int64:
		return float64(n.i)
	case reflect.Uint64:
		return float64(n.u)
	}
	return n.f
}

func (n number) isNaN() bool {
	return n.kind == reflect.Float64 && math.IsNaN(n.f)
}

// compareNumbers returns -1, 0 or 1. ordered is false when either
// side is NaN. Integers are compared exactly.
func compareNumbers(a, b number) (order int, ordered bool) {
	if a.isNaN() || b.isNaN() {
		return 0, false
	}

	switch {
	case a.kind == reflect.Int64 && b.kind == reflect.Int64:
		return cmp.Compare(a.i, b.i), true
	case a.kind == reflect.Uint64 && b.kind == reflect.Uint64:
		return cmp.Compare(a.u, b.u), true
	case a.kind == reflect.Int64 && b.kind == reflect.Uint64:
		if a.i < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(a.i), b.u), true
	case a.kind == reflect.Uint64 && b.kind == reflect.Int64:
		if b.i < 0 {
			return 1, true
		}
		return cmp.Compare(a.u, uint64(b.i)), true
	}
	return cmp.Compare(a.float(), b.float()), true
}

func errNonStringKeys(t reflect.Type) error {
	return fmt.Errorf("map key type %s is not a string kind", t)
}

func errNotString(v any) error {
	return fmt.Errorf(
		"item of type %T cannot be searched for in a string", v,
	)
}

func errNotCollection(v any) error {
	return fmt.Errorf("value of type %T is not a collection", v)
}
