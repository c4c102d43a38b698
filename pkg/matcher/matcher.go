package matcher

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

)

// Matcher holds one captured value for the duration of an
// assertion chain. It carries no other state, so independent
// matchers are safe to use from separate goroutines.
type Matcher[T any] struct {
	value T
}

// Expect captures value and returns a Matcher exposing the
// predicate catalogue.
func Expect[T any](value T) *Matcher[T] {
	return &Matcher[T]{value: value}
}

// Value returns the captured value.
func (m *Matcher[T]) Value() T { return m.value }

func (m *Matcher[T]) actual() any { return any(m.value) }

// ToBe passes when the captured value is identical to expected.
// Maps, slices, pointers, channels and funcs compare by identity;
// scalars and comparable structs compare with ==.
func (m *Matcher[T]) ToBe(expected T) error {
	same, err := identical(m.actual(), any(expected))
	if err != nil {
		return usage("ToBe", "%v", err)
	}
	if same {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBe",
		Actual:    Display(m.actual()),
		Expected:  opt(Display(any(expected))),
	})
}

// ToEqual passes when the captured value is deeply equal to
// expected. NaN equals NaN at any depth.
func (m *Matcher[T]) ToEqual(expected T) error {
	if deepEqual(m.actual(), any(expected)) {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToEqual",
		Actual:    Display(m.actual()),
		Expected:  opt(Display(any(expected))),
	})
}

// ToBeTruthy passes when the captured value coerces to true.
func (m *Matcher[T]) ToBeTruthy() error {
	if truthy(m.actual()) {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBeTruthy",
		Actual:    Display(m.actual()),
		Note:      "is not truthy",
	})
}

// ToBeFalsy passes when the captured value coerces to false.
func (m *Matcher[T]) ToBeFalsy() error {
	if !truthy(m.actual()) {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBeFalsy",
		Actual:    Display(m.actual()),
		Note:      "is not falsy",
	})
}

// ToBeDefined passes unless the captured value is Undefined.
func (m *Matcher[T]) ToBeDefined() error {
	if !isUndefined(m.actual()) {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBeDefined",
		Actual:    Display(m.actual()),
		Note:      "is not defined",
	})
}

// ToBeUndefined passes only for the Undefined sentinel.
func (m *Matcher[T]) ToBeUndefined() error {
	if isUndefined(m.actual()) {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBeUndefined",
		Actual:    Display(m.actual()),
		Note:      "is defined but should be undefined",
	})
}

// ToBeNull passes for nil and typed nils. Undefined is not null.
func (m *Matcher[T]) ToBeNull() error {
	if isNull(m.actual()) {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBeNull",
		Actual:    Display(m.actual()),
		Note:      "should be null",
	})
}

// ToBeNaN passes when the captured number is not-a-number.
func (m *Matcher[T]) ToBeNaN() error {
	n, ok := toNumber(m.actual())
	if !ok {
		return usage(
			"ToBeNaN", "value of type %T is not numeric",
			m.actual(),
		)
	}
	if n.isNaN() {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToBeNaN",
		Actual:    Display(m.actual()),
		Note:      "should be NaN",
	})
}

// ToBeInstanceOf passes when the captured value's dynamic type is
// target, or implements target when target is an interface type.
func (m *Matcher[T]) ToBeInstanceOf(target reflect.Type) error {
	if target == nil {
		return usage("ToBeInstanceOf", "target type is nil")
	}

	actualType := "null"
	if v := m.actual(); v != nil {
		t := reflect.TypeOf(v)
		actualType = t.String()
		if t == target ||
			(target.Kind() == reflect.Interface &&
				t.Implements(target)) {
			return nil
		}
	}

	return fail(Outcome{
		Predicate: "ToBeInstanceOf",
		Actual:    actualType,
		Expected:  opt(target.String()),
		Note:      "is not an instance of " + target.String(),
	})
}

// ToMatch passes when a string pattern is a substring of the
// captured text, or a *regexp.Regexp pattern matches it. Case
// sensitivity follows the pattern's own flags, e.g. (?i).
func (m *Matcher[T]) ToMatch(pattern any) error {
	text, ok := stringLike(m.actual())
	if !ok {
		return usage(
			"ToMatch", "value of type %T is not a string",
			m.actual(),
		)
	}

	var matched bool
	switch p := pattern.(type) {
	case string:
		matched = strings.Contains(text, p)
	case *regexp.Regexp:
		if p == nil {
			return usage("ToMatch", "pattern is a nil regexp")
		}
		matched = p.MatchString(text)
	default:
		return usage(
			"ToMatch",
			"pattern must be a string or *regexp.Regexp, got %T",
			pattern,
		)
	}

	if matched {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToMatch",
		Actual:    text,
		Expected:  opt(Display(pattern)),
		Note:      "does not match",
	})
}

// ToHaveProperty passes when the captured map or struct holds a
// non-Undefined entry for key. Pointers are followed.
func (m *Matcher[T]) ToHaveProperty(key string) error {
	present, keys, structured, err := lookupProperty(
		m.actual(), key,
	)
	if err != nil {
		return usage("ToHaveProperty", "%v", err)
	}
	if present {
		return nil
	}

	o := Outcome{
		Predicate: "ToHaveProperty",
		Actual:    Display(m.actual()),
		Expected:  opt(key),
		Note:      "has no property " + strconv.Quote(key),
	}
	if structured {
		o.ActualDetail = opt(Display(keys))
	} else {
		o.Note = "is not an object"
	}
	return fail(o)
}

// lookupProperty resolves key against maps with string-kinded
// keys and against exported struct fields.
func lookupProperty(
	v any, key string,
) (present bool, keys []string, structured bool, err error) {
	if isNull(v) {
		return false, nil, false, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false, nil, false, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return false, nil, true, errNonStringKeys(kt)
		}
		keys = make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		entry := rv.MapIndex(reflect.ValueOf(key).Convert(kt))
		if !entry.IsValid() {
			return false, keys, true, nil
		}
		return !isUndefined(entry.Interface()), keys, true, nil

	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				keys = append(keys, t.Field(i).Name)
			}
		}
		sort.Strings(keys)
		sf, ok := t.FieldByName(key)
		if !ok || !sf.IsExported() {
			return false, keys, true, nil
		}
		field := rv.FieldByIndex(sf.Index)
		return !isUndefined(field.Interface()), keys, true, nil
	}

	return false, nil, false, nil
}

// ToHaveLength passes when the captured value's length equals n
// exactly. Strings are measured in runes.
func (m *Matcher[T]) ToHaveLength(n int) error {
	length, ok := lengthOf(m.actual())
	if !ok {
		return usage(
			"ToHaveLength", "value of type %T has no length",
			m.actual(),
		)
	}
	if length == n {
		return nil
	}
	return fail(Outcome{
		Predicate:    "ToHaveLength",
		Actual:       Display(m.actual()),
		Expected:     opt(strconv.Itoa(n)),
		ActualDetail: opt(strconv.Itoa(length)),
		Note:         "has length " + strconv.Itoa(length),
	})
}

// ToContain passes when a captured string holds item as a
// substring, a slice or array holds an element equal to item, or
// a map holds item as a key.
func (m *Matcher[T]) ToContain(item any) error {
	found, err := contains(m.actual(), item)
	if err != nil {
		return usage("ToContain", "%v", err)
	}
	if found {
		return nil
	}
	return fail(Outcome{
		Predicate: "ToContain",
		Actual:    Display(m.actual()),
		Expected:  opt(Display(item)),
		Note:      "does not contain " + Display(item),
	})
}

func contains(collection, item any) (bool, error) {
	if text, ok := stringLike(collection); ok {
		sub, ok := stringLike(item)
		if !ok {
			return false, errNotString(item)
		}
		return strings.Contains(text, sub), nil
	}

	if isNull(collection) {
		return false, nil
	}

	rv := reflect.ValueOf(collection)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if deepEqual(item, rv.Index(i).Interface()) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if deepEqual(item, k.Interface()) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, errNotCollection(collection)
}

// ToBeGreaterThan passes when the captured number is > n.
func (m *Matcher[T]) ToBeGreaterThan(n any) error {
	return m.compare("ToBeGreaterThan", ">", n,
		func(order int) bool { return order > 0 })
}

// ToBeGreaterThanOrEqual passes when the captured number is >= n.
func (m *Matcher[T]) ToBeGreaterThanOrEqual(n any) error {
	return m.compare("ToBeGreaterThanOrEqual", ">=", n,
		func(order int) bool { return order >= 0 })
}

// ToBeLessThan passes when the captured number is < n.
func (m *Matcher[T]) ToBeLessThan(n any) error {
	return m.compare("ToBeLessThan", "<", n,
		func(order int) bool { return order < 0 })
}

// ToBeLessThanOrEqual passes when the captured number is <= n.
func (m *Matcher[T]) ToBeLessThanOrEqual(n any) error {
	return m.compare("ToBeLessThanOrEqual", "<=", n,
		func(order int) bool { return order <= 0 })
}

func (m *Matcher[T]) compare(
	predicate, op string, operand any, accept func(int) bool,
) error {
	a, ok := toNumber(m.actual())
	if !ok {
		return usage(
			predicate, "value of type %T is not numeric",
			m.actual(),
		)
	}
	b, ok := toNumber(operand)
	if !ok {
		return usage(
			predicate, "operand of type %T is not numeric",
			operand,
		)
	}

	order, ordered := compareNumbers(a, b)
	if ordered && accept(order) {
		return nil
	}
	return fail(Outcome{
		Predicate: predicate,
		Actual:    Display(m.actual()),
		Expected:  opt(Display(operand)),
		Note:      "expected value " + op + " " + Display(operand),
	})
}
