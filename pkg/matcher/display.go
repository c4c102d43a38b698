package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Display renders a value for reporting. Primitives render as
// their literal, structured values as canonical JSON (map keys
// sorted), so structurally equal inputs always render the same.
func Display(value any) string {
	if isNull(value) {
		return "null"
	}

	switch v := value.(type) {
	case undefinedValue:
		return "undefined"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case error:
		return v.Error()
	case *regexp.Regexp:
		return "/" + v.String() + "/"
	case reflect.Type:
		return v.String()
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Func:
		return rv.Type().String()
	case reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%s(%#x)", rv.Type(), rv.Pointer())
	}

	return canonicalJSON(value)
}

// canonicalJSON marshals structured values without HTML escaping
// and falls back to Go syntax for values JSON cannot encode.
func canonicalJSON(value any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Sprintf("%#v", value)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
