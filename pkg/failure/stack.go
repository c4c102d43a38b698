package failure

import (
	"path"
	"reflect"
	"strings"
)

// pkgRoot is the import path prefix shared by the harness
// packages, e.g. "digital.vasic.harness/pkg".
var pkgRoot = path.Dir(reflect.TypeOf((*Failure)(nil)).Elem().PkgPath())

// internalPackages are the harness packages whose frames never
// appear in a reported stack.
var internalPackages = []string{"matcher", "failure", "runner", "suite"}

// FilterStack parses a goroutine trace as produced by
// runtime/debug.Stack and returns one "function file:line" entry
// per frame, without the goroutine header, runtime and reflect
// frames, panic frames and frames from the harness itself.
func FilterStack(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	var frames []string
	for i := 0; i < len(lines); i++ {
		fn := strings.TrimSpace(lines[i])
		if fn == "" || strings.HasPrefix(fn, "goroutine ") {
			continue
		}

		loc := ""
		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\t") {
			loc = strings.TrimSpace(lines[i+1])
			i++
		}

		fn = strings.TrimPrefix(fn, "created by ")
		if hidden(fn) {
			continue
		}
		frames = append(frames, strings.TrimSpace(
			trimArgs(fn)+" "+trimOffset(loc),
		))
	}
	return frames
}

func hidden(fn string) bool {
	switch {
	case strings.HasPrefix(fn, "panic("),
		strings.HasPrefix(fn, "runtime."),
		strings.HasPrefix(fn, "runtime/"),
		strings.HasPrefix(fn, "reflect."),
		strings.HasPrefix(fn, "testing."):
		return true
	}
	for _, p := range internalPackages {
		if strings.HasPrefix(fn, pkgRoot+"/"+p+".") {
			return true
		}
	}
	return false
}

// trimArgs drops the trailing argument list: "pkg.f(0x1, ...)"
// becomes "pkg.f".
func trimArgs(fn string) string {
	if !strings.HasSuffix(fn, ")") {
		return fn
	}
	if i := strings.LastIndex(fn, "("); i > 0 {
		return fn[:i]
	}
	return fn
}

// trimOffset drops the program counter offset: "f.go:12 +0x25"
// becomes "f.go:12".
func trimOffset(loc string) string {
	if i := strings.Index(loc, " +0x"); i >= 0 {
		return loc[:i]
	}
	return loc
}
