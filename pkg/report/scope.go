package report

import "strings"

// DefaultIndentSize is the number of spaces per nesting level.
const DefaultIndentSize = 2

// Scope locates a report line in the describe tree. It is a
// value: each group hands a derived copy to its children.
type Scope struct {
	Depth int      `json:"depth" yaml:"depth"`
	Path  []string `json:"path" yaml:"path"`
}

// Enter returns the scope of a child named name.
func (s Scope) Enter(name string) Scope {
	path := make([]string, len(s.Path), len(s.Path)+1)
	copy(path, s.Path)
	return Scope{Depth: s.Depth + 1, Path: append(path, name)}
}

// Join renders the path with " > " separators, followed by name
// when it is not empty.
func (s Scope) Join(name string) string {
	parts := s.Path
	if name != "" {
		parts = append(parts[:len(parts):len(parts)], name)
	}
	return strings.Join(parts, " > ")
}

// Indentation tracks the nesting level of one run. The zero
// value has size 0 and renders no padding.
type Indentation struct {
	level int
	size  int
}

// NewIndentation creates an Indentation with size spaces per
// level.
func NewIndentation(size int) *Indentation {
	if size < 0 {
		size = 0
	}
	return &Indentation{size: size}
}

// Reset returns to level 0.
func (i *Indentation) Reset() { i.level = 0 }

// Increase moves one level deeper.
func (i *Indentation) Increase() { i.level++ }

// Decrease moves one level out, never below 0.
func (i *Indentation) Decrease() {
	if i.level > 0 {
		i.level--
	}
}

// Level returns the current nesting level.
func (i *Indentation) Level() int { return i.level }

// Size returns the spaces per level.
func (i *Indentation) Size() int { return i.size }

// String renders the padding for the current level.
func (i *Indentation) String() string { return Pad(i.level, i.size) }

// Pad returns depth*size spaces.
func Pad(depth, size int) string {
	if depth <= 0 || size <= 0 {
		return ""
	}
	return strings.Repeat(" ", depth*size)
}
