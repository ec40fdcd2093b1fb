package loader

import (
	"strconv"
	"strings"
)

// SelectorKind identifies how an asset key addresses an entity inside a source file.
type SelectorKind int

const (
	// SelectorFirst selects the first entity of the requested type in the file.
	// Used when the key carries no "#selector" fragment.
	SelectorFirst SelectorKind = iota

	// SelectorIndex selects an entity by zero-based index.
	SelectorIndex

	// SelectorName selects an entity by name.
	SelectorName
)

// Selector is the parsed form of the "#selector" fragment of an asset key.
// Exactly one of Index/Name is meaningful depending on Kind.
type Selector struct {
	Kind  SelectorKind
	Index int
	Name  string
}

// ParseKey splits an asset key of the form "path" or "path#selector" into the
// source file path and a Selector. A numeric selector is treated as a zero-based
// index, any other non-empty selector as a name, and an absent selector as First.
//
// Parameters:
//   - key: the asset key to parse
//
// Returns:
//   - string: the source file path
//   - Selector: the parsed selector
func ParseKey(key string) (string, Selector) {
	path, fragment, found := strings.Cut(key, "#")
	if !found || fragment == "" {
		return path, Selector{Kind: SelectorFirst}
	}
	if idx, err := strconv.Atoi(fragment); err == nil {
		return path, Selector{Kind: SelectorIndex, Index: idx}
	}
	return path, Selector{Kind: SelectorName, Name: fragment}
}

// ComposeKey builds the canonical "path#index" asset key for an entity addressed
// by numeric index, as used for material, texture, and sampler references
// discovered during import.
//
// Parameters:
//   - path: the source file path
//   - index: the zero-based entity index
//
// Returns:
//   - string: the composed asset key
func ComposeKey(path string, index int) string {
	return path + "#" + strconv.Itoa(index)
}

// String renders the selector for error messages.
//
// Returns:
//   - string: a human-readable description of the selector
func (s Selector) String() string {
	switch s.Kind {
	case SelectorIndex:
		return "index " + strconv.Itoa(s.Index)
	case SelectorName:
		return "name " + strconv.Quote(s.Name)
	default:
		return "first"
	}
}
