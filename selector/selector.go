// Package selector resolves dotted field paths against nested document values.
package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nasdf/odm/value"
)

// Delimiter separates the segments of a selector.
const Delimiter = "."

// ErrInvalidSelector is returned when a selector is empty or contains an empty segment.
var ErrInvalidSelector = errors.New("invalid selector")

// Path is a parsed selector.
type Path []string

// Parse splits the given selector into a path.
func Parse(selector string) (Path, error) {
	if selector == "" {
		return nil, fmt.Errorf("%w: selector not specified", ErrInvalidSelector)
	}
	segments := strings.Split(selector, Delimiter)
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidSelector, selector)
		}
	}
	return Path(segments), nil
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, Delimiter)
}

// IsAncestorOf returns true if other is strictly nested below p.
func (p Path) IsAncestorOf(other Path) bool {
	if len(p) >= len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Lookup returns the value at the given path and true if it exists.
//
// Resolution stops as soon as a segment is missing or is not a map.
func Lookup(tree *value.Map, p Path) (value.Value, bool) {
	var current value.Value = tree
	for _, s := range p {
		m, ok := current.(*value.Map)
		if !ok {
			return nil, false
		}
		current, ok = m.Get(s)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Get returns the value at the given path.
//
// Absent paths and null values both return nil.
func Get(tree *value.Map, p Path) value.Value {
	v, ok := Lookup(tree, p)
	if !ok || value.IsNull(v) {
		return nil
	}
	return v
}

// Set stores the value at the given path, creating intermediate maps as needed.
//
// An intermediate segment holding a non-map value is replaced with an empty map.
func Set(tree *value.Map, p Path, v value.Value) {
	section := tree
	for _, s := range p[:len(p)-1] {
		next, ok := section.Get(s)
		m, isMap := next.(*value.Map)
		if !ok || !isMap {
			m = value.NewMap()
			section.Set(s, m)
		}
		section = m
	}
	section.Set(p[len(p)-1], v)
}

// Remove deletes the value at the given path and returns true if it existed.
func Remove(tree *value.Map, p Path) bool {
	parent, ok := Lookup(tree, p[:len(p)-1])
	if !ok {
		return false
	}
	m, ok := parent.(*value.Map)
	if !ok {
		return false
	}
	return m.Delete(p[len(p)-1])
}
