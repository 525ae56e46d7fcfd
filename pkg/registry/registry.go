// Package registry provides the host-owned name-to-slot tables that scripts
// read from and assign to.
//
// A registry never allocates or frees the slots it points at: the host owns
// every float64 and bool cell and must keep them alive for as long as any
// script compiled against the registry is evaluated. Entries are kept sorted
// by name so that the positional index of a name is deterministic; compiled
// scripts refer to slots by that index only.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// Value is the set of slot types a registry can hold.
type Value interface {
	~float64 | ~bool
}

// Entry binds a script-visible name to a host-owned slot.
type Entry[T Value] struct {
	Name string
	Slot *T
}

// Registry is an ordered, immutable table of entries.
// The zero value is an empty registry.
type Registry[T Value] struct {
	entries []Entry[T]
}

// Variables is the registry of float slots.
type Variables = Registry[float64]

// Booleans is the registry of boolean slots.
type Booleans = Registry[bool]

var (
	// ErrDuplicateName is returned when a name is bound twice.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrInvalidName is returned when a name is not a valid script identifier.
	ErrInvalidName = errors.New("invalid name")
)

// Float creates a float entry.
func Float(name string, slot *float64) Entry[float64] {
	return Entry[float64]{Name: name, Slot: slot}
}

// Bool creates a boolean entry.
func Bool(name string, slot *bool) Entry[bool] {
	return Entry[bool]{Name: name, Slot: slot}
}

// New creates a registry from the given entries.
// Entries are sorted by name; a repeated or malformed name is an error.
func New[T Value](entries ...Entry[T]) (Registry[T], error) {
	sorted := make([]Entry[T], len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	for i, e := range sorted {
		if !IsIdentifier(e.Name) {
			return Registry[T]{}, fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return Registry[T]{}, fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
	}

	return Registry[T]{entries: sorted}, nil
}

// FromMap creates a registry from a name to slot map.
func FromMap[T Value](slots map[string]*T) (Registry[T], error) {
	entries := make([]Entry[T], 0, len(slots))
	for name, slot := range slots {
		entries = append(entries, Entry[T]{Name: name, Slot: slot})
	}
	return New(entries...)
}

// MustNew is like New but panics on error. Intended for tests and static tables.
func MustNew[T Value](entries ...Entry[T]) Registry[T] {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of entries.
func (r Registry[T]) Len() int {
	return len(r.entries)
}

// Index returns the position of name, or -1 if the name is not bound.
func (r Registry[T]) Index(name string) int {
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].Name >= name
	})
	if i < len(r.entries) && r.entries[i].Name == name {
		return i
	}
	return -1
}

// Contains reports whether name is bound.
func (r Registry[T]) Contains(name string) bool {
	return r.Index(name) >= 0
}

// Name returns the name at index i.
func (r Registry[T]) Name(i int) string {
	if i < 0 || i >= len(r.entries) {
		return ""
	}
	return r.entries[i].Name
}

// Names returns all bound names in index order.
func (r Registry[T]) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Get reads the slot at index i.
// The second result is false when the index is out of range or the slot is nil;
// the value is then the zero value.
func (r Registry[T]) Get(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(r.entries) || r.entries[i].Slot == nil {
		return zero, false
	}
	return *r.entries[i].Slot, true
}

// Set writes v into the slot at index i.
// Writes to an out-of-range index or a nil slot are dropped and reported as false.
func (r Registry[T]) Set(i int, v T) bool {
	if i < 0 || i >= len(r.entries) || r.entries[i].Slot == nil {
		return false
	}
	*r.entries[i].Slot = v
	return true
}

// Clone returns a copy of the registry whose entry table is independent of r.
// Slots are shared: both registries still point at the same host cells.
func (r Registry[T]) Clone() Registry[T] {
	entries := make([]Entry[T], len(r.entries))
	copy(entries, r.entries)
	return Registry[T]{entries: entries}
}

// IsIdentifier reports whether name can be written in a script:
// a letter followed by letters, digits or underscores.
func IsIdentifier(name string) bool {
	if name == "" || !IsLetter(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		ch := name[i]
		if !IsLetter(ch) && !IsDigit(ch) && ch != '_' {
			return false
		}
	}
	return true
}

// IsLetter checks if a character is an ASCII letter.
func IsLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

// IsDigit checks if a character is a decimal digit.
func IsDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
