// Package host holds the storage a host program binds scripts to.
// Bindings owns one float or boolean cell per name and builds the registries
// the compiler consumes. A name lives in exactly one of the two namespaces.
package host

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/zurustar/tinyscript/pkg/registry"
)

// Bindings maps names to host-owned cells.
type Bindings struct {
	floats map[string]*float64
	bools  map[string]*bool
}

// NewBindings creates an empty set of bindings.
func NewBindings() *Bindings {
	return &Bindings{
		floats: make(map[string]*float64),
		bools:  make(map[string]*bool),
	}
}

// SetFloat binds name as a float variable, or updates it if already bound.
// The cell address of an existing binding does not change, so compiled
// programs keep seeing it.
func (b *Bindings) SetFloat(name string, v float64) error {
	if !registry.IsIdentifier(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	if _, ok := b.bools[name]; ok {
		return fmt.Errorf("%q is already bound as a boolean", name)
	}
	if cell, ok := b.floats[name]; ok {
		*cell = v
		return nil
	}
	b.floats[name] = &v
	return nil
}

// SetBool binds name as a boolean, or updates it if already bound.
func (b *Bindings) SetBool(name string, v bool) error {
	if !registry.IsIdentifier(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	if _, ok := b.floats[name]; ok {
		return fmt.Errorf("%q is already bound as a float", name)
	}
	if cell, ok := b.bools[name]; ok {
		*cell = v
		return nil
	}
	b.bools[name] = &v
	return nil
}

// Float returns the value bound to name.
func (b *Bindings) Float(name string) (float64, bool) {
	cell, ok := b.floats[name]
	if !ok {
		return 0, false
	}
	return *cell, true
}

// Bool returns the value bound to name.
func (b *Bindings) Bool(name string) (bool, bool) {
	cell, ok := b.bools[name]
	if !ok {
		return false, false
	}
	return *cell, true
}

// Len returns the number of bound names.
func (b *Bindings) Len() int {
	return len(b.floats) + len(b.bools)
}

// Names returns every bound name, sorted.
func (b *Bindings) Names() []string {
	names := make([]string, 0, b.Len())
	for name := range b.floats {
		names = append(names, name)
	}
	for name := range b.bools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registries builds the registries for the current bindings.
// Names bound later are not visible to registries built earlier.
func (b *Bindings) Registries() (registry.Variables, registry.Booleans, error) {
	vars, err := registry.FromMap(b.floats)
	if err != nil {
		return registry.Variables{}, registry.Booleans{}, err
	}
	bools, err := registry.FromMap(b.bools)
	if err != nil {
		return registry.Variables{}, registry.Booleans{}, err
	}
	return vars, bools, nil
}

// Format returns "name = value" for a bound name.
func (b *Bindings) Format(name string) (string, bool) {
	if v, ok := b.Float(name); ok {
		return name + " = " + strconv.FormatFloat(v, 'g', -1, 64), true
	}
	if v, ok := b.Bool(name); ok {
		return name + " = " + strconv.FormatBool(v), true
	}
	return "", false
}

// Fprint writes every binding, one "name = value" per line, sorted by name.
func (b *Bindings) Fprint(w io.Writer) error {
	for _, name := range b.Names() {
		line, _ := b.Format(name)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
