// Package fields provides the protocol field registry consulted by the
// compiler. Several fields may share one abbreviation (for example a field
// registered by two dissectors); such fields form a "same name" chain whose
// first-defined member is the canonical representative.
package fields

import "fmt"

// Info describes one registered field.
type Info struct {
	ID     int
	Abbrev string
	Name   string
	Type   string

	prev *Info
	next *Info
}

func (f *Info) String() string {
	return f.Abbrev
}

// SameNamePrev returns the previously defined field with the same
// abbreviation, or nil.
func (f *Info) SameNamePrev() *Info {
	return f.prev
}

// SameNameNext returns the next field defined with the same abbreviation, or
// nil.
func (f *Info) SameNameNext() *Info {
	return f.next
}

// Registry resolves same-name chains.
type Registry interface {
	// Canonical returns the first-defined field sharing f's abbreviation.
	Canonical(f *Info) *Info

	// Siblings returns every field sharing f's abbreviation, canonical first,
	// in definition order.
	Siblings(f *Info) []*Info
}

// Chains is a Registry that follows the links stored on each Info. It is
// the registry used when none is configured.
type Chains struct{}

func (Chains) Canonical(f *Info) *Info {
	for f.prev != nil {
		f = f.prev
	}
	return f
}

func (c Chains) Siblings(f *Info) []*Info {
	var out []*Info
	for s := c.Canonical(f); s != nil; s = s.next {
		out = append(out, s)
	}
	return out
}

// Table is an in-memory field registry. Field ids are assigned in
// registration order starting at zero.
type Table struct {
	Chains
	byID     []*Info
	byAbbrev map[string]*Info // last registered field per abbreviation
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byAbbrev: map[string]*Info{}}
}

// Register adds a field. If a field with the same abbreviation already
// exists, the new field is appended to its same-name chain.
func (t *Table) Register(abbrev, name, typ string) *Info {
	f := &Info{
		ID:     len(t.byID),
		Abbrev: abbrev,
		Name:   name,
		Type:   typ,
	}
	if last, ok := t.byAbbrev[abbrev]; ok {
		last.next = f
		f.prev = last
	}
	t.byAbbrev[abbrev] = f
	t.byID = append(t.byID, f)
	return f
}

// Lookup returns the canonical field registered under abbrev.
func (t *Table) Lookup(abbrev string) (*Info, bool) {
	f, ok := t.byAbbrev[abbrev]
	if !ok {
		return nil, false
	}
	return t.Canonical(f), true
}

// Field returns the field with the given id.
func (t *Table) Field(id int) (*Info, error) {
	if id < 0 || id >= len(t.byID) {
		return nil, fmt.Errorf("unknown field id %d", id)
	}
	return t.byID[id], nil
}

// Len returns the number of registered fields.
func (t *Table) Len() int {
	return len(t.byID)
}

// Abbrevs returns every registered abbreviation once, in registration order.
func (t *Table) Abbrevs() []string {
	var out []string
	for _, f := range t.byID {
		if f.prev == nil {
			out = append(out, f.Abbrev)
		}
	}
	return out
}
