package bscript

import (
	"errors"
	"sort"
)

// maxRefHops bounds reference chains so that a cycle such as r = &r is
// reported instead of looping forever.
const maxRefHops = 64

var (
	errExpiredRef = errors.New("reference target no longer exists")
	errRefCycle   = errors.New("reference chain too long or cyclic")
)

// Cell is the shared, mutable storage behind a binding or array slot. Any
// number of bindings may point at the same cell; properties live on the cell.
//
// Frame bindings, array slots and property slots own the cells they hold.
// A live cell owns its array elements and properties in turn. When the last
// owner lets go the cell is released and references to it expire at once.
// A cell that was never owned, such as one built by a host, stays live until
// the garbage collector reclaims it.
type Cell struct {
	value    Value
	props    map[string]*Cell
	methods  map[string]*Function
	owners   int
	released bool
}

func NewCell(v Value) *Cell {
	return &Cell{value: v}
}

// Load returns the raw stored value without following references.
func (c *Cell) Load() Value {
	return c.value
}

// Store overwrites the raw stored value. Array elements of the old value
// lose c as an owner; those of v gain it.
func (c *Cell) Store(v Value) {
	if c.owners > 0 {
		for _, e := range v.Cells() {
			e.retain()
		}
		for _, e := range c.value.Cells() {
			e.release()
		}
	}
	c.value = v
}

// Alive reports whether c can still be reached through a reference.
func (c *Cell) Alive() bool {
	return !c.released
}

func (c *Cell) retain() {
	c.owners++
	if c.owners == 1 {
		c.released = false
		c.eachChild((*Cell).retain)
	}
}

func (c *Cell) release() {
	if c.owners == 0 {
		return
	}
	c.owners--
	if c.owners == 0 {
		c.released = true
		c.eachChild((*Cell).release)
	}
}

func (c *Cell) eachChild(fn func(*Cell)) {
	for _, e := range c.value.Cells() {
		fn(e)
	}
	for _, p := range c.props {
		fn(p)
	}
}

// Target follows any chain of references starting at c and returns the
// concrete cell at the end.
func (c *Cell) Target() (*Cell, error) {
	cur := c
	for range maxRefHops {
		if cur.value.kind != ValueRef {
			return cur, nil
		}
		next := cur.value.refTarget().Value()
		if next == nil || next.released {
			return nil, errExpiredRef
		}
		cur = next
	}
	return nil, errRefCycle
}

// Get follows references and returns the concrete value.
func (c *Cell) Get() (Value, error) {
	target, err := c.Target()
	if err != nil {
		return NewVoid(), err
	}
	return target.value, nil
}

// Set writes v through any references into the concrete target cell.
func (c *Cell) Set(v Value) error {
	target, err := c.Target()
	if err != nil {
		return err
	}
	target.Store(v)
	return nil
}

// Property returns the named property cell, if present.
func (c *Cell) Property(name string) (*Cell, bool) {
	p, ok := c.props[name]
	return p, ok
}

// SetProperty binds name to cell p, replacing any previous binding.
func (c *Cell) SetProperty(name string, p *Cell) {
	if c.props == nil {
		c.props = make(map[string]*Cell)
	}
	old, had := c.props[name]
	c.props[name] = p
	if c.owners > 0 {
		p.retain()
		if had {
			old.release()
		}
	}
}

// Keys lists user property names in sorted order.
func (c *Cell) Keys() []string {
	keys := make([]string, 0, len(c.props))
	for k := range c.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func derefValue(v Value) (Value, error) {
	if v.kind != ValueRef {
		return v, nil
	}
	target := v.refTarget().Value()
	if target == nil || target.released {
		return NewVoid(), errExpiredRef
	}
	return target.Get()
}
