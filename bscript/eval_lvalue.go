package bscript

import "errors"

// resolveLValue walks an identifier, property and index chain to the cell it
// names. With create set, missing identifiers and properties are made on the
// way; otherwise they are errors.
func resolveLValue(n *Node, t *SymbolTable, create bool) (*Cell, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if err := shape(n, KindLValue, 1); err != nil {
		return nil, err
	}
	if err := t.enterNode(n); err != nil {
		return nil, err
	}
	defer t.exitNode()

	inner := n.Child(0)
	switch inner.Kind {
	case KindIdentifier:
		c, ok := t.Get(inner.Text, create)
		if !ok {
			return nil, errorAt(inner, "Cannot access undefined identifier: '%s'", inner.Text)
		}
		return c, nil

	case KindProperty:
		if err := shape(inner, KindProperty, 3); err != nil {
			return nil, err
		}
		name := inner.Child(2)
		if err := shape(name, KindIdentifier); err != nil {
			return nil, err
		}
		base, err := resolveLValue(inner.Child(0), t, create)
		if err != nil {
			return nil, err
		}
		target, err := base.Target()
		if err != nil {
			return nil, refError(err, inner.Child(0))
		}
		p, err := propertyCell(target, name.Text, create)
		if err != nil {
			return nil, attach(err, name)
		}
		return p, nil

	case KindArrayIndex:
		if err := shape(inner, KindArrayIndex, 4); err != nil {
			return nil, err
		}
		base, err := resolveLValue(inner.Child(0), t, create)
		if err != nil {
			return nil, err
		}
		idx, err := ComputeValue(inner.Child(2), t)
		if err != nil {
			return nil, err
		}
		target, err := base.Target()
		if err != nil {
			return nil, refError(err, inner.Child(0))
		}
		arr := target.Load()
		if arr.Kind() != ValueArray {
			return nil, errorAt(inner.Child(0), "Array access on non-array type")
		}
		if idx.Kind() != ValueNumeric {
			return nil, errorAt(inner.Child(2), "Array indices must be Numeric")
		}
		j, ok := wholeCount(idx.Number())
		if !ok {
			return nil, errorAt(inner.Child(2), "Array indices must be non-negative integers, got %s", FormatNumber(idx.Number()))
		}
		cells := arr.Cells()
		if j >= len(cells) {
			return nil, errorAt(inner.Child(2), "Array index %d out of bounds", j)
		}
		return cells[j], nil

	default:
		return nil, internalf(inner, "invalid LValue child %s", inner.Kind)
	}
}

// readLValue resolves n and loads the concrete value behind it. Reading an
// expired reference logs a warning and yields Void.
func readLValue(n *Node, t *SymbolTable) (Value, error) {
	c, err := resolveLValue(n, t, false)
	if err != nil {
		return NewVoid(), err
	}
	v, err := c.Get()
	if errors.Is(err, errExpiredRef) {
		t.logger.Warn("read of expired reference", "name", lvalueName(n), "pos", n.Pos.String())
		return NewVoid(), nil
	}
	if err != nil {
		return NewVoid(), refError(err, n)
	}
	return v, nil
}

func refError(err error, n *Node) error {
	switch {
	case errors.Is(err, errExpiredRef):
		return errorAt(n, "Reference target no longer exists")
	case errors.Is(err, errRefCycle):
		return errorAt(n, "Reference chain is cyclic or too deep")
	default:
		return attach(err, n)
	}
}
