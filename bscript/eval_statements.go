package bscript

import "errors"

// Run executes a Program, StatementList, StatementBlock or Statement node.
// The bool result reports whether a return statement produced the value.
// exit() ends the run early with no value and no error.
func Run(root *Node, t *SymbolTable) (Value, bool, error) {
	node := root
	if root != nil && root.Kind == KindProgram {
		if err := shape(root, KindProgram, 1); err != nil {
			return NewVoid(), false, err
		}
		node = root.Child(0)
	}
	v, returned, err := runStatementList(node, t)
	if errors.Is(err, errExit) {
		return NewVoid(), false, nil
	}
	return v, returned, err
}

func runStatementList(n *Node, t *SymbolTable) (Value, bool, error) {
	if err := t.check(); err != nil {
		return NewVoid(), false, err
	}
	if n == nil {
		return NewVoid(), false, internalf(nil, "missing statement list")
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), false, err
	}
	defer t.exitNode()

	switch n.Kind {
	case KindStatementBlock:
		if err := shape(n, KindStatementBlock, 3); err != nil {
			return NewVoid(), false, err
		}
		var (
			v        Value
			returned bool
		)
		err := t.WithFrame(func() error {
			var err error
			v, returned, err = runStatementList(n.Child(1), t)
			return err
		})
		return v, returned, err

	case KindStatement:
		return runStatement(n, t)

	case KindStatementList:
		stmts, err := flattenStatements(n)
		if err != nil {
			return NewVoid(), false, err
		}
		for _, stmt := range stmts {
			v, returned, err := runStatement(stmt, t)
			if err != nil || returned {
				return v, returned, err
			}
		}
		return NewVoid(), false, nil

	default:
		return NewVoid(), false, internalf(n, "expected Statement, StatementBlock or StatementList, got %s", n.Kind)
	}
}

// flattenStatements unrolls the left-nested list into source order.
func flattenStatements(n *Node) ([]*Node, error) {
	var rev []*Node
	cur := n
	for {
		if err := shape(cur, KindStatementList, 1, 2); err != nil {
			return nil, err
		}
		if len(cur.Children) == 1 {
			rev = append(rev, cur.Child(0))
			break
		}
		rev = append(rev, cur.Child(1))
		cur = cur.Child(0)
	}
	out := make([]*Node, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out, nil
}

func runStatement(n *Node, t *SymbolTable) (Value, bool, error) {
	if err := t.check(); err != nil {
		return NewVoid(), false, err
	}
	if err := shape(n, KindStatement, 1, 2); err != nil {
		return NewVoid(), false, err
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), false, err
	}
	defer t.exitNode()

	inner := n.Child(0)
	switch inner.Kind {
	case KindReturn:
		return runReturn(inner, t)

	case KindCall:
		if len(n.Children) != 2 || n.Child(1).Kind != KindTerm {
			return NewVoid(), false, internalf(n, "call statement without terminator")
		}
		_, err := evalCall(inner, t)
		return NewVoid(), false, err

	case KindAssignment:
		return NewVoid(), false, runAssignment(inner, t)

	case KindFunctionDef:
		fn, err := newScriptFunction(inner)
		if err != nil {
			return NewVoid(), false, err
		}
		if err := t.Set(fn.Name, NewFunction(fn), false); err != nil {
			return NewVoid(), false, refError(err, inner)
		}
		return NewVoid(), false, nil

	case KindConditional:
		return runConditional(inner, t)

	case KindLoop:
		return runLoop(inner, t)

	case KindForLoop:
		return runForLoop(inner, t)

	default:
		return NewVoid(), false, internalf(inner, "invalid Statement child %s", inner.Kind)
	}
}

func runReturn(n *Node, t *SymbolTable) (Value, bool, error) {
	if err := shape(n, KindReturn, 2, 3); err != nil {
		return NewVoid(), false, err
	}
	if len(n.Children) == 2 {
		return NewVoid(), true, nil
	}
	v, err := ComputeValue(n.Child(1), t)
	if err != nil {
		return NewVoid(), false, err
	}
	return v, true, nil
}

// runAssignment either stores a copy of the right side through the target's
// references, or, for `x = &y`, rebinds the target cell itself as an alias.
func runAssignment(n *Node, t *SymbolTable) error {
	if err := shape(n, KindAssignment, 4); err != nil {
		return err
	}
	lv, rhs := n.Child(0), n.Child(2)

	switch rhs.Kind {
	case KindReference:
		if err := shape(rhs, KindReference, 2); err != nil {
			return err
		}
		target, err := resolveLValue(rhs.Child(1), t, false)
		if err != nil {
			return err
		}
		cell, err := resolveLValue(lv, t, true)
		if err != nil {
			return err
		}
		cell.Store(NewRef(target))
		return nil

	case KindValue:
		v, err := ComputeValue(rhs, t)
		if err != nil {
			return err
		}
		cell, err := resolveLValue(lv, t, true)
		if err != nil {
			return err
		}
		if err := cell.Set(v.Copy()); err != nil {
			return refError(err, lv)
		}
		return nil

	default:
		return internalf(rhs, "invalid Assignment value %s", rhs.Kind)
	}
}
