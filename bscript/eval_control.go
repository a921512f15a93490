package bscript

func runLoop(n *Node, t *SymbolTable) (Value, bool, error) {
	if err := shape(n, KindLoop, 2); err != nil {
		return NewVoid(), false, err
	}
	head := n.Child(0)
	if err := shape(head, KindLoopHeader, 2); err != nil {
		return NewVoid(), false, err
	}

	for {
		if err := t.check(); err != nil {
			return NewVoid(), false, err
		}
		ok, err := evaluateCond(head.Child(1), t)
		if err != nil {
			return NewVoid(), false, err
		}
		if !ok {
			return NewVoid(), false, nil
		}
		v, returned, err := runStatementList(n.Child(1), t)
		if err != nil || returned {
			return v, returned, err
		}
	}
}

// runForLoop binds the loop variable in a fresh frame per iteration. The
// variable aliases the element cell, so assigning to it writes the element.
func runForLoop(n *Node, t *SymbolTable) (Value, bool, error) {
	if err := shape(n, KindForLoop, 2); err != nil {
		return NewVoid(), false, err
	}
	head := n.Child(0)
	if err := shape(head, KindForHeader, 6); err != nil {
		return NewVoid(), false, err
	}
	iter := head.Child(2)
	if err := shape(iter, KindIdentifier); err != nil {
		return NewVoid(), false, err
	}

	arr, err := ComputeValue(head.Child(4), t)
	if err != nil {
		return NewVoid(), false, err
	}
	if arr.Kind() != ValueArray {
		return NewVoid(), false, errorAt(head.Child(4), "For loop can only iterate over Array type")
	}

	body := n.Child(1)
	for _, cell := range arr.Cells() {
		if err := t.check(); err != nil {
			return NewVoid(), false, err
		}
		var (
			v        Value
			returned bool
		)
		err := t.WithFrame(func() error {
			t.Bind(iter.Text, cell)
			var err error
			v, returned, err = runStatementList(body, t)
			return err
		})
		if err != nil || returned {
			return v, returned, err
		}
	}
	return NewVoid(), false, nil
}

func runConditional(n *Node, t *SymbolTable) (Value, bool, error) {
	if err := shape(n, KindConditional, 1); err != nil {
		return NewVoid(), false, err
	}

	inner := n.Child(0)
	switch inner.Kind {
	case KindElifChain:
		v, returned, _, err := runElifChain(inner, t)
		return v, returned, err

	case KindElseClause:
		if err := shape(inner, KindElseClause, 2); err != nil {
			return NewVoid(), false, err
		}
		v, returned, ran, err := runElifChain(inner.Child(0), t)
		if err != nil || ran {
			return v, returned, err
		}
		elseBlock := inner.Child(1)
		if err := shape(elseBlock, KindElseBlock, 2); err != nil {
			return NewVoid(), false, err
		}
		return runStatementList(elseBlock.Child(1), t)

	default:
		return NewVoid(), false, internalf(inner, "invalid Conditional child %s", inner.Kind)
	}
}

// runElifChain tests branches in source order and runs the first one whose
// condition holds. ran reports whether any branch was taken.
func runElifChain(n *Node, t *SymbolTable) (v Value, returned, ran bool, err error) {
	if err := shape(n, KindElifChain, 1, 2); err != nil {
		return NewVoid(), false, false, err
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), false, false, err
	}
	defer t.exitNode()

	branch := n.Child(0)
	branchKind, headKind := KindIfBlock, KindIfHeader
	if len(n.Children) == 2 {
		v, returned, ran, err = runElifChain(n.Child(0), t)
		if err != nil || ran {
			return v, returned, ran, err
		}
		branch = n.Child(1)
		branchKind, headKind = KindElifBlock, KindElifHeader
	}

	if err := shape(branch, branchKind, 2); err != nil {
		return NewVoid(), false, false, err
	}
	head := branch.Child(0)
	if err := shape(head, headKind, 2); err != nil {
		return NewVoid(), false, false, err
	}
	ok, err := evaluateCond(head.Child(1), t)
	if err != nil || !ok {
		return NewVoid(), false, false, err
	}
	v, returned, err = runStatementList(branch.Child(1), t)
	return v, returned, true, err
}
