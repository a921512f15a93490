package bscript

import "strconv"

// ComputeValue evaluates a Value node.
func ComputeValue(n *Node, t *SymbolTable) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := shape(n, KindValue, 1); err != nil {
		return NewVoid(), err
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), err
	}
	defer t.exitNode()
	return evalOr(n.Child(0), t)
}

// evalBinary handles the shared shape of the left-recursive operator levels:
// kind(next) or kind(kind, op, next).
func evalBinary(
	n *Node,
	t *SymbolTable,
	kind Kind,
	self, next func(*Node, *SymbolTable) (Value, error),
	apply func(op *Node, lhs, rhs Value) (Value, error),
) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := shape(n, kind, 1, 3); err != nil {
		return NewVoid(), err
	}
	if len(n.Children) == 1 {
		return next(n.Child(0), t)
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), err
	}
	defer t.exitNode()
	lhs, err := self(n.Child(0), t)
	if err != nil {
		return NewVoid(), err
	}
	rhs, err := next(n.Child(2), t)
	if err != nil {
		return NewVoid(), err
	}
	v, err := apply(n.Child(1), lhs, rhs)
	if err != nil {
		return NewVoid(), attach(err, n)
	}
	return v, nil
}

// Both operands of and/or are always evaluated.
func evalOr(n *Node, t *SymbolTable) (Value, error) {
	return evalBinary(n, t, KindOr, evalOr, evalAnd, func(op *Node, lhs, rhs Value) (Value, error) {
		if op.Kind != KindOrKeyword {
			return NewVoid(), internalf(op, "invalid operator %s in Or", op.Kind)
		}
		return NewBool(lhs.Truthy() || rhs.Truthy()), nil
	})
}

func evalAnd(n *Node, t *SymbolTable) (Value, error) {
	return evalBinary(n, t, KindAnd, evalAnd, evalNegation, func(op *Node, lhs, rhs Value) (Value, error) {
		if op.Kind != KindAndKeyword {
			return NewVoid(), internalf(op, "invalid operator %s in And", op.Kind)
		}
		return NewBool(lhs.Truthy() && rhs.Truthy()), nil
	})
}

func evalNegation(n *Node, t *SymbolTable) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := shape(n, KindNegation, 1, 2); err != nil {
		return NewVoid(), err
	}
	if len(n.Children) == 1 {
		return evalCmp(n.Child(0), t)
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), err
	}
	defer t.exitNode()
	v, err := evalNegation(n.Child(1), t)
	if err != nil {
		return NewVoid(), err
	}
	return NewBool(!v.Truthy()), nil
}

func evalCmp(n *Node, t *SymbolTable) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := shape(n, KindCmp, 1, 3); err != nil {
		return NewVoid(), err
	}
	if len(n.Children) == 1 {
		return evalSum(n.Child(0), t)
	}
	lhs, err := evalSum(n.Child(0), t)
	if err != nil {
		return NewVoid(), err
	}
	rhs, err := evalSum(n.Child(2), t)
	if err != nil {
		return NewVoid(), err
	}
	op := n.Child(1)
	if !isComparison(op.Kind) {
		return NewVoid(), internalf(op, "invalid operator %s in Cmp", op.Kind)
	}
	return NewBool(compare(op.Kind, lhs, rhs)), nil
}

func evalSum(n *Node, t *SymbolTable) (Value, error) {
	return evalBinary(n, t, KindSum, evalSum, evalProduct, func(op *Node, lhs, rhs Value) (Value, error) {
		switch op.Kind {
		case KindPlus:
			return add(lhs, rhs)
		case KindMinus:
			return subtract(lhs, rhs)
		default:
			return NewVoid(), internalf(op, "invalid operator %s in Sum", op.Kind)
		}
	})
}

func evalProduct(n *Node, t *SymbolTable) (Value, error) {
	return evalBinary(n, t, KindProduct, evalProduct, evalExp, func(op *Node, lhs, rhs Value) (Value, error) {
		switch op.Kind {
		case KindMult:
			return multiply(lhs, rhs)
		case KindDiv:
			return divide(lhs, rhs)
		default:
			return NewVoid(), internalf(op, "invalid operator %s in Product", op.Kind)
		}
	})
}

func evalExp(n *Node, t *SymbolTable) (Value, error) {
	return evalBinary(n, t, KindExp, evalExp, evalTerminal, func(op *Node, lhs, rhs Value) (Value, error) {
		if op.Kind != KindHat {
			return NewVoid(), internalf(op, "invalid operator %s in Exp", op.Kind)
		}
		return power(lhs, rhs)
	})
}

func evalTerminal(n *Node, t *SymbolTable) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := shape(n, KindTerminal, 1); err != nil {
		return NewVoid(), err
	}
	inner := n.Child(0)
	switch inner.Kind {
	case KindLValue:
		return readLValue(inner, t)
	case KindParenGroup:
		return evalParenGroup(inner, t)
	case KindNumberLiteral:
		f, err := strconv.ParseFloat(inner.Text, 64)
		if err != nil {
			return NewVoid(), internalf(inner, "invalid number literal %q", inner.Text)
		}
		return NewNumeric(f), nil
	case KindStringLiteral:
		return NewString(inner.Text), nil
	case KindTrue:
		return NewBool(true), nil
	case KindFalse:
		return NewBool(false), nil
	case KindCall:
		return evalCall(inner, t)
	case KindArrayLiteral:
		return evalArrayLiteral(inner, t)
	case KindUnaryMinus:
		return evalUnaryMinus(inner, t)
	default:
		return NewVoid(), internalf(inner, "invalid Terminal child %s", inner.Kind)
	}
}

func evalParenGroup(n *Node, t *SymbolTable) (Value, error) {
	if err := shape(n, KindParenGroup, 3); err != nil {
		return NewVoid(), err
	}
	return ComputeValue(n.Child(1), t)
}

func evalUnaryMinus(n *Node, t *SymbolTable) (Value, error) {
	if err := shape(n, KindUnaryMinus, 2); err != nil {
		return NewVoid(), err
	}
	if err := t.enterNode(n); err != nil {
		return NewVoid(), err
	}
	defer t.exitNode()
	v, err := evalTerminal(n.Child(1), t)
	if err != nil {
		return NewVoid(), err
	}
	if v.Kind() != ValueNumeric {
		return NewVoid(), errorAt(n.Child(1), "Right operand of unary '-' must be Numeric")
	}
	return NewNumeric(-v.Number()), nil
}

func evalArrayLiteral(n *Node, t *SymbolTable) (Value, error) {
	if err := shape(n, KindArrayLiteral, 2, 3); err != nil {
		return NewVoid(), err
	}
	if len(n.Children) == 2 {
		return NewArray(nil), nil
	}
	elems, err := evalList(n.Child(1), t)
	if err != nil {
		return NewVoid(), err
	}
	return NewArray(elems), nil
}

// evalList evaluates a left-nested ValueList in source order. Each element
// is an independent copy.
func evalList(n *Node, t *SymbolTable) ([]Value, error) {
	var items []*Node
	cur := n
	for {
		if err := shape(cur, KindValueList, 1, 3); err != nil {
			return nil, err
		}
		if len(cur.Children) == 1 {
			items = append(items, cur.Child(0))
			break
		}
		items = append(items, cur.Child(2))
		cur = cur.Child(0)
	}

	out := make([]Value, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		v, err := ComputeValue(items[i], t)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Copy())
	}
	return out, nil
}

func evalCall(n *Node, t *SymbolTable) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := shape(n, KindCall, 2, 3); err != nil {
		return NewVoid(), err
	}
	v, err := callFunction(n, t)
	if err != nil {
		return NewVoid(), wrapCall(err, n, lvalueName(n.Child(0)))
	}
	return v, nil
}

func callFunction(n *Node, t *SymbolTable) (Value, error) {
	callee := n.Child(0)
	fv, err := readLValue(callee, t)
	if err != nil {
		return NewVoid(), err
	}
	if fv.Kind() != ValueFunction {
		return NewVoid(), errorAt(callee, "Cannot call non-function type")
	}

	var args []Value
	if len(n.Children) == 2 {
		argList := n.Child(1)
		if err := shape(argList, KindArgList, 3); err != nil {
			return NewVoid(), err
		}
		args, err = evalList(argList.Child(1), t)
		if err != nil {
			return NewVoid(), err
		}
	} else if n.Child(1).Kind != KindLParen || n.Child(2).Kind != KindRParen {
		return NewVoid(), internalf(n, "invalid empty argument list")
	}
	return fv.Function().invoke(t, args, n)
}

// lvalueName renders an LValue chain for diagnostics, e.g. "a.append".
func lvalueName(lv *Node) string {
	if lv == nil || lv.Kind != KindLValue || len(lv.Children) != 1 {
		return ""
	}
	inner := lv.Child(0)
	switch inner.Kind {
	case KindIdentifier:
		return inner.Text
	case KindProperty:
		if len(inner.Children) == 3 {
			return lvalueName(inner.Child(0)) + "." + inner.Child(2).Text
		}
	case KindArrayIndex:
		if len(inner.Children) == 4 {
			return lvalueName(inner.Child(0)) + "[]"
		}
	}
	return ""
}

// evaluateCond evaluates the ParenGroup of an if, elif or while header.
func evaluateCond(n *Node, t *SymbolTable) (bool, error) {
	v, err := evalParenGroup(n, t)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}
