package bscript

func (p *parser) parseValue() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	or, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return NewNode(KindValue, or), nil
}

// parseLeftAssoc builds kind(kind(kind(x), op, y), op, z) for a chain of
// operands joined by any of ops.
func (p *parser) parseLeftAssoc(kind Kind, operand func() (*Node, error), ops ...Kind) (*Node, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	node := NewNode(kind, first)
	for p.atAny(ops...) {
		op := p.advance()
		rhs, err := operand()
		if err != nil {
			return nil, err
		}
		node = NewNode(kind, node, op, rhs)
	}
	return node, nil
}

func (p *parser) atAny(kinds ...Kind) bool {
	for _, k := range kinds {
		if p.at(k) {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (*Node, error) {
	return p.parseLeftAssoc(KindOr, p.parseAnd, KindOrKeyword)
}

func (p *parser) parseAnd() (*Node, error) {
	return p.parseLeftAssoc(KindAnd, p.parseNegation, KindAndKeyword)
}

func (p *parser) parseNegation() (*Node, error) {
	if p.at(KindNotKeyword) {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		not := p.advance()
		inner, err := p.parseNegation()
		if err != nil {
			return nil, err
		}
		return NewNode(KindNegation, not, inner), nil
	}
	cmp, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	return NewNode(KindNegation, cmp), nil
}

// parseCmp allows at most one comparison; a second operator is left for the
// caller to reject.
func (p *parser) parseCmp() (*Node, error) {
	lhs, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if !p.atAny(KindEq, KindNe, KindGt, KindGe, KindLt, KindLe) {
		return NewNode(KindCmp, lhs), nil
	}
	op := p.advance()
	rhs, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	return NewNode(KindCmp, lhs, op, rhs), nil
}

func (p *parser) parseSum() (*Node, error) {
	return p.parseLeftAssoc(KindSum, p.parseProduct, KindPlus, KindMinus)
}

func (p *parser) parseProduct() (*Node, error) {
	return p.parseLeftAssoc(KindProduct, p.parseExp, KindMult, KindDiv)
}

func (p *parser) parseExp() (*Node, error) {
	return p.parseLeftAssoc(KindExp, p.parseTerminal, KindHat)
}

func (p *parser) parseTerminal() (*Node, error) {
	var (
		inner *Node
		err   error
	)
	switch p.cur().Kind {
	case KindNumberLiteral, KindStringLiteral, KindTrue, KindFalse:
		inner = p.advance()
	case KindLParen:
		inner, err = p.parseParenGroup()
	case KindLBracket:
		inner, err = p.parseArrayLiteral()
	case KindMinus:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		minus := p.advance()
		operand, terr := p.parseTerminal()
		if terr != nil {
			return nil, terr
		}
		inner = NewNode(KindUnaryMinus, minus, operand)
	case KindIdentifier:
		inner, err = p.parseLValue()
		if err == nil && p.at(KindLParen) {
			inner, err = p.parseCall(inner)
		}
	default:
		return nil, p.errorf("expected expression, found %s", describeToken(p.cur()))
	}
	if err != nil {
		return nil, err
	}
	return NewNode(KindTerminal, inner), nil
}

func (p *parser) parseParenGroup() (*Node, error) {
	open, err := p.expect(KindLParen)
	if err != nil {
		return nil, err
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	closing, err := p.expect(KindRParen)
	if err != nil {
		return nil, err
	}
	return NewNode(KindParenGroup, open, value, closing), nil
}

func (p *parser) parseArrayLiteral() (*Node, error) {
	open := p.advance()
	if p.at(KindRBracket) {
		return NewNode(KindArrayLiteral, open, p.advance()), nil
	}
	list, err := p.parseValueList()
	if err != nil {
		return nil, err
	}
	closing, err := p.expect(KindRBracket)
	if err != nil {
		return nil, err
	}
	return NewNode(KindArrayLiteral, open, list, closing), nil
}

func (p *parser) parseValueList() (*Node, error) {
	first, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	list := NewNode(KindValueList, first)
	for p.at(KindComma) {
		comma := p.advance()
		next, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		list = NewNode(KindValueList, list, comma, next)
	}
	return list, nil
}

// parseLValue reads an identifier followed by any chain of index and
// property accessors. Each step wraps the previous LValue.
func (p *parser) parseLValue() (*Node, error) {
	id, err := p.expect(KindIdentifier)
	if err != nil {
		return nil, err
	}
	lv := NewNode(KindLValue, id)
	for {
		switch p.cur().Kind {
		case KindLBracket:
			open := p.advance()
			index, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			closing, err := p.expect(KindRBracket)
			if err != nil {
				return nil, err
			}
			lv = NewNode(KindLValue, NewNode(KindArrayIndex, lv, open, index, closing))
		case KindDot:
			dot := p.advance()
			name, err := p.expect(KindIdentifier)
			if err != nil {
				return nil, err
			}
			lv = NewNode(KindLValue, NewNode(KindProperty, lv, dot, name))
		default:
			return lv, nil
		}
	}
}

func (p *parser) parseCall(callee *Node) (*Node, error) {
	open, err := p.expect(KindLParen)
	if err != nil {
		return nil, err
	}
	if p.at(KindRParen) {
		return NewNode(KindCall, callee, open, p.advance()), nil
	}
	list, err := p.parseValueList()
	if err != nil {
		return nil, err
	}
	closing, err := p.expect(KindRParen)
	if err != nil {
		return nil, err
	}
	return NewNode(KindCall, callee, NewNode(KindArgList, open, list, closing)), nil
}
