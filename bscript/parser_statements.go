package bscript

// parseStatementList consumes statements until the stop token. The result is
// left-nested: StatementList(StatementList(...), Statement).
func (p *parser) parseStatementList(stop Kind) (*Node, error) {
	first, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	list := NewNode(KindStatementList, first)
	for !p.at(stop) && !p.at(tokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		list = NewNode(KindStatementList, list, stmt)
	}
	return list, nil
}

func (p *parser) parseStatement() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	var (
		inner *Node
		err   error
	)
	switch p.cur().Kind {
	case KindReturnKeyword:
		inner, err = p.parseReturn()
	case KindIf:
		inner, err = p.parseConditional()
	case KindWhile:
		inner, err = p.parseLoop()
	case KindFor:
		inner, err = p.parseForLoop()
	case KindDef:
		inner, err = p.parseFunctionDef()
	case KindIdentifier:
		return p.parseCallOrAssignment()
	default:
		return nil, p.errorf("expected statement, found %s", describeToken(p.cur()))
	}
	if err != nil {
		return nil, err
	}
	return NewNode(KindStatement, inner), nil
}

func (p *parser) parseReturn() (*Node, error) {
	kw := p.advance()
	if p.at(KindTerm) {
		return NewNode(KindReturn, kw, p.advance()), nil
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	term, err := p.expect(KindTerm)
	if err != nil {
		return nil, err
	}
	return NewNode(KindReturn, kw, value, term), nil
}

func (p *parser) parseCallOrAssignment() (*Node, error) {
	lv, err := p.parseLValue()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case KindLParen:
		call, err := p.parseCall(lv)
		if err != nil {
			return nil, err
		}
		term, err := p.expect(KindTerm)
		if err != nil {
			return nil, err
		}
		return NewNode(KindStatement, call, term), nil
	case KindAssign:
		assign := p.advance()
		var rhs *Node
		if p.at(KindAmp) {
			amp := p.advance()
			target, err := p.parseLValue()
			if err != nil {
				return nil, err
			}
			rhs = NewNode(KindReference, amp, target)
		} else {
			rhs, err = p.parseValue()
			if err != nil {
				return nil, err
			}
		}
		term, err := p.expect(KindTerm)
		if err != nil {
			return nil, err
		}
		return NewNode(KindStatement, NewNode(KindAssignment, lv, assign, rhs, term)), nil
	default:
		return nil, p.errorf("expected '=' or '(' after identifier, found %s", describeToken(p.cur()))
	}
}

// parseBody parses the single statement or braced block following a header.
func (p *parser) parseBody() (*Node, error) {
	if !p.at(KindLBrace) {
		return p.parseStatement()
	}
	return p.parseBlock()
}

func (p *parser) parseBlock() (*Node, error) {
	open, err := p.expect(KindLBrace)
	if err != nil {
		return nil, err
	}
	list, err := p.parseStatementList(KindRBrace)
	if err != nil {
		return nil, err
	}
	closing, err := p.expect(KindRBrace)
	if err != nil {
		return nil, err
	}
	return NewNode(KindStatementBlock, open, list, closing), nil
}

func (p *parser) parseHeader(kind Kind) (*Node, error) {
	kw := p.advance()
	cond, err := p.parseParenGroup()
	if err != nil {
		return nil, err
	}
	return NewNode(kind, kw, cond), nil
}

func (p *parser) parseGuarded(headerKind, blockKind Kind) (*Node, error) {
	head, err := p.parseHeader(headerKind)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return NewNode(blockKind, head, body), nil
}

func (p *parser) parseConditional() (*Node, error) {
	ifBlock, err := p.parseGuarded(KindIfHeader, KindIfBlock)
	if err != nil {
		return nil, err
	}
	chain := NewNode(KindElifChain, ifBlock)
	for p.at(KindElif) {
		elif, err := p.parseGuarded(KindElifHeader, KindElifBlock)
		if err != nil {
			return nil, err
		}
		chain = NewNode(KindElifChain, chain, elif)
	}
	if !p.at(KindElse) {
		return NewNode(KindConditional, chain), nil
	}
	kw := p.advance()
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	elseBlock := NewNode(KindElseBlock, kw, body)
	return NewNode(KindConditional, NewNode(KindElseClause, chain, elseBlock)), nil
}

func (p *parser) parseLoop() (*Node, error) {
	return p.parseGuarded(KindLoopHeader, KindLoop)
}

func (p *parser) parseForLoop() (*Node, error) {
	kw := p.advance()
	open, err := p.expect(KindLParen)
	if err != nil {
		return nil, err
	}
	iter, err := p.expect(KindIdentifier)
	if err != nil {
		return nil, err
	}
	in, err := p.expect(KindIn)
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
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	head := NewNode(KindForHeader, kw, open, iter, in, value, closing)
	return NewNode(KindForLoop, head, body), nil
}

func (p *parser) parseFunctionDef() (*Node, error) {
	def := p.advance()
	name, err := p.expect(KindIdentifier)
	if err != nil {
		return nil, err
	}
	fname := NewNode(KindFunctionName, def, name)
	open, err := p.expect(KindLParen)
	if err != nil {
		return nil, err
	}

	header := []*Node{fname, open}
	if p.at(KindIdentifier) {
		params := p.advance()
		for p.at(KindComma) {
			comma := p.advance()
			next, err := p.expect(KindIdentifier)
			if err != nil {
				return nil, err
			}
			params = NewNode(KindParamList, params, comma, next)
		}
		header = append(header, params)
	}
	closing, err := p.expect(KindRParen)
	if err != nil {
		return nil, err
	}
	header = append(header, closing)

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return NewNode(KindFunctionDef, NewNode(KindFunctionHeader, header...), body), nil
}
