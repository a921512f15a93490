package bscript

// NativeFunc is a host callback exposed to scripts. Arguments arrive already
// dereferenced. A returned error that is not an *Error becomes a script
// error at the call site.
type NativeFunc func(t *SymbolTable, args []Value) (Value, error)

// Function is either a script definition or a native callback.
type Function struct {
	Name   string
	Params []string

	def    *Node
	native NativeFunc
}

func NewNative(name string, fn NativeFunc) *Function {
	return &Function{Name: name, native: fn}
}

func newScriptFunction(def *Node) (*Function, error) {
	if err := shape(def, KindFunctionDef, 2); err != nil {
		return nil, err
	}
	header := def.Child(0)
	if err := shape(header, KindFunctionHeader, 3, 4); err != nil {
		return nil, err
	}
	fname := header.Child(0)
	if err := shape(fname, KindFunctionName, 2); err != nil {
		return nil, err
	}
	if err := shape(fname.Child(1), KindIdentifier); err != nil {
		return nil, err
	}
	params, err := functionParams(header)
	if err != nil {
		return nil, err
	}
	return &Function{Name: fname.Child(1).Text, Params: params, def: def}, nil
}

func functionParams(header *Node) ([]string, error) {
	if len(header.Children) == 3 {
		return nil, nil
	}
	list := header.Child(2)
	switch list.Kind {
	case KindIdentifier:
		return []string{list.Text}, nil
	case KindParamList:
		return paramList(list)
	default:
		return nil, internalf(list, "invalid parameter list %s", list.Kind)
	}
}

func paramList(n *Node) ([]string, error) {
	if err := shape(n, KindParamList, 3); err != nil {
		return nil, err
	}
	last := n.Child(2)
	if err := shape(last, KindIdentifier); err != nil {
		return nil, err
	}
	head := n.Child(0)
	var params []string
	switch head.Kind {
	case KindIdentifier:
		params = []string{head.Text}
	case KindParamList:
		inner, err := paramList(head)
		if err != nil {
			return nil, err
		}
		params = inner
	default:
		return nil, internalf(head, "invalid parameter list %s", head.Kind)
	}
	return append(params, last.Text), nil
}

func (f *Function) IsNative() bool { return f.native != nil }

// Definition returns the FunctionDef node of a script function, or nil.
func (f *Function) Definition() *Node { return f.def }

// same reports whether f and other are the same function: script functions
// by definition node, natives by identity.
func (f *Function) same(other *Function) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.def != nil || other.def != nil {
		return f.def == other.def
	}
	return f == other
}

// Call invokes f from host code.
func (f *Function) Call(t *SymbolTable, args ...Value) (Value, error) {
	return f.invoke(t, args, nil)
}

func (f *Function) invoke(t *SymbolTable, args []Value, call *Node) (Value, error) {
	if err := t.check(); err != nil {
		return NewVoid(), err
	}
	if err := t.enterCall(call); err != nil {
		return NewVoid(), err
	}
	defer t.exitCall()

	if f.native != nil {
		v, err := f.native(t, args)
		if err != nil {
			return NewVoid(), attach(err, call)
		}
		return v, nil
	}

	if len(f.Params) != len(args) {
		return NewVoid(), errorAt(f.def, "Function expects %d arguments, %d passed", len(f.Params), len(args))
	}
	body := f.def.Child(1)
	if err := shape(body, KindStatementBlock, 3); err != nil {
		return NewVoid(), err
	}

	var result Value
	err := t.WithFrame(func() error {
		for i, name := range f.Params {
			if err := t.Set(name, args[i].Copy(), true); err != nil {
				return err
			}
		}
		v, _, err := runStatementList(body.Child(1), t)
		result = v
		return err
	})
	if err != nil {
		return NewVoid(), err
	}
	return result, nil
}
