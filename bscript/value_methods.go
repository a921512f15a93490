package bscript

// method is a reserved property callable on a receiver cell.
type method func(recv *Cell, args []Value) (Value, error)

var reservedMethods map[string]method

func init() {
	reservedMethods = map[string]method{
		"append": arrayMethod("append", arrayAppend),
		"clear":  arrayMethod("clear", arrayClear),
		"resize": arrayMethod("resize", arrayResize),
		"insert": arrayMethod("insert", arrayInsert),
		"erase":  arrayMethod("erase", arrayErase),
		"find":   arrayMethod("find", arrayFind),
		"keys":   valueKeys,
		"at":     valueAt,
	}
}

const lengthProperty = "length"

// IsReserved reports whether name is a property scripts may read but never
// assign.
func IsReserved(name string) bool {
	_, ok := reservedMethods[name]
	return ok || name == lengthProperty
}

// propertyCell resolves a property of the concrete cell recv. Methods and
// length are served from temporary cells bound to recv. A method is built
// once per receiver, so reading it twice yields equal functions.
func propertyCell(recv *Cell, name string, create bool) (*Cell, error) {
	if IsReserved(name) && create {
		return nil, newError("Cannot write to reserved property '%s'", name)
	}
	if m, ok := reservedMethods[name]; ok {
		return NewCell(NewFunction(boundMethod(recv, name, m))), nil
	}
	if name == lengthProperty {
		v := recv.Load()
		if v.Kind() != ValueArray {
			return nil, newError("Cannot access reserved property 'length' on non-array types")
		}
		return NewCell(NewNumeric(float64(len(v.Cells())))), nil
	}

	if p, ok := recv.Property(name); ok {
		return p, nil
	}
	if !create {
		return nil, newError("Cannot access undefined property '%s'", name)
	}
	p := NewCell(NewVoid())
	recv.SetProperty(name, p)
	return p, nil
}

func boundMethod(recv *Cell, name string, m method) *Function {
	if fn, ok := recv.methods[name]; ok {
		return fn
	}
	fn := NewNative(name, func(_ *SymbolTable, args []Value) (Value, error) {
		return m(recv, args)
	})
	if recv.methods == nil {
		recv.methods = make(map[string]*Function)
	}
	recv.methods[name] = fn
	return fn
}

func arrayMethod(name string, fn func(recv *Cell, cells []*Cell, args []Value) (Value, error)) method {
	return func(recv *Cell, args []Value) (Value, error) {
		v := recv.Load()
		if v.Kind() != ValueArray {
			return NewVoid(), newError("%s() can only be called on an Array", name)
		}
		return fn(recv, v.Cells(), args)
	}
}

func arrayAppend(recv *Cell, cells []*Cell, args []Value) (Value, error) {
	out := make([]*Cell, len(cells), len(cells)+len(args))
	copy(out, cells)
	for _, a := range args {
		out = append(out, NewCell(a.Copy()))
	}
	recv.Store(NewArrayCells(out))
	return NewVoid(), nil
}

func arrayClear(recv *Cell, _ []*Cell, args []Value) (Value, error) {
	if len(args) != 0 {
		return NewVoid(), newError("clear() expects 0 arguments")
	}
	recv.Store(NewArrayCells(nil))
	return NewVoid(), nil
}

func arrayResize(recv *Cell, cells []*Cell, args []Value) (Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return NewVoid(), newError("resize() expects a size and optional fill value")
	}
	n, err := positionArg("resize", "Length", args[0])
	if err != nil {
		return NewVoid(), err
	}
	fill := NewVoid()
	if len(args) == 2 {
		fill = args[1]
	}
	out := make([]*Cell, n)
	copy(out, cells)
	for i := len(cells); i < n; i++ {
		out[i] = NewCell(fill.Copy())
	}
	recv.Store(NewArrayCells(out))
	return NewVoid(), nil
}

// arrayInsert places the values before pos. pos may equal the length to
// insert at the end.
func arrayInsert(recv *Cell, cells []*Cell, args []Value) (Value, error) {
	if len(args) < 2 {
		return NewVoid(), newError("insert() requires a position and a list of elements")
	}
	pos, err := positionArg("insert", "Position", args[0])
	if err != nil {
		return NewVoid(), err
	}
	if pos > len(cells) {
		return NewVoid(), newError("Position in insert() is out of bounds")
	}
	out := make([]*Cell, 0, len(cells)+len(args)-1)
	out = append(out, cells[:pos]...)
	for _, a := range args[1:] {
		out = append(out, NewCell(a.Copy()))
	}
	out = append(out, cells[pos:]...)
	recv.Store(NewArrayCells(out))
	return NewVoid(), nil
}

func arrayErase(recv *Cell, cells []*Cell, args []Value) (Value, error) {
	if len(args) != 1 {
		return NewVoid(), newError("erase() requires a position")
	}
	pos, err := positionArg("erase", "Position", args[0])
	if err != nil {
		return NewVoid(), err
	}
	if pos >= len(cells) {
		return NewVoid(), newError("Position in erase() is out of bounds")
	}
	out := make([]*Cell, 0, len(cells)-1)
	out = append(out, cells[:pos]...)
	out = append(out, cells[pos+1:]...)
	recv.Store(NewArrayCells(out))
	return NewVoid(), nil
}

func arrayFind(_ *Cell, cells []*Cell, args []Value) (Value, error) {
	if len(args) != 1 {
		return NewVoid(), newError("find() takes a single argument")
	}
	for i, c := range cells {
		if c.Load().Equal(args[0]) {
			return NewNumeric(float64(i)), nil
		}
	}
	return NewNumeric(-1), nil
}

func valueKeys(recv *Cell, args []Value) (Value, error) {
	if len(args) != 0 {
		return NewVoid(), newError("keys() expects 0 arguments")
	}
	keys := recv.Keys()
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = NewString(k)
	}
	return NewArray(out), nil
}

func valueAt(recv *Cell, args []Value) (Value, error) {
	if len(args) != 1 {
		return NewVoid(), newError("at() takes a single argument")
	}
	if args[0].Kind() != ValueString {
		return NewVoid(), newError("at() expects a String key")
	}
	p, err := propertyCell(recv, args[0].Str(), false)
	if err != nil {
		return NewVoid(), err
	}
	v, err := p.Get()
	if err != nil {
		return NewVoid(), newError("%s", err.Error())
	}
	return v, nil
}

func positionArg(fn, what string, v Value) (int, error) {
	if v.Kind() != ValueNumeric {
		return 0, newError("First argument of %s() must be Numeric", fn)
	}
	n, ok := wholeCount(v.Number())
	if !ok {
		return 0, newError("%s in %s() must be a non-negative integer", what, fn)
	}
	return n, nil
}
