package interp

// Eval evaluates code in scope. Primitives evaluate to themselves,
// vectors are call forms, symbols resolve through the scope, and syntax
// wrappers evaluate their payload while keeping diagnostics pointed at
// the source.
func Eval(code Value, scope *Scope) (Value, error) {
	switch cv := code.(type) {
	case I64, F64, *String, Keyword, Unit:
		return code, nil
	case *Vector:
		return evalSlice(cv.Cells, scope)
	case *VectorSlice:
		return evalSlice(cv.Cells, scope)
	case *Quote:
		return SyntaxToDatum(cv.Quoted), nil
	case *TypeQuote:
		typeScope := useModuleTypes(scope.module)
		return Eval(cv.Quoted, typeScope)
	case *Symbol:
		value, err := scope.Get(cv)
		if err != nil {
			return nil, err
		}
		// A generic function with no context yet is copied with this
		// scope's module as context, so methods added to this module
		// participate in dispatch.
		if gf, ok := value.(*GenFunc); ok && gf.Context == nil {
			copied := *gf
			copied.Context = scope.module
			return &copied, nil
		}
		return value, nil
	case *Syntax:
		rt := scope.runtime()
		previous := rt.pushDebugForm(cv)
		result, err := Eval(cv.Quoted, scope)
		rt.popDebugForm(err, previous)
		if err != nil {
			return nil, attachForm(err, cv)
		}
		return result, nil
	default:
		return nil, raisef(domainErrorName, "unexpected %s", code.ValueKind())
	}
}

// attachForm points err at form unless an inner form already claimed it.
func attachForm(err error, form *Syntax) error {
	if e, ok := err.(*Error); ok && e.Form == nil {
		e.Form = form
	}
	return err
}

// evalSlice evaluates a call form: macro application, special-form
// dispatch, or function application with strict left-to-right argument
// evaluation.
func evalSlice(cells []Value, scope *Scope) (Value, error) {
	if len(cells) == 0 {
		return unit, nil
	}
	operator := cells[0]
	args := cells[1:]
	if s := syntaxSymbol(operator); s != nil {
		if macro, ok := scope.GetMacro(s); ok {
			expanded, err := apply(macro, args, scope)
			if err != nil {
				return nil, err
			}
			return Eval(expanded, scope)
		}
		if special, ok := scope.getSpecial(s); ok {
			return special(args, scope)
		}
	}
	function, err := Eval(operator, scope)
	if err != nil {
		return nil, err
	}
	values, err := evalArgs(args, scope)
	if err != nil {
		return nil, err
	}
	result, err := apply(function, values, scope)
	if err != nil {
		// Attribute the error to the failing argument's source form when
		// the application recorded one.
		if e, ok := err.(*Error); ok && e.ArgIndex >= 0 && e.ArgIndex < len(args) {
			return nil, withForm(e, args[e.ArgIndex])
		}
		return nil, err
	}
	return result, nil
}

// evalArgs evaluates each argument left to right.
func evalArgs(args []Value, scope *Scope) ([]Value, error) {
	values := make([]Value, len(args))
	for i, arg := range args {
		v, err := Eval(arg, scope)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// evalBlock evaluates statements sequentially and returns the last
// result. A (let SYMBOL EXPR) statement introduces a binding for the
// remainder of the block.
func evalBlock(block []Value, scope *Scope) (Value, error) {
	var result Value = unit
	current := scope
	l := scope.runtime().lang
	for _, statement := range block {
		if v := syntaxVector(statement); v != nil && len(v.Cells) == 3 {
			if syntaxExact(v.Cells[0], l.letSymbol) {
				if s := syntaxSymbol(v.Cells[1]); s != nil {
					value, err := Eval(v.Cells[2], current)
					if err != nil {
						return nil, err
					}
					current = current.Push(s, value)
					result = unit
					continue
				}
			}
		}
		var err error
		result, err = Eval(statement, current)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// MacroExpand expands macros in code to fixed point, recursing into
// subforms. Syntax wrappers are preserved around expansions.
func MacroExpand(code Value, scope *Scope) (Value, error) {
	switch cv := code.(type) {
	case *Vector:
		return macroExpandSlice(cv.Cells, scope)
	case *VectorSlice:
		return macroExpandSlice(cv.Cells, scope)
	case *Syntax:
		rt := scope.runtime()
		previous := rt.pushDebugForm(cv)
		result, err := MacroExpand(cv.Quoted, scope)
		rt.popDebugForm(err, previous)
		if err != nil {
			return nil, attachForm(err, cv)
		}
		expanded := *cv
		expanded.Quoted = result
		return &expanded, nil
	default:
		return code, nil
	}
}

func macroExpandSlice(cells []Value, scope *Scope) (Value, error) {
	if len(cells) == 0 {
		return &Vector{Cells: nil}, nil
	}
	if s := syntaxSymbol(cells[0]); s != nil {
		if macro, ok := scope.GetMacro(s); ok {
			expanded, err := apply(macro, cells[1:], scope)
			if err != nil {
				return nil, err
			}
			return MacroExpand(expanded, scope)
		}
	}
	expanded := make([]Value, len(cells))
	for i, cell := range cells {
		e, err := MacroExpand(cell, scope)
		if err != nil {
			return nil, err
		}
		expanded[i] = e
	}
	return &Vector{Cells: expanded}, nil
}
