package interp

// def-generic and def-method. A generic function is declared with a bare
// parameter list fixing its arity and variadicity; each positional
// parameter contributes one dispatch type parameter. Methods are added
// to the defining module's registry and selected at call time by the
// runtime types of the arguments.

/* (def-generic (SYMBOL {SYMBOL} [&rest SYMBOL])) */
func evalDefGeneric(args []Value, scope *Scope) (Value, error) {
	if len(args) != 1 {
		return nil, raisef(syntaxErrorName, "expected (def-generic (SYMBOL ... PARAMS))")
	}
	sig := syntaxVector(args[0])
	if sig == nil || len(sig.Cells) < 1 || !syntaxIs(sig.Cells[0], KindSymbol) {
		return nil, raisef(syntaxErrorName, "expected (def-generic (SYMBOL ... PARAMS))")
	}
	symbol := syntaxSymbol(sig.Cells[0])
	if symbol.Module == nil {
		return nil, raisef(nameErrorName, "cannot define uninterned symbol: %s", symbol.Name)
	}
	l := scope.runtime().lang
	minArity := 0
	variadic := false
	for i, param := range sig.Cells[1:] {
		s := syntaxSymbol(param)
		if s == nil {
			return nil, withForm(raisef(syntaxErrorName, "formal parameters must be symbols"), param)
		}
		if s == l.restKeyword {
			if i+2 != len(sig.Cells[1:]) || syntaxSymbol(sig.Cells[len(sig.Cells)-1]) == nil {
				return nil, raisef(syntaxErrorName, "&rest must be followed by exactly one symbol")
			}
			variadic = true
			break
		}
		minArity++
	}
	typeParams := minArity
	if variadic {
		typeParams++
	}
	indices := make([]int, typeParams)
	for i := range indices {
		indices[i] = i
	}
	symbol.Module.Define(symbol, &GenFunc{
		Name:         symbol,
		MinArity:     minArity,
		Variadic:     variadic,
		TypeParams:   typeParams,
		ParamIndices: indices,
	})
	return symbol, nil
}

// methodParameter reads one (SYMBOL ^TYPE) method parameter, evaluating
// the type quote in the type namespace.
func methodParameter(param Value, typeScope *Scope) (*Symbol, *Type, error) {
	v := syntaxVector(param)
	if v == nil || len(v.Cells) != 2 {
		return nil, nil, withForm(raisef(syntaxErrorName, "expected (SYMBOL ^TYPE)"), param)
	}
	symbol := syntaxSymbol(v.Cells[0])
	if symbol == nil {
		return nil, nil, withForm(raisef(syntaxErrorName, "expected (SYMBOL ^TYPE)"), param)
	}
	tq, ok := syntaxGet(v.Cells[1]).(*TypeQuote)
	if !ok {
		return nil, nil, withForm(raisef(syntaxErrorName, "expected (SYMBOL ^TYPE)"), param)
	}
	typeValue, err := Eval(tq.Quoted, typeScope)
	if err != nil {
		return nil, nil, err
	}
	t, ok := typeValue.(*Type)
	if !ok {
		return nil, nil, withForm(raisef(syntaxErrorName, "parameter is not a valid type"), v.Cells[1])
	}
	return symbol, t, nil
}

/* (def-method (SYMBOL {(SYMBOL ^TYPE)} [&rest (SYMBOL ^TYPE)]) {EXPR}) */
func evalDefMethod(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 {
		return nil, raisef(syntaxErrorName, "expected (def-method (SYMBOL ...) {EXPR})")
	}
	sig := syntaxVector(args[0])
	if sig == nil || len(sig.Cells) < 1 || !syntaxIs(sig.Cells[0], KindSymbol) {
		return nil, raisef(syntaxErrorName, "expected (def-method (SYMBOL ...) {EXPR})")
	}
	symbol := syntaxSymbol(sig.Cells[0])
	value, err := scope.Get(symbol)
	if err != nil {
		return nil, err
	}
	gf, ok := value.(*GenFunc)
	if !ok {
		return nil, withForm(raisef(domainErrorName, "%s is not a generic function", symbol.Name), sig.Cells[0])
	}
	l := scope.runtime().lang
	arity := gf.MinArity
	if gf.Variadic {
		arity++
	}
	typeScope := useModuleTypes(scope.module)
	params := sig.Cells[1:]
	types := make([]*Type, 0, arity)
	formal := make([]Value, 0, arity+1)
	for i := 0; i < len(params); i++ {
		if len(types) >= arity {
			return nil, withForm(raisef(domainErrorName, "too many parameters for method"), params[i])
		}
		param := params[i]
		if gf.Variadic && len(types) == arity-1 {
			if syntaxSymbol(param) != l.restKeyword || i+1 >= len(params) {
				return nil, raisef(syntaxErrorName, "expected &rest (SYMBOL ^TYPE)")
			}
			i++
			param = params[i]
			formal = append(formal, l.restKeyword)
		}
		sym, t, err := methodParameter(param, typeScope)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		formal = append(formal, sym)
	}
	if len(types) != arity {
		return nil, raisef(syntaxErrorName, "too few parameters for method")
	}
	definition := make([]Value, 0, len(args))
	definition = append(definition, &Vector{Cells: formal})
	definition = append(definition, args[1:]...)
	fn, err := makeClosure(definition, scope)
	if err != nil {
		return nil, err
	}
	scope.module.DefineMethod(symbol, types, fn)
	return symbol, nil
}
