package interp

// Special forms receive their arguments unevaluated. They are installed
// in the lang module's special-form namespace and dispatched by
// evalSlice through the head symbol's home module.

func (rt *Runtime) installSpecialForms(m *Module) {
	m.defineSpecial("quote", evalQuote)
	m.defineSpecial("type", evalType)
	m.defineSpecial("backquote", evalBackquote)
	m.defineSpecial("if", evalIf)
	m.defineSpecial("let", evalLet)
	m.defineSpecial("match", evalMatch)
	m.defineSpecial("do", func(args []Value, scope *Scope) (Value, error) {
		return evalBlock(args, scope)
	})
	m.defineSpecial("fn", evalFn)
	m.defineSpecial("try", evalTry)
	m.defineSpecial("continue", evalContinue)
	m.defineSpecial("loop", evalLoop)
	m.defineSpecial("recur", evalLoop)
	m.defineSpecial("def", evalDef)
	m.defineSpecial("def-macro", evalDefMacro)
	m.defineSpecial("def-type", evalDefType)
	m.defineSpecial("def-read-macro", evalDefReadMacro)
	m.defineSpecial("def-data", evalDefData)
	m.defineSpecial("def-generic", evalDefGeneric)
	m.defineSpecial("def-method", evalDefMethod)
}

/* (quote ANY) */
func evalQuote(args []Value, scope *Scope) (Value, error) {
	if len(args) != 1 {
		return nil, raisef(syntaxErrorName, "expected (quote ANY)")
	}
	return SyntaxToDatum(args[0]), nil
}

/* (type ANY) evaluates its argument in the type namespace. */
func evalType(args []Value, scope *Scope) (Value, error) {
	if len(args) != 1 {
		return nil, raisef(syntaxErrorName, "expected (type ANY)")
	}
	return Eval(args[0], useModuleTypes(scope.module))
}

// backquoteToDatum walks a backquoted template, evaluating unquote and
// splice forms and stripping syntax from the rest.
func backquoteToDatum(v Value, scope *Scope) (Value, error) {
	switch tv := v.(type) {
	case *Syntax:
		rt := scope.runtime()
		previous := rt.pushDebugForm(tv)
		result, err := backquoteToDatum(tv.Quoted, scope)
		rt.popDebugForm(err, previous)
		if err != nil {
			return nil, attachForm(err, tv)
		}
		return result, nil
	case *Vector:
		return backquoteVectorToDatum(tv, scope)
	default:
		return v, nil
	}
}

func backquoteVectorToDatum(v *Vector, scope *Scope) (Value, error) {
	l := scope.runtime().lang
	if len(v.Cells) == 0 {
		return v, nil
	}
	if syntaxExact(v.Cells[0], l.backquoteSymbol) {
		return SyntaxToDatum(v), nil
	}
	if syntaxExact(v.Cells[0], l.unquoteSymbol) {
		if len(v.Cells) != 2 {
			return nil, raisef(syntaxErrorName, "expected (unquote ANY)")
		}
		return Eval(v.Cells[1], scope)
	}
	var cells []Value
	for _, cell := range v.Cells {
		if spliced := syntaxVector(cell); spliced != nil && len(spliced.Cells) > 0 &&
			syntaxExact(spliced.Cells[0], l.spliceSymbol) {
			if len(spliced.Cells) != 2 {
				return nil, withForm(raisef(syntaxErrorName, "expected (splice VECTOR)"), cell)
			}
			value, err := Eval(spliced.Cells[1], scope)
			if err != nil {
				return nil, err
			}
			vec, ok := value.(*Vector)
			if !ok {
				return nil, withForm(raisef(syntaxErrorName, "expected VECTOR"), spliced.Cells[1])
			}
			cells = append(cells, vec.Cells...)
			continue
		}
		single, err := backquoteToDatum(cell, scope)
		if err != nil {
			return nil, err
		}
		cells = append(cells, single)
	}
	return &Vector{Cells: cells}, nil
}

/* (backquote ANY) */
func evalBackquote(args []Value, scope *Scope) (Value, error) {
	if len(args) != 1 {
		return nil, raisef(syntaxErrorName, "expected (backquote ANY)")
	}
	return backquoteToDatum(args[0], scope)
}

/* (if COND CONS ALT) */
func evalIf(args []Value, scope *Scope) (Value, error) {
	if len(args) != 3 {
		return nil, raisef(syntaxErrorName, "expected (if ANY ANY ANY)")
	}
	condition, err := Eval(args[0], scope)
	if err != nil {
		return nil, err
	}
	if IsTruthy(condition) {
		return Eval(args[1], scope)
	}
	return Eval(args[2], scope)
}

/* (let ({(PATTERN EXPR)}) {EXPR}) */
func evalLet(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 || !syntaxIs(args[0], KindVector) {
		return nil, raisef(syntaxErrorName, "expected (let ({(PATTERN EXPR)}) {EXPR})")
	}
	defs := syntaxVector(args[0])
	letScope := scope
	// 1. Declare all symbol bindings so closures created by the
	// initializers can see every name in the group.
	for _, def := range defs.Cells {
		v := syntaxVector(def)
		if v == nil || len(v.Cells) != 2 {
			return nil, withForm(raisef(syntaxErrorName, "expected (PATTERN EXPR)"), def)
		}
		if s := syntaxSymbol(v.Cells[0]); s != nil {
			letScope = letScope.pushDeclared(s)
		}
	}
	// 2. Evaluate the initializers in textual order.
	for _, def := range defs.Cells {
		v := syntaxVector(def)
		pattern := v.Cells[0]
		assignment, err := Eval(v.Cells[1], letScope)
		if err != nil {
			return nil, err
		}
		if s := syntaxSymbol(pattern); s != nil {
			if cl, ok := assignment.(*Closure); ok {
				assignment = optimizeTailCall(cl, s, scope.runtime().lang)
			}
			// The weak update makes the value visible through the
			// declared binding captured by sibling closures; the strong
			// push shadows it for the rest of the evaluation.
			letScope.Set(s, assignment, true)
			letScope = letScope.Push(s, assignment)
		} else {
			letScope, err = matchPattern(letScope, pattern, assignment)
			if err != nil {
				return nil, err
			}
		}
	}
	// 3. Evaluate the body.
	return evalBlock(args[1:], letScope)
}

/* (match EXPR {(PATTERN {EXPR})}) */
func evalMatch(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 {
		return nil, raisef(syntaxErrorName, "expected (match EXPR {(PATTERN {EXPR})})")
	}
	value, err := Eval(args[0], scope)
	if err != nil {
		return nil, err
	}
	for _, c := range args[1:] {
		v := syntaxVector(c)
		if v == nil || len(v.Cells) < 1 {
			return nil, withForm(raisef(syntaxErrorName, "expected (PATTERN {EXPR})"), c)
		}
		caseScope, err := matchPattern(scope, v.Cells[0], value)
		if err != nil {
			if e, ok := err.(*Error); ok && e.Kind == patternErrorName {
				continue
			}
			return nil, err
		}
		return evalBlock(v.Cells[1:], caseScope)
	}
	return nil, withForm(raisef(patternErrorName, "no match"), args[0])
}

// closureDefinition is the environment layout shared by fn, def and
// def-macro closures: a definition vector (formal parameters followed by
// the body forms) and the captured scope.
func closureDefinition(cl *Closure) (definition []Value, scope *Scope, err error) {
	if len(cl.Env) != 2 {
		return nil, nil, raisef(domainErrorName, "invalid function definition")
	}
	def, ok := toSlice(cl.Env[0])
	if !ok || len(def) < 1 {
		return nil, nil, raisef(domainErrorName, "invalid function definition")
	}
	ptr, ok := cl.Env[1].(*Pointer)
	if !ok {
		return nil, nil, raisef(domainErrorName, "invalid function definition")
	}
	return def, ptr.Value.(*Scope), nil
}

// evalAnon is the implementation of every interpreted closure: bind the
// formals in the captured scope and evaluate the body.
func evalAnon(args []Value, cl *Closure, _ *Scope) (Value, error) {
	definition, captured, err := closureDefinition(cl)
	if err != nil {
		return nil, err
	}
	formal, ok := toSlice(syntaxGet(definition[0]))
	if !ok {
		return nil, raisef(domainErrorName, "invalid function definition")
	}
	bodyScope, err := assignParameters(captured, formal, args)
	if err != nil {
		return nil, err
	}
	return evalBlock(definition[1:], bodyScope)
}

// makeClosure builds an interpreted closure from a definition vector
// [params body...] and a captured scope. The closure's type reflects the
// declared parameter list.
func makeClosure(definition []Value, scope *Scope) (*Closure, error) {
	formal, ok := toSlice(syntaxGet(definition[0]))
	if !ok {
		return nil, raisef(syntaxErrorName, "formal parameters must be a vector")
	}
	typ, err := parametersToType(formal, scope.runtime().lang)
	if err != nil {
		return nil, err
	}
	captured := scope.Copy()
	env := []Value{
		&Vector{Cells: definition},
		&Pointer{Type: scopeType, Value: captured},
	}
	cl := NewClosure(evalAnon, env)
	cl.typ = typ
	return cl, nil
}

/* (fn (PARAMS) {EXPR}) */
func evalFn(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 || !syntaxIs(args[0], KindVector) {
		return nil, raisef(syntaxErrorName, "expected (fn (PARAMS) {EXPR})")
	}
	return makeClosure(args, scope)
}

/* (try EXPR) */
func evalTry(args []Value, scope *Scope) (Value, error) {
	if len(args) != 1 {
		return nil, raisef(syntaxErrorName, "expected (try EXPR)")
	}
	rt := scope.runtime()
	l := rt.lang
	resultInstance, ierr := getInstance(resultType, []*Type{anyType, anyType})
	if ierr != nil {
		return nil, ierr
	}
	value, err := Eval(args[0], scope)
	if err == nil {
		return &Data{Type: resultInstance, Tag: l.okSymbol, Fields: []Value{value}}, nil
	}
	e := asError(err)
	var form Value = unit
	if e.Form != nil {
		form = e.Form
	}
	var trace Value = unit
	if t := rt.stackTrace(); t != nil {
		trace = t
	}
	record := NewVector(
		rt.errorModule.ExternSymbol(string(e.Kind)),
		NewString(e.Message),
		form,
		trace,
	)
	rt.clearTrace()
	return &Data{Type: resultInstance, Tag: l.errorSymbol, Fields: []Value{record}}, nil
}

/* (continue {EXPR}) */
func evalContinue(args []Value, scope *Scope) (Value, error) {
	values, err := evalArgs(args, scope)
	if err != nil {
		return nil, err
	}
	return &Continue{Args: &Vector{Cells: values}}, nil
}

/* (loop (PARAMS) {EXPR})
 * Evaluates the body; whenever the result is a continue value, rebinds
 * the formals to its payload and re-enters. */
func evalLoop(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 || !syntaxIs(args[0], KindVector) {
		return nil, raisef(syntaxErrorName, "expected (loop (PARAMS) {EXPR})")
	}
	formal := syntaxVector(args[0]).Cells
	loopScope := scope
	for {
		result, err := evalBlock(args[1:], loopScope)
		if err != nil {
			return nil, err
		}
		cont, ok := result.(*Continue)
		if !ok {
			return result, nil
		}
		loopScope, err = assignParameters(scope, formal, cont.Args.Cells)
		if err != nil {
			return nil, err
		}
	}
}

/* (def (SYMBOL PARAMS) {EXPR}) */
func evalDefFunc(sig *Vector, body []Value, scope *Scope) (Value, error) {
	if len(sig.Cells) < 1 || !syntaxIs(sig.Cells[0], KindSymbol) {
		return nil, raisef(syntaxErrorName, "expected (SYMBOL ... PARAMS)")
	}
	symbol := syntaxSymbol(sig.Cells[0])
	if symbol.Module == nil {
		return nil, raisef(nameErrorName, "cannot define uninterned symbol: %s", symbol.Name)
	}
	doc := ""
	if len(body) > 1 {
		if s, ok := syntaxGet(body[0]).(*String); ok {
			doc = s.String()
			body = body[1:]
		}
	}
	definition := make([]Value, 0, len(body)+1)
	definition = append(definition, &Vector{Cells: sig.Cells[1:]})
	definition = append(definition, body...)
	fn, err := makeClosure(definition, scope)
	if err != nil {
		return nil, err
	}
	fn.Doc = doc
	value := optimizeTailCall(fn, symbol, scope.runtime().lang)
	symbol.Module.Define(symbol, value)
	return symbol, nil
}

/* (def SYMBOL EXPR) */
func evalDefVar(name Value, args []Value, scope *Scope) (Value, error) {
	symbol := syntaxSymbol(name)
	if symbol == nil || len(args) != 1 {
		return nil, raisef(syntaxErrorName, "expected (def SYMBOL EXPR)")
	}
	if symbol.Module == nil {
		return nil, raisef(nameErrorName, "cannot define uninterned symbol: %s", symbol.Name)
	}
	value, err := Eval(args[0], scope)
	if err != nil {
		return nil, err
	}
	symbol.Module.Define(symbol, value)
	return symbol, nil
}

func evalDef(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 {
		return nil, raisef(syntaxErrorName, "expected (def SYMBOL EXPR)")
	}
	if sig := syntaxVector(args[0]); sig != nil {
		result, err := evalDefFunc(sig, args[1:], scope)
		if err != nil {
			if s, ok := args[0].(*Syntax); ok {
				err = attachForm(err, s)
			}
			return nil, err
		}
		return result, nil
	}
	return evalDefVar(args[0], args[1:], scope)
}

/* (def-macro (SYMBOL PARAMS) {EXPR}) */
func evalDefMacro(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 {
		return nil, raisef(syntaxErrorName, "expected (def-macro (SYMBOL ... PARAMS) EXPR)")
	}
	sig := syntaxVector(args[0])
	if sig == nil || len(sig.Cells) < 1 || !syntaxIs(sig.Cells[0], KindSymbol) {
		return nil, raisef(syntaxErrorName, "expected (def-macro (SYMBOL ... PARAMS) EXPR)")
	}
	symbol := syntaxSymbol(sig.Cells[0])
	if symbol.Module == nil {
		return nil, raisef(nameErrorName, "cannot define uninterned symbol: %s", symbol.Name)
	}
	definition := make([]Value, 0, len(args))
	definition = append(definition, &Vector{Cells: sig.Cells[1:]})
	definition = append(definition, args[1:]...)
	fn, err := makeClosure(definition, scope)
	if err != nil {
		return nil, err
	}
	symbol.Module.DefineMacro(symbol, fn)
	return symbol, nil
}

func evalDefType(args []Value, scope *Scope) (Value, error) {
	// TODO: named type aliases and type-level functions beyond def-data.
	return nil, raisef(syntaxErrorName, "not implemented")
}

/* (def-read-macro SYMBOL EXPR) */
func evalDefReadMacro(args []Value, scope *Scope) (Value, error) {
	if len(args) != 2 || !syntaxIs(args[0], KindSymbol) {
		return nil, raisef(syntaxErrorName, "expected (def-read-macro SYMBOL EXPR)")
	}
	symbol := syntaxSymbol(args[0])
	if symbol.Module == nil {
		return nil, raisef(nameErrorName, "cannot define uninterned symbol: %s", symbol.Name)
	}
	value, err := Eval(args[1], scope)
	if err != nil {
		return nil, err
	}
	symbol.Module.DefineReadMacro(symbol, value)
	return symbol, nil
}
