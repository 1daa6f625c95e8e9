package interp

// lang holds the interned identity of every symbol the evaluator matches
// on: special forms, the boolean constants and the parameter-list
// keywords. Symbols are pointer-equal per module, so the evaluator
// compares against these directly.
type lang struct {
	module *Module

	trueSymbol  *Symbol
	falseSymbol *Symbol

	ifSymbol           *Symbol
	letSymbol          *Symbol
	matchSymbol        *Symbol
	doSymbol           *Symbol
	fnSymbol           *Symbol
	trySymbol          *Symbol
	loopSymbol         *Symbol
	recurSymbol        *Symbol
	continueSymbol     *Symbol
	defSymbol          *Symbol
	defMacroSymbol     *Symbol
	defTypeSymbol      *Symbol
	defReadMacroSymbol *Symbol
	defDataSymbol      *Symbol
	defGenericSymbol   *Symbol
	defMethodSymbol    *Symbol
	quoteSymbol        *Symbol
	typeSymbol         *Symbol
	backquoteSymbol    *Symbol
	unquoteSymbol      *Symbol
	spliceSymbol       *Symbol

	readCharSymbol   *Symbol
	readStringSymbol *Symbol
	readSymbolSymbol *Symbol
	readIntSymbol    *Symbol
	readAnySymbol    *Symbol
	readBindSymbol   *Symbol
	readReturnSymbol *Symbol
	readIgnoreSymbol *Symbol

	keyKeyword   *Symbol
	optKeyword   *Symbol
	restKeyword  *Symbol
	matchKeyword *Symbol

	okSymbol    *Symbol
	errorSymbol *Symbol

	trueValue  *Data
	falseValue *Data

	readActionType *Type
}

// initLang creates the lang module: boolean constants, special forms and
// the read-action constructors.
func (rt *Runtime) initLang() error {
	m, err := rt.CreateModule("lang")
	if err != nil {
		return err
	}
	l := &lang{module: m}
	rt.lang = l

	l.trueSymbol = m.ExternSymbol("true")
	l.falseSymbol = m.ExternSymbol("false")
	l.ifSymbol = m.ExternSymbol("if")
	l.letSymbol = m.ExternSymbol("let")
	l.matchSymbol = m.ExternSymbol("match")
	l.doSymbol = m.ExternSymbol("do")
	l.fnSymbol = m.ExternSymbol("fn")
	l.trySymbol = m.ExternSymbol("try")
	l.loopSymbol = m.ExternSymbol("loop")
	l.recurSymbol = m.ExternSymbol("recur")
	l.continueSymbol = m.ExternSymbol("continue")
	l.defSymbol = m.ExternSymbol("def")
	l.defMacroSymbol = m.ExternSymbol("def-macro")
	l.defTypeSymbol = m.ExternSymbol("def-type")
	l.defReadMacroSymbol = m.ExternSymbol("def-read-macro")
	l.defDataSymbol = m.ExternSymbol("def-data")
	l.defGenericSymbol = m.ExternSymbol("def-generic")
	l.defMethodSymbol = m.ExternSymbol("def-method")
	l.quoteSymbol = m.ExternSymbol("quote")
	l.typeSymbol = m.ExternSymbol("type")
	l.backquoteSymbol = m.ExternSymbol("backquote")
	l.unquoteSymbol = m.ExternSymbol("unquote")
	l.spliceSymbol = m.ExternSymbol("splice")

	l.readCharSymbol = m.ExternSymbol("read-char")
	l.readStringSymbol = m.ExternSymbol("read-string")
	l.readSymbolSymbol = m.ExternSymbol("read-symbol")
	l.readIntSymbol = m.ExternSymbol("read-int")
	l.readAnySymbol = m.ExternSymbol("read-any")
	l.readBindSymbol = m.ExternSymbol("read-bind")
	l.readReturnSymbol = m.ExternSymbol("read-return")
	l.readIgnoreSymbol = m.ExternSymbol("read-ignore")

	l.keyKeyword = m.ExternSymbol("&key")
	l.optKeyword = m.ExternSymbol("&opt")
	l.restKeyword = m.ExternSymbol("&rest")
	l.matchKeyword = m.ExternSymbol("&match")

	l.okSymbol = m.ExternSymbol("ok")
	l.errorSymbol = m.ExternSymbol("error")

	l.trueValue = &Data{Type: boolType, Tag: l.trueSymbol}
	l.falseValue = &Data{Type: boolType, Tag: l.falseSymbol}
	m.Define(l.trueSymbol, l.trueValue)
	m.Define(l.falseSymbol, l.falseValue)

	rt.installSpecialForms(m)
	l.installReadActions(m)

	// Built-in type names resolve through the lang type namespace. The
	// built-in types are shared by every runtime in the process, so each new
	// lang module renames them after its own symbols.
	for _, t := range []*Type{nothingType, anyType, unitType, boolType, numType, intType, floatType, i64Type, f64Type, stringType, symbolType, keywordType, contType, syntaxType, typeType, funcType, scopeType, streamType, gtypeType} {
		t.Name = nil
	}
	for _, g := range []*GType{resultType, vectorType, vectorSliceType, arrayType, arraySliceType, arrayBufferType, listType, weakRefType, hashMapType, entryType} {
		g.Name = nil
	}
	m.extDefineType("nothing", nothingType)
	m.extDefineType("any", anyType)
	m.extDefineType("unit", unitType)
	m.extDefineType("bool", boolType)
	m.extDefineType("num", numType)
	m.extDefineType("int", intType)
	m.extDefineType("float", floatType)
	m.extDefineType("i64", i64Type)
	m.extDefineType("f64", f64Type)
	m.extDefineType("string", stringType)
	m.extDefineType("symbol", symbolType)
	m.extDefineType("keyword", keywordType)
	m.extDefineType("continue", contType)
	m.extDefineType("syntax", syntaxType)
	m.extDefineType("type", typeType)
	m.extDefineType("func", funcType)
	m.extDefineType("scope", scopeType)
	m.extDefineType("stream", streamType)
	m.extDefineType("generic-type", gtypeType)
	nameGeneric(m, "result", resultType)
	nameGeneric(m, "vector", vectorType)
	nameGeneric(m, "vector-slice", vectorSliceType)
	nameGeneric(m, "array", arrayType)
	nameGeneric(m, "array-slice", arraySliceType)
	nameGeneric(m, "array-buffer", arrayBufferType)
	nameGeneric(m, "list", listType)
	nameGeneric(m, "weak", weakRefType)
	nameGeneric(m, "hash-map", hashMapType)
	nameGeneric(m, "entry", entryType)
	return nil
}

// nameGeneric binds a generic's name and installs a type-level function
// producing its instances.
func nameGeneric(m *Module, name string, g *GType) {
	s := m.ExternSymbol(name)
	if g.Name == nil {
		g.Name = s
	}
	m.DefineType(s, Func(func(args []Value, _ *Scope) (Value, error) {
		if len(args) != g.Arity {
			return nil, raisef(domainErrorName, "wrong number of parameters for generic type, expected %d, got %d", g.Arity, len(args))
		}
		params := make([]*Type, len(args))
		for i, arg := range args {
			t, ok := arg.(*Type)
			if !ok {
				return nil, withArgIndex(raisef(domainErrorName, "generic type parameter must be a type"), i)
			}
			params[i] = t
		}
		instance, err := getInstance(g, params)
		if err != nil {
			return nil, err
		}
		return instance, nil
	}))
}

// installReadActions defines the read-action data type and its
// constructors. A read macro evaluates to one of these actions; the
// reader interprets them.
func (l *lang) installReadActions(m *Module) {
	t := newSimpleType(anyType)
	t.Name = m.ExternSymbol("read-action")
	m.DefineType(t.Name, t)
	l.readActionType = t

	action := func(tag *Symbol) *Data {
		return &Data{Type: t, Tag: tag}
	}
	m.Define(l.readCharSymbol, action(l.readCharSymbol))
	m.Define(l.readStringSymbol, action(l.readStringSymbol))
	m.Define(l.readSymbolSymbol, action(l.readSymbolSymbol))
	m.Define(l.readIntSymbol, action(l.readIntSymbol))
	m.Define(l.readAnySymbol, action(l.readAnySymbol))
	m.Define(l.readIgnoreSymbol, action(l.readIgnoreSymbol))
	m.Define(l.readReturnSymbol, Func(func(args []Value, _ *Scope) (Value, error) {
		if len(args) != 1 {
			return nil, raisef(domainErrorName, "read-return expects 1 parameter")
		}
		return &Data{Type: t, Tag: l.readReturnSymbol, Fields: args}, nil
	}))
	m.Define(l.readBindSymbol, Func(func(args []Value, _ *Scope) (Value, error) {
		if len(args) != 2 {
			return nil, raisef(domainErrorName, "read-bind expects 2 parameters")
		}
		return &Data{Type: t, Tag: l.readBindSymbol, Fields: args}, nil
	}))
}
