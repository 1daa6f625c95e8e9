package interp

// Module is a named collection of interned symbols and four namespaces:
// values, macros, types and read macros. Multimethod implementations live
// in a per-module method registry keyed by function name and first
// parameter type.
type Module struct {
	rt   *Runtime
	name string

	internal genericHashMap[string, *Symbol]
	external genericHashMap[string, *Symbol]

	defs          genericHashMap[*Symbol, Value]
	macroDefs     genericHashMap[*Symbol, Value]
	typeDefs      genericHashMap[*Symbol, Value]
	readMacroDefs genericHashMap[*Symbol, Value]

	// Special-form handlers. Populated only for the lang module; consulted
	// through the defining symbol's home module like the macro namespace.
	evalDefs genericHashMap[*Symbol, specialForm]

	methods genericHashMap[methodKey, *methodList]
}

// specialForm is a handler receiving its arguments unevaluated.
type specialForm func(args []Value, scope *Scope) (Value, error)

type methodKey struct {
	symbol *Symbol
	first  *Type
}

type methodList struct {
	params     []*Type
	definition Value
	next       *methodList
}

// CreateModule registers a fresh module under name. Defining the same
// name twice is a name-error.
func (rt *Runtime) CreateModule(name string) (*Module, error) {
	if _, ok := rt.modules.Get(name); ok {
		return nil, raisef(nameErrorName, "module already defined: %s", name)
	}
	m := &Module{
		rt:            rt,
		name:          name,
		internal:      newSymbolMap(),
		external:      newSymbolMap(),
		defs:          newNamespace(),
		macroDefs:     newNamespace(),
		typeDefs:      newNamespace(),
		readMacroDefs: newNamespace(),
		evalDefs: newHashMap[*Symbol, specialForm](
			func(s *Symbol) uint64 { return hashPointer(s) },
			func(a, b *Symbol) bool { return a == b },
		),
		methods: newHashMap[methodKey, *methodList](
			func(k methodKey) uint64 {
				return hashUint64(hashPointer(k.symbol), hashPointer(k.first))
			},
			func(a, b methodKey) bool { return a == b },
		),
	}
	rt.modules.Set(name, m)
	rt.logger.Trace("created module", "module", name)
	return m, nil
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// FindModule looks a module up in the runtime registry.
func (rt *Runtime) FindModule(name string) *Module {
	m, _ := rt.modules.Get(name)
	return m
}

// InternSymbol returns the symbol for name in m, creating and interning it
// on first use. Interning is idempotent.
func (m *Module) InternSymbol(name string) *Symbol {
	if s, ok := m.internal.Get(name); ok {
		return s
	}
	s := &Symbol{Module: m, Name: name}
	m.internal.Set(name, s)
	return s
}

// ExternSymbol interns name and exposes it in m's external table.
func (m *Module) ExternSymbol(name string) *Symbol {
	if s, ok := m.external.Get(name); ok {
		return s
	}
	s := m.InternSymbol(name)
	m.external.Set(name, s)
	return s
}

// findInternal resolves a name against m's internal table only.
func (m *Module) findInternal(name string) *Symbol {
	s, _ := m.internal.Get(name)
	return s
}

// InternKeyword interns name in the shared keyword module.
func (rt *Runtime) InternKeyword(name string) Keyword {
	return Keyword{Sym: rt.keywordModule.ExternSymbol(name)}
}

// FindSymbol resolves a qualified "module/name" reference against the
// runtime registry and the target module's external table.
func (rt *Runtime) FindSymbol(qualified string) (*Symbol, error) {
	moduleLen := 0
	empty := true
	for i := 0; i < len(qualified); i++ {
		if qualified[i] == '/' {
			if !empty {
				moduleLen = i
				empty = true
			}
		} else {
			empty = false
		}
	}
	moduleName := qualified[:moduleLen]
	symbolName := qualified[moduleLen+1:]
	module := rt.FindModule(moduleName)
	if module == nil {
		return nil, raisef(nameErrorName, "could not find module: %s", moduleName)
	}
	if s, ok := module.external.Get(symbolName); ok {
		return s, nil
	}
	return nil, raisef(nameErrorName, "module %s has no external symbol with name: %s", moduleName, symbolName)
}

// Define installs value under s in the value namespace of s's home
// module, replacing any previous binding.
func (m *Module) Define(s *Symbol, value Value) {
	home := m
	if s.Module != nil {
		home = s.Module
	}
	home.defs.Set(s, value)
	home.rt.logger.Trace("defined value", "module", home.name, "symbol", s.Name)
}

// DefineMacro installs a macro.
func (m *Module) DefineMacro(s *Symbol, value Value) {
	m.macroDefs.Set(s, value)
	m.rt.logger.Trace("defined macro", "module", m.name, "symbol", s.Name)
}

// DefineType installs a type definition or type-level function.
func (m *Module) DefineType(s *Symbol, value Value) {
	if t, ok := value.(*Type); ok && t.Name == nil {
		t.Name = s
	}
	m.typeDefs.Set(s, value)
	m.rt.logger.Trace("defined type", "module", m.name, "symbol", s.Name)
}

// DefineReadMacro installs a reader extension under a one-character
// symbol.
func (m *Module) DefineReadMacro(s *Symbol, value Value) {
	m.readMacroDefs.Set(s, value)
	m.rt.logger.Trace("defined read macro", "module", m.name, "symbol", s.Name)
}

// defineSpecial installs a special-form handler.
func (m *Module) defineSpecial(name string, handler specialForm) {
	m.evalDefs.Set(m.ExternSymbol(name), handler)
}

// extDefine interns name externally and defines it.
func (m *Module) extDefine(name string, value Value) {
	m.Define(m.ExternSymbol(name), value)
}

func (m *Module) extDefineMacro(name string, value Value) {
	m.DefineMacro(m.ExternSymbol(name), value)
}

func (m *Module) extDefineType(name string, value Value) *Symbol {
	s := m.ExternSymbol(name)
	m.DefineType(s, value)
	return s
}

// extDefineGeneric declares a generic function with the given dispatch
// table.
func (m *Module) extDefineGeneric(name string, minArity int, variadic bool, typeParams int, indices []int) *Symbol {
	s := m.ExternSymbol(name)
	m.Define(s, &GenFunc{
		Name:         s,
		MinArity:     minArity,
		Variadic:     variadic,
		TypeParams:   typeParams,
		ParamIndices: indices,
	})
	return s
}

// extDefineMethod registers an implementation for a named generic.
func (m *Module) extDefineMethod(name string, fn Value, params ...*Type) {
	m.DefineMethod(m.ExternSymbol(name), params, fn)
}

// DefineMethod adds (params, definition) to m's method registry under
// (symbol, params[0]).
func (m *Module) DefineMethod(symbol *Symbol, params []*Type, definition Value) {
	entry := &methodList{params: params, definition: definition}
	key := methodKey{symbol: symbol, first: params[0]}
	if existing, ok := m.methods.Get(key); ok {
		entry.next = existing
	}
	m.methods.Set(key, entry)
	m.rt.logger.Debug("registered method", "module", m.name, "function", symbol.Name)
}

// FindMethod selects the most specific method for (symbol, params). The
// registry is consulted under the first parameter type and then along its
// supertype chain, treating the polymorphic instance as the supertype of
// any instance-typed step. Among applicable entries an exact parameter
// match wins, otherwise the entry whose parameters are subtypes of every
// other applicable candidate. Unrelated candidates resolve to the one met
// first in the module's entry list, where DefineMethod puts each new entry
// at the front.
// TODO: when two applicable methods are unrelated by subtyping the choice
// depends on registration order; a total-order selection with an ambiguity
// error would be cleaner.
func (m *Module) FindMethod(symbol *Symbol, params []*Type) Value {
	keyType := params[0]
	for keyType != nil {
		if methods, ok := m.methods.Get(methodKey{symbol: symbol, first: keyType}); ok {
			var method Value
			var bestTypes []*Type
			for entry := methods; entry != nil; entry = entry.next {
				if typeArrayEquals(params, entry.params) {
					return entry.definition
				}
				if areSubtypesOf(params, entry.params) {
					if bestTypes == nil || areSubtypesOf(entry.params, bestTypes) {
						method = entry.definition
						bestTypes = entry.params
					}
				}
			}
			if method != nil {
				return method
			}
		}
		if keyType.Kind == TypeInstance {
			keyType = getPolyInstance(keyType.Generic)
		} else {
			keyType = keyType.Super
		}
	}
	return nil
}

// Import copies src's external symbols into m's internal table and unions
// the method registries.
func (m *Module) Import(src *Module) {
	src.external.Each(func(name string, s *Symbol) bool {
		if _, ok := m.internal.Get(name); !ok {
			m.internal.Set(name, s)
		}
		return true
	})
	src.methods.Each(func(key methodKey, methods *methodList) bool {
		for entry := methods; entry != nil; entry = entry.next {
			m.DefineMethod(key.symbol, entry.params, entry.definition)
		}
		return true
	})
	m.rt.logger.Trace("imported module", "module", m.name, "from", src.name)
}

// ExternalSymbols lists m's external symbols as a vector.
func (m *Module) ExternalSymbols() *Vector {
	cells := make([]Value, 0, m.external.Len())
	m.external.Each(func(_ string, s *Symbol) bool {
		cells = append(cells, s)
		return true
	})
	return &Vector{Cells: cells}
}
