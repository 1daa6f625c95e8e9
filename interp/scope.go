package interp

// scopeNamespace selects which module namespace a scope falls back to
// when frame lookup fails.
type scopeNamespace int

const (
	valueNamespace scopeNamespace = iota
	typeNamespace
)

// binding holds a scoped value. Weak bindings are overwritten in place to
// tie the knot for closures that refer to themselves or to each other in
// let; a nil value marks a name that is declared but not yet defined.
type binding struct {
	value Value
	weak  bool
}

// Scope is a linked stack of frames. Each frame optionally binds one
// symbol and points at the enclosing frame; the root frame of a module
// scope has no symbol and no parent.
type Scope struct {
	module    *Module
	namespace scopeNamespace
	symbol    *Symbol
	binding   *binding
	next      *Scope
}

// UseModule creates a root scope for evaluating in module's value
// namespace.
func UseModule(module *Module) *Scope {
	return &Scope{module: module}
}

// useModuleTypes creates a root scope for evaluating in module's type
// namespace.
func useModuleTypes(module *Module) *Scope {
	return &Scope{module: module, namespace: typeNamespace}
}

// Push adds a frame binding symbol to value.
func (sc *Scope) Push(symbol *Symbol, value Value) *Scope {
	return &Scope{
		module:    sc.module,
		namespace: sc.namespace,
		symbol:    symbol,
		binding:   &binding{value: value},
		next:      sc,
	}
}

// pushDeclared adds a frame whose binding is declared but not yet
// defined. Reading it before Set raises a name-error.
func (sc *Scope) pushDeclared(symbol *Symbol) *Scope {
	return &Scope{
		module:    sc.module,
		namespace: sc.namespace,
		symbol:    symbol,
		binding:   &binding{},
		next:      sc,
	}
}

// Module returns the scope's current module.
func (sc *Scope) Module() *Module { return sc.module }

// Set updates the innermost frame binding symbol. Weak updates are seen by
// closures holding the frame without making the frame own the value.
func (sc *Scope) Set(symbol *Symbol, value Value, weak bool) bool {
	for s := sc; s != nil && s.symbol != nil; s = s.next {
		if s.symbol == symbol {
			s.binding.value = value
			s.binding.weak = weak
			return true
		}
	}
	return false
}

// Get resolves symbol through the frame chain and falls back to the
// symbol's home module namespace selected by the scope.
func (sc *Scope) Get(symbol *Symbol) (Value, error) {
	for s := sc; s != nil && s.symbol != nil; s = s.next {
		if s.symbol == symbol {
			if s.binding.value == nil {
				return nil, raisef(nameErrorName, "undefined name: %s", symbol.Name)
			}
			return s.binding.value, nil
		}
	}
	if symbol.Module != nil {
		var v Value
		var ok bool
		switch sc.namespace {
		case valueNamespace:
			v, ok = symbol.Module.defs.Get(symbol)
		case typeNamespace:
			v, ok = symbol.Module.typeDefs.Get(symbol)
		}
		if ok {
			return v, nil
		}
	}
	return nil, raisef(nameErrorName, "undefined name: %s", symbol.Name)
}

// GetMacro consults only the macro namespace of symbol's home module.
func (sc *Scope) GetMacro(symbol *Symbol) (Value, bool) {
	if symbol.Module == nil {
		return nil, false
	}
	return symbol.Module.macroDefs.Get(symbol)
}

// getSpecial consults only the special-form namespace of symbol's home
// module.
func (sc *Scope) getSpecial(symbol *Symbol) (specialForm, bool) {
	if symbol.Module == nil {
		return nil, false
	}
	return symbol.Module.evalDefs.Get(symbol)
}

// getReadMacro consults only the read-macro namespace of symbol's home
// module.
func getReadMacro(symbol *Symbol) (Value, bool) {
	if symbol.Module == nil {
		return nil, false
	}
	return symbol.Module.readMacroDefs.Get(symbol)
}

// Copy clones the frame chain so a closure capture is unaffected by later
// pops. Bindings are shared, so weak updates stay visible to the copy.
func (sc *Scope) Copy() *Scope {
	if sc == nil {
		return nil
	}
	return &Scope{
		module:    sc.module,
		namespace: sc.namespace,
		symbol:    sc.symbol,
		binding:   sc.binding,
		next:      sc.next.Copy(),
	}
}

// runtime returns the runtime owning the scope's module.
func (sc *Scope) runtime() *Runtime { return sc.module.rt }
