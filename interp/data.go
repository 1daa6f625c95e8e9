package interp

import (
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v2"
)

// def-data: algebraic data types. A plain definition introduces a fresh
// simple type under any; a generic definition introduces a generic type
// whose variables are visible in the constructor parameter types. Each
// constructor compiles to a closure that checks arity and field types at
// application time.

// constructorParameterTypes reads the parameter list of a constructor:
// bare symbols mean any, ^TYPE and (SYMBOL ^TYPE) evaluate the quoted
// type in the type scope. Malformed parameters are reported together.
func constructorParameterTypes(params []Value, typeScope *Scope) ([]*Type, error) {
	types := make([]*Type, len(params))
	var errs *multierror.Error
	for i, param := range params {
		switch {
		case syntaxIs(param, KindSymbol):
			types[i] = anyType
		case syntaxIs(param, KindTypeQuote):
			tq := syntaxGet(param).(*TypeQuote)
			value, err := Eval(tq.Quoted, typeScope)
			if err != nil {
				return nil, err
			}
			t, ok := value.(*Type)
			if !ok {
				errs = multierror.Append(errs, withForm(raisef(syntaxErrorName, "expected a type"), param))
				continue
			}
			types[i] = t
		case syntaxIs(param, KindVector):
			v := syntaxVector(param)
			if len(v.Cells) != 2 || !syntaxIs(v.Cells[0], KindSymbol) || !syntaxIs(v.Cells[1], KindTypeQuote) {
				errs = multierror.Append(errs, withForm(raisef(syntaxErrorName, "expected (SYMBOL ^TYPE)"), param))
				continue
			}
			tq := syntaxGet(v.Cells[1]).(*TypeQuote)
			value, err := Eval(tq.Quoted, typeScope)
			if err != nil {
				return nil, err
			}
			t, ok := value.(*Type)
			if !ok {
				errs = multierror.Append(errs, withForm(raisef(syntaxErrorName, "expected a type"), v.Cells[1]))
				continue
			}
			types[i] = t
		default:
			errs = multierror.Append(errs, withForm(raisef(syntaxErrorName, "expected SYMBOL or ^TYPE or (SYMBOL ^TYPE)"), param))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, raisef(syntaxErrorName, "invalid constructor parameters: %v", err)
	}
	return types, nil
}

// isInstanceOf checks actual against formal in the context of generic g.
// Type variables of g encountered in formal are captured into params,
// which starts nil and is allocated on first capture. Nested positions
// check invariantly.
func isInstanceOf(actual, formal *Type, g *GType, invariant bool, arity int, params *[]*Type) bool {
	switch formal.Kind {
	case TypeSimple, TypeFunc, TypePolyInstance:
		if invariant {
			return actual == formal
		}
		return IsSubtypeOf(actual, formal)
	case TypeInstance:
		if actual.Kind == TypePolyInstance && actual.Generic == formal.Generic {
			return true
		}
		if actual.Kind != TypeInstance || actual.Generic != formal.Generic {
			if invariant || actual.Super == nil {
				return false
			}
			return isInstanceOf(actual.Super, formal, g, invariant, arity, params)
		}
		for i := range actual.Params {
			if !isInstanceOf(actual.Params[i], formal.Params[i], g, true, arity, params) {
				return false
			}
		}
		return true
	case TypePolyVar:
		if formal.Generic != g {
			return actual == formal
		}
		if *params == nil {
			*params = make([]*Type, arity)
		}
		if existing := (*params)[formal.Index]; existing != nil {
			return IsSubtypeOf(actual, existing)
		}
		(*params)[formal.Index] = actual
		return true
	default:
		return false
	}
}

// constructorEnv is the environment layout of a data constructor closure.
type constructorEnv struct {
	typ   *Type
	tag   *Symbol
	types []*Type
	scope *Scope
}

// applyConstructor checks the arguments against the declared field types
// and produces a data value. When type variables were bound, the value's
// type is the corresponding specific instance of the generic.
func applyConstructor(args []Value, cl *Closure, _ *Scope) (Value, error) {
	env := cl.Env[0].(*Pointer).Value.(*constructorEnv)
	if len(args) != len(env.types) {
		return nil, raisef(domainErrorName, "%s expected %d parameters, but got %d", env.tag.Name, len(env.types), len(args))
	}
	var g *GType
	gArity := 0
	if env.typ.Kind == TypePolyInstance {
		g = env.typ.Generic
		gArity = g.Arity
	}
	var gParams []*Type
	for i, formal := range env.types {
		actual := TypeOf(args[i])
		if !isInstanceOf(actual, formal, g, false, gArity, &gParams) {
			expected := formal
			if gParams != nil {
				expected = instantiateType(formal, g, gParams)
			}
			return nil, withArgIndex(raisef(domainErrorName,
				"%s expected parameter %d to be of type %s, not %s",
				env.tag.Name, i+1, writeTypeString(expected, env.scope.module), writeTypeString(actual, env.scope.module)), i)
		}
	}
	t := env.typ
	if gParams != nil {
		for i := range gParams {
			if gParams[i] == nil {
				gParams[i] = nothingType
			}
		}
		instance, err := getInstance(g, gParams)
		if err != nil {
			return nil, err
		}
		t = instance
	}
	fields := make([]Value, len(args))
	copy(fields, args)
	return &Data{Type: t, Tag: env.tag, Fields: fields}, nil
}

// evalDefDataConstructor compiles one (TAG field...) constructor for the
// data type t and binds it in the tag's home module.
func evalDefDataConstructor(cells []Value, t *Type, typeScope *Scope) (Value, error) {
	tag := syntaxSymbol(cells[0])
	if tag == nil || tag.Module == nil {
		return nil, withForm(raisef(syntaxErrorName, "name of constructor must be an interned symbol"), cells[0])
	}
	types, err := constructorParameterTypes(cells[1:], typeScope)
	if err != nil {
		return nil, err
	}
	env := &constructorEnv{typ: t, tag: tag, types: types, scope: typeScope.Copy()}
	fn := NewClosure(applyConstructor, []Value{&Pointer{Type: scopeType, Value: env}})
	tag.Module.Define(tag, fn)
	return fn, nil
}

// evalDefGenericType creates the generic type for (NAME VAR...) and
// pushes poly-var bindings for the variables onto the type scope. The
// instance-producing type function is installed under NAME.
func evalDefGenericType(sig *Vector, typeScope *Scope) (*GType, *Scope, error) {
	if len(sig.Cells) < 2 || !syntaxIs(sig.Cells[0], KindSymbol) {
		return nil, typeScope, raisef(syntaxErrorName, "expected (SYMBOL ... PARAMS)")
	}
	name := syntaxSymbol(sig.Cells[0])
	if name.Module == nil {
		return nil, typeScope, raisef(nameErrorName, "cannot define uninterned symbol: %s", name.Name)
	}
	g := newGType(len(sig.Cells)-1, anyType)
	g.Name = name
	for i, varForm := range sig.Cells[1:] {
		varName := syntaxSymbol(varForm)
		if varName == nil {
			return nil, typeScope, withForm(raisef(syntaxErrorName, "generic type parameters must be symbols"), varForm)
		}
		typeScope = typeScope.Push(varName, newPolyVar(g, i))
	}
	name.Module.DefineType(name, Func(func(args []Value, _ *Scope) (Value, error) {
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
	return g, typeScope, nil
}

// defDataConstructors processes the constructor forms shared by the
// plain and generic cases. Duplicate tags are rejected.
func defDataConstructors(constructors []Value, t *Type, typeScope *Scope) error {
	tags := set.New[*Symbol](len(constructors))
	for _, constructor := range constructors {
		if v := syntaxVector(constructor); v != nil && len(v.Cells) >= 1 {
			tag := syntaxSymbol(v.Cells[0])
			if tag != nil && !tags.Insert(tag) {
				return withForm(raisef(syntaxErrorName, "duplicate constructor: %s", tag.Name), constructor)
			}
			if _, err := evalDefDataConstructor(v.Cells, t, typeScope); err != nil {
				return err
			}
		} else if tag := syntaxSymbol(constructor); tag != nil && tag.Module != nil {
			if !tags.Insert(tag) {
				return withForm(raisef(syntaxErrorName, "duplicate constructor: %s", tag.Name), constructor)
			}
			tag.Module.Define(tag, &Data{Type: t, Tag: tag})
		} else {
			return withForm(raisef(syntaxErrorName, "expected SYMBOL or (SYMBOL ... PARAMS)"), constructor)
		}
	}
	return nil
}

/* (def-data SYMBOL {CONSTRUCTOR})
 * (def-data (SYMBOL {SYMBOL}) {CONSTRUCTOR}) */
func evalDefData(args []Value, scope *Scope) (Value, error) {
	if len(args) < 1 {
		return nil, raisef(syntaxErrorName, "expected (def-data SYMBOL ... CONSTRUCTORS)")
	}
	if sig := syntaxVector(args[0]); sig != nil {
		typeScope := useModuleTypes(scope.module)
		g, typeScope, err := evalDefGenericType(sig, typeScope)
		if err != nil {
			if s, ok := args[0].(*Syntax); ok {
				err = attachForm(err, s)
			}
			return nil, err
		}
		t := getPolyInstance(g)
		if err := defDataConstructors(args[1:], t, typeScope); err != nil {
			return nil, err
		}
		return t, nil
	}
	name := syntaxSymbol(args[0])
	if name == nil || name.Module == nil {
		return nil, withForm(raisef(syntaxErrorName, "name of type must be an interned symbol"), args[0])
	}
	t := newSimpleType(anyType)
	t.Name = name
	name.Module.DefineType(name, t)
	if err := defDataConstructors(args[1:], t, useModuleTypes(scope.module)); err != nil {
		return nil, err
	}
	return t, nil
}
