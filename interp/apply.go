package interp

// apply applies a callable to evaluated arguments. Natives, closures and
// generic functions push a call-stack trace frame; vectors applied to a
// single integer index behave as accessors.
func apply(function Value, args []Value, scope *Scope) (Value, error) {
	rt := scope.runtime()
	switch fv := function.(type) {
	case Func:
		traced := rt.pushTrace(function, args)
		result, err := fv(args, scope)
		if err == nil && traced {
			rt.popTrace()
		}
		return result, err
	case *Closure:
		traced := rt.pushTrace(function, args)
		result, err := fv.fn(args, fv, scope)
		if err == nil && traced {
			rt.popTrace()
		}
		return result, err
	case *GenFunc:
		traced := rt.pushTrace(function, args)
		result, err := applyGeneric(fv, args, scope)
		if err == nil && traced {
			rt.popTrace()
		}
		return result, err
	case *Vector:
		if len(args) == 1 {
			if index, ok := args[0].(I64); ok {
				if index < 0 || int(index) >= len(fv.Cells) {
					return nil, raisef(domainErrorName, "index out of bounds")
				}
				return fv.Cells[index], nil
			}
		}
		return nil, raisef(domainErrorName, "expected (VECTOR INDEX)")
	default:
		return nil, raisef(domainErrorName, "not a function")
	}
}

// applyGeneric resolves a generic function call to the most specific
// method in the function's context module and applies it.
func applyGeneric(fn *GenFunc, args []Value, scope *Scope) (Value, error) {
	if fn.Context == nil {
		return nil, raisef(nameErrorName, "generic function has no methods in the current module")
	}
	if len(args) < fn.MinArity {
		return nil, raisef(domainErrorName, "expected at least %d parameters", fn.MinArity)
	}
	types := make([]*Type, fn.TypeParams)
	unifyAt := func(slot int, arg Value) {
		if types[slot] == nil {
			types[slot] = TypeOf(arg)
		} else {
			types[slot] = UnifyTypes(types[slot], TypeOf(arg))
		}
	}
	for i := 0; i < fn.MinArity; i++ {
		if index := fn.ParamIndices[i]; index >= 0 {
			unifyAt(index, args[i])
		}
	}
	if fn.Variadic {
		if index := fn.ParamIndices[fn.MinArity]; index >= 0 {
			for i := fn.MinArity; i < len(args); i++ {
				unifyAt(index, args[i])
			}
		}
	}
	for i := range types {
		if types[i] == nil {
			types[i] = nothingType
		}
	}
	method := fn.Context.FindMethod(fn.Name, types)
	if method == nil {
		return nil, raisef(nameErrorName, "no method matching types (%s) found", writeTypeArray(types, scope.module))
	}
	return apply(method, args, scope)
}
