package interp

// Tail-call rewriting. A closure bound to a name by def or let has the
// tail-position calls to that name in its body rewritten into continue
// forms, and the body wrapped in a loop re-binding the formals, so
// self-recursion runs in constant stack space. The rewrite is a pure
// function over the definition; the original closure is left untouched
// when nothing rewrites.

// rewriteTailCalls returns the rewritten form and whether any call was
// rewritten. Tail positions are the form itself and the consequent and
// alternate of an if.
func rewriteTailCalls(code Value, name *Symbol, l *lang) (Value, bool) {
	switch cv := code.(type) {
	case *Syntax:
		rewritten, changed := rewriteTailCalls(cv.Quoted, name, l)
		if !changed {
			return code, false
		}
		wrapped := *cv
		wrapped.Quoted = rewritten
		return &wrapped, true
	case *Vector:
		if len(cv.Cells) == 0 {
			return code, false
		}
		head := syntaxSymbol(cv.Cells[0])
		if head == name {
			cells := make([]Value, len(cv.Cells))
			copy(cells, cv.Cells)
			cells[0] = l.continueSymbol
			return &Vector{Cells: cells}, true
		}
		if head == l.ifSymbol && len(cv.Cells) == 4 {
			consequent, c1 := rewriteTailCalls(cv.Cells[2], name, l)
			alternate, c2 := rewriteTailCalls(cv.Cells[3], name, l)
			if !c1 && !c2 {
				return code, false
			}
			cells := make([]Value, 4)
			copy(cells, cv.Cells)
			cells[2] = consequent
			cells[3] = alternate
			return &Vector{Cells: cells}, true
		}
		return code, false
	default:
		return code, false
	}
}

// optimizeTailCall rewrites cl's body when it self-recurs in tail
// position under name. Closures whose environment does not have the
// interpreted shape are returned unchanged.
func optimizeTailCall(cl *Closure, name *Symbol, l *lang) Value {
	definition, _, err := closureDefinition(cl)
	if err != nil {
		return cl
	}
	params := definition[0]
	body := definition[1:]
	if len(body) == 0 {
		return cl
	}
	// Only the last body form is in tail position.
	last, changed := rewriteTailCalls(body[len(body)-1], name, l)
	if !changed {
		return cl
	}
	loop := make([]Value, 0, len(body)+2)
	loop = append(loop, l.loopSymbol, params)
	loop = append(loop, body[:len(body)-1]...)
	loop = append(loop, last)
	replacement := *cl
	replacement.Env = []Value{
		NewVector(params, &Vector{Cells: loop}),
		cl.Env[1],
	}
	return &replacement
}
