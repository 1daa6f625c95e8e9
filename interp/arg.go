package interp

import (
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set/v2"
)

// Parameter binding. Formal parameter lists are vectors of symbols with
// the &opt, &key, &rest and &match markers; binding consumes formals and
// actuals in parallel and pushes frames onto the scope.

type namedParameter struct {
	keyword      *Symbol
	symbol       *Symbol
	defaultValue Value // unevaluated; nil when absent
}

// assignNamedParameters binds &key parameters. Actuals are alternating
// :keyword value pairs; missing parameters get their default, evaluated
// lazily in the scope populated so far.
func assignNamedParameters(scope *Scope, formal, actual []Value) (*Scope, error) {
	rt := scope.runtime()
	var params []namedParameter
	var errs *multierror.Error
	for _, f := range formal {
		var p namedParameter
		if v := syntaxVector(f); v != nil {
			if len(v.Cells) == 2 && syntaxIs(v.Cells[0], KindSymbol) {
				p.symbol = syntaxSymbol(v.Cells[0])
				p.defaultValue = v.Cells[1]
			} else {
				errs = multierror.Append(errs, withForm(raisef(syntaxErrorName, "expected (SYMBOL EXPR)"), f))
				continue
			}
		} else if s := syntaxSymbol(f); s != nil {
			p.symbol = s
		} else {
			errs = multierror.Append(errs, withForm(raisef(syntaxErrorName, "expected a symbol"), f))
			continue
		}
		p.keyword = rt.InternKeyword(p.symbol.Name).Sym
		params = append(params, p)
	}
	if errs != nil {
		return scope, raisef(syntaxErrorName, "invalid named parameters: %v", errs.ErrorOrNil())
	}
	seen := set.New[*Symbol](len(params))
	for i := 0; i < len(actual); i += 2 {
		kw, ok := syntaxGet(actual[i]).(Keyword)
		if !ok {
			return scope, withArgIndex(raisef(domainErrorName, "expected a keyword"), i)
		}
		if i+1 >= len(actual) {
			return scope, withArgIndex(raisef(domainErrorName, "keyword must be followed by a value"), i)
		}
		if !seen.Insert(kw.Sym) {
			return scope, withArgIndex(raisef(domainErrorName, "duplicate named parameter: %s", kw.Sym.Name), i)
		}
		var symbol *Symbol
		for _, p := range params {
			if p.keyword == kw.Sym {
				symbol = p.symbol
				break
			}
		}
		if symbol == nil {
			return scope, withArgIndex(raisef(domainErrorName, "unknown named parameter: %s", kw.Sym.Name), i)
		}
		scope = scope.Push(symbol, actual[i+1])
	}
	for _, p := range params {
		if seen.Contains(p.keyword) {
			continue
		}
		if p.defaultValue != nil {
			value, err := Eval(p.defaultValue, scope)
			if err != nil {
				return scope, err
			}
			scope = scope.Push(p.symbol, value)
		} else {
			scope = scope.Push(p.symbol, unit)
		}
	}
	return scope, nil
}

// assignRestParameters binds the single &rest symbol to the remaining
// actuals as a vector.
func assignRestParameters(scope *Scope, formal, actual []Value) (*Scope, error) {
	if len(formal) == 1 {
		if s := syntaxSymbol(formal[0]); s != nil {
			return scope.Push(s, &Vector{Cells: actual}), nil
		}
	}
	err := raisef(syntaxErrorName, "&rest must be followed by exactly one symbol")
	if len(formal) >= 1 {
		return scope, withForm(err, formal[0])
	}
	return scope, err
}

// assignOptParameters binds &opt parameters: positional with defaults,
// possibly switching to &key or &rest mid-run.
func assignOptParameters(scope *Scope, formal, actual []Value) (*Scope, error) {
	j := 0
	for i, f := range formal {
		var symbol *Symbol
		var defaultExpr Value
		if v := syntaxVector(f); v != nil {
			if len(v.Cells) != 2 || !syntaxIs(v.Cells[0], KindSymbol) {
				return scope, withForm(raisef(syntaxErrorName, "expected (SYMBOL EXPR)"), f)
			}
			symbol = syntaxSymbol(v.Cells[0])
			defaultExpr = v.Cells[1]
		} else if s := syntaxSymbol(f); s != nil {
			symbol = s
		} else {
			return scope, withForm(raisef(syntaxErrorName, "expected a symbol"), f)
		}
		l := scope.runtime().lang
		if symbol == l.keyKeyword {
			return assignNamedParameters(scope, formal[i+1:], actual[j:])
		}
		if symbol == l.restKeyword {
			return assignRestParameters(scope, formal[i+1:], actual[j:])
		}
		if j < len(actual) {
			scope = scope.Push(symbol, actual[j])
			j++
		} else if defaultExpr != nil {
			value, err := Eval(defaultExpr, scope)
			if err != nil {
				return scope, err
			}
			scope = scope.Push(symbol, value)
		} else {
			scope = scope.Push(symbol, unit)
		}
	}
	if j < len(actual) {
		return scope, withArgIndex(raisef(domainErrorName, "too many parameters"), j)
	}
	return scope, nil
}

// matchPattern matches actual against pattern, binding symbols in the
// returned scope. Failure is a pattern-error.
func matchPattern(scope *Scope, pattern, actual Value) (*Scope, error) {
	switch pv := pattern.(type) {
	case *Syntax:
		rt := scope.runtime()
		previous := rt.pushDebugForm(pv)
		result, err := matchPattern(scope, pv.Quoted, actual)
		rt.popDebugForm(err, previous)
		if err != nil {
			return scope, attachForm(err, pv)
		}
		return result, nil
	case *Symbol:
		return scope.Push(pv, actual), nil
	case *Quote:
		// A quoted symbol matches a zero-field data value by tag.
		if d, ok := syntaxGet(actual).(*Data); ok && syntaxIs(pv.Quoted, KindSymbol) {
			if syntaxSymbol(pv.Quoted) != d.Tag || len(d.Fields) != 0 {
				return scope, raisef(patternErrorName, "pattern match failed")
			}
			return scope, nil
		}
		if Equals(pv.Quoted, actual) != EqEqual {
			return scope, raisef(patternErrorName, "pattern match failed")
		}
		return scope, nil
	case *Vector:
		if d, ok := syntaxGet(actual).(*Data); ok {
			if len(pv.Cells) != len(d.Fields)+1 || !syntaxExact(pv.Cells[0], d.Tag) {
				return scope, raisef(patternErrorName, "pattern match failed")
			}
			for i, field := range d.Fields {
				var err error
				scope, err = matchPattern(scope, pv.Cells[i+1], field)
				if err != nil {
					return scope, err
				}
			}
			return scope, nil
		}
		cells, ok := toSlice(syntaxGet(actual))
		if !ok {
			return scope, raisef(patternErrorName, "expected vector")
		}
		if len(pv.Cells) != len(cells) {
			return scope, raisef(patternErrorName, "expected vector of length %d", len(pv.Cells))
		}
		for i, p := range pv.Cells {
			var err error
			scope, err = matchPattern(scope, p, cells[i])
			if err != nil {
				return scope, err
			}
		}
		return scope, nil
	case Unit, I64, F64, *String, Keyword:
		if Equals(pattern, actual) != EqEqual {
			return scope, raisef(patternErrorName, "pattern match failed")
		}
		return scope, nil
	default:
		return scope, raisef(patternErrorName, "invalid pattern")
	}
}

// assignParameters binds a full formal parameter list.
func assignParameters(scope *Scope, formal, actual []Value) (*Scope, error) {
	l := scope.runtime().lang
	j := 0
	for i := 0; i < len(formal); i++ {
		symbol := syntaxSymbol(formal[i])
		if symbol == nil {
			return scope, withForm(raisef(syntaxErrorName, "expected a symbol"), formal[i])
		}
		switch symbol {
		case l.keyKeyword:
			return assignNamedParameters(scope, formal[i+1:], actual[j:])
		case l.optKeyword:
			return assignOptParameters(scope, formal[i+1:], actual[j:])
		case l.restKeyword:
			return assignRestParameters(scope, formal[i+1:], actual[j:])
		}
		if j >= len(actual) {
			return scope, raisef(domainErrorName, "too few parameters")
		}
		if symbol == l.matchKeyword {
			if i+1 >= len(formal) {
				return scope, withForm(raisef(syntaxErrorName, "&match must be followed by a pattern"), formal[i])
			}
			i++
			var err error
			scope, err = matchPattern(scope, formal[i], actual[j])
			if err != nil {
				return scope, err
			}
			j++
		} else {
			scope = scope.Push(symbol, actual[j])
			j++
		}
	}
	if j < len(actual) {
		return scope, withArgIndex(raisef(domainErrorName, "too many parameters"), j)
	}
	return scope, nil
}

// parametersToType computes the function-arity type of a formal
// parameter list.
func parametersToType(formal []Value, l *lang) (*Type, error) {
	minArity := 0
	optional := false
	key := false
	variadic := false
scan:
	for i := 0; i < len(formal); i++ {
		symbol := syntaxSymbol(formal[i])
		if symbol == nil {
			return nil, withForm(raisef(syntaxErrorName, "expected a symbol"), formal[i])
		}
		switch symbol {
		case l.keyKeyword:
			key = true
			break scan
		case l.optKeyword:
			optional = true
			for i++; i < len(formal); i++ {
				if s := syntaxSymbol(formal[i]); s == l.keyKeyword {
					key = true
					break
				} else if s == l.restKeyword {
					variadic = true
					break
				}
			}
			break scan
		case l.restKeyword:
			variadic = true
			break scan
		case l.matchKeyword:
			i++
			minArity++
		default:
			minArity++
		}
	}
	return getFuncType(minArity, variadic || key || optional), nil
}
