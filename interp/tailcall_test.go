package interp

import (
	"strings"
	"testing"

	"github.com/shoenig/test/must"
)

func parseForms(t *testing.T, i *Interpreter, src string) []Value {
	t.Helper()
	reader := i.rt.NewReader(strings.NewReader(src), "tc.nse", i.rt.userModule)
	var forms []Value
	for {
		reader.skip()
		if reader.peek() == eof {
			return forms
		}
		s, err := reader.Read()
		must.NoError(t, err)
		forms = append(forms, s)
	}
}

func TestRewriteTailCallSelf(t *testing.T) {
	i := New(Options{})
	l := i.rt.lang
	forms := parseForms(t, i, "(f (- n 1))")
	name := i.rt.userModule.InternSymbol("f")

	rewritten, changed := rewriteTailCalls(forms[0], name, l)
	must.True(t, changed)
	v := syntaxVector(rewritten)
	must.NotNil(t, v)
	must.True(t, syntaxSymbol(v.Cells[0]) == l.continueSymbol)
}

func TestRewriteTailCallThroughIf(t *testing.T) {
	i := New(Options{})
	l := i.rt.lang
	forms := parseForms(t, i, `(if (= n 0) "done" (f (- n 1)))`)
	name := i.rt.userModule.InternSymbol("f")

	rewritten, changed := rewriteTailCalls(forms[0], name, l)
	must.True(t, changed)
	v := syntaxVector(rewritten)
	must.True(t, syntaxSymbol(v.Cells[0]) == l.ifSymbol)
	// The consequent is untouched, the alternate became a continue.
	must.Eq(t, EqEqual, Equals(v.Cells[2], NewString("done")))
	alt := syntaxVector(v.Cells[3])
	must.True(t, syntaxSymbol(alt.Cells[0]) == l.continueSymbol)
}

func TestRewriteLeavesNonTailCallsAlone(t *testing.T) {
	i := New(Options{})
	l := i.rt.lang
	name := i.rt.userModule.InternSymbol("f")

	// A call in argument position is not a tail call.
	forms := parseForms(t, i, "(+ 1 (f n))")
	_, changed := rewriteTailCalls(forms[0], name, l)
	must.False(t, changed)

	// A call to a different name is not rewritten.
	forms = parseForms(t, i, "(g n)")
	_, changed = rewriteTailCalls(forms[0], name, l)
	must.False(t, changed)

	// Literals are not rewritten.
	forms = parseForms(t, i, "42")
	_, changed = rewriteTailCalls(forms[0], name, l)
	must.False(t, changed)
}

func TestOptimizeTailCallWrapsBodyInLoop(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`(def (count n) (if (= n 0) "done" (count (- n 1))))`)
	must.NoError(t, err)

	fn, err := UseModule(i.Module()).Get(i.Module().findInternal("count"))
	must.NoError(t, err)
	cl, ok := fn.(*Closure)
	must.True(t, ok)
	definition, _, err := closureDefinition(cl)
	must.NoError(t, err)
	must.Len(t, 2, definition)
	body := syntaxVector(definition[1])
	must.NotNil(t, body)
	must.True(t, syntaxSymbol(body.Cells[0]) == i.rt.lang.loopSymbol)
}

func TestOptimizeTailCallLeavesOthersUnchanged(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`(def (double n) (* n 2))`)
	must.NoError(t, err)
	fn, err := UseModule(i.Module()).Get(i.Module().findInternal("double"))
	must.NoError(t, err)
	cl := fn.(*Closure)
	definition, _, err := closureDefinition(cl)
	must.NoError(t, err)
	body := syntaxVector(definition[1])
	must.True(t, syntaxSymbol(body.Cells[0]) == i.Module().findInternal("*"))
}

func TestNonTailRecursionStillWorks(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`(def (fact n) (if (= n 0) 1 (* n (fact (- n 1)))))`)
	must.NoError(t, err)
	v, err := i.Eval("(fact 10)")
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(3628800)))
}
