package interp

import (
	"testing"

	"github.com/shoenig/test/must"
)

func evalString(t *testing.T, src string) (Value, error) {
	t.Helper()
	i := New(Options{})
	return i.Eval(src)
}

func mustEval(t *testing.T, src string) Value {
	t.Helper()
	v, err := evalString(t, src)
	must.NoError(t, err)
	return v
}

func mustRender(t *testing.T, src string) string {
	t.Helper()
	i := New(Options{})
	v, err := i.Eval(src)
	must.NoError(t, err)
	return WriteToString(v, i.Module())
}

func TestEvalLiterals(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, "42"), I64(42)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "2.5"), F64(2.5)))
	must.Eq(t, EqEqual, Equals(mustEval(t, `"hi"`), NewString("hi")))
	must.Eq(t, EqEqual, Equals(mustEval(t, "()"), unit))
}

func TestEvalKeywordSelfEvaluates(t *testing.T) {
	i := New(Options{})
	v, err := i.Eval(":foo")
	must.NoError(t, err)
	kw, ok := v.(Keyword)
	must.True(t, ok)
	must.Eq(t, "foo", kw.Sym.Name)
}

func TestEvalUndefinedSymbol(t *testing.T) {
	_, err := evalString(t, "nonexistent")
	must.Error(t, err)
	must.Eq(t, nameErrorName, err.(*Error).Kind)
}

func TestEvalArithmetic(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, "(+ 1 2 3)"), I64(6)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "(+)"), I64(0)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "(- 10 3 2)"), I64(5)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "(* 2 3 4)"), I64(24)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "(/ 10 2)"), I64(5)))
	// Mixing i64 and f64 unifies dispatch to the num method.
	must.Eq(t, EqEqual, Equals(mustEval(t, "(+ 1 0.5)"), F64(1.5)))
}

func TestEvalIf(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, `(if (= 1 1) "yes" "no")`), NewString("yes")))
	must.Eq(t, EqEqual, Equals(mustEval(t, `(if (= 1 2) "yes" "no")`), NewString("no")))
	// Only the true data value is truthy.
	must.Eq(t, EqEqual, Equals(mustEval(t, `(if 1 "yes" "no")`), NewString("no")))
}

func TestEvalClosureCapture(t *testing.T) {
	// Scenario: closure capture with mutation-free environment.
	must.Eq(t, EqEqual, Equals(mustEval(t, "(let [(x 10)] ((fn () x)))"), I64(10)))
}

func TestEvalLetSequentialBindings(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, "(let [(x 1) (y (+ x 1))] y)"), I64(2)))
}

func TestEvalLetPatternBinding(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, "(let [((a b) (list 1 2))] (+ a b))"), I64(3)))
}

func TestEvalMutuallyRecursiveLetClosures(t *testing.T) {
	src := `(let [(f (fn (n) (if (= n 0) 0 (g (- n 1))))) (g (fn (n) (f n)))] (f 3))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), I64(0)))
}

func TestEvalDoBlock(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, "(do 1 2 3)"), I64(3)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "(do (let x 2) (+ x 1))"), I64(3)))
	must.Eq(t, EqEqual, Equals(mustEval(t, "(do)"), unit))
}

func TestEvalMatch(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, `(match 2 (1 "one") (2 "two") (x "other"))`), NewString("two")))
	must.Eq(t, EqEqual, Equals(mustEval(t, `(match 9 (1 "one") (x (+ x 1)))`), I64(10)))
	must.Eq(t, EqEqual, Equals(mustEval(t, `(match (list 1 2) ((a b) (+ a b)))`), I64(3)))
}

func TestEvalMatchNoMatch(t *testing.T) {
	_, err := evalString(t, `(match 3 (1 "one") (2 "two"))`)
	must.Error(t, err)
	must.Eq(t, patternErrorName, err.(*Error).Kind)
}

func TestEvalDataDestructuring(t *testing.T) {
	// Scenario: pattern with data destructuring.
	src := `(def-data (pair a b) (cons (fst ^a) (snd ^b)))
(match (cons 1 "x") ((cons a b) b))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), NewString("x")))
}

func TestEvalDataZeroFieldConstructor(t *testing.T) {
	src := `(def-data color red green blue)
(match green ('red "r") ('green "g") ('blue "b"))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), NewString("g")))
}

func TestEvalDataConstructorTypeCheck(t *testing.T) {
	src := `(def-data point (mk-point (x ^i64) (y ^i64)))
(mk-point 1 "no")`
	_, err := evalString(t, src)
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalDataConstructorArity(t *testing.T) {
	src := `(def-data point (mk-point (x ^i64) (y ^i64)))
(mk-point 1)`
	_, err := evalString(t, src)
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalGenericDataInstanceType(t *testing.T) {
	src := `(def-data (box a) (mk-box (value ^a)))
(type-of (mk-box 1))`
	i := New(Options{})
	v, err := i.Eval(src)
	must.NoError(t, err)
	typ, ok := v.(*Type)
	must.True(t, ok)
	must.Eq(t, TypeInstance, typ.Kind)
	must.True(t, typ.Params[0] == i64Type)
}

func TestEvalGenericFunctionDispatch(t *testing.T) {
	// Scenario: generic function with method specialization.
	src := `(def-generic (describe x))
(def-method (describe (x ^i64)) "int")
(def-method (describe (x ^string)) "str")
(list (describe 1) (describe "a"))`
	must.Eq(t, `("int" "str")`, mustRender(t, src))
}

func TestEvalGenericDispatchSupertype(t *testing.T) {
	src := `(def-generic (describe x))
(def-method (describe (x ^num)) "num")
(describe 1)`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), NewString("num")))
}

func TestEvalGenericDispatchMostSpecific(t *testing.T) {
	// The method with pointwise more specific types wins.
	src := `(def-generic (describe x))
(def-method (describe (x ^any)) "any")
(def-method (describe (x ^num)) "num")
(def-method (describe (x ^i64)) "i64")
(list (describe 1) (describe 1.5) (describe "s"))`
	must.Eq(t, `("i64" "num" "any")`, mustRender(t, src))
}

func TestEvalGenericNoMethod(t *testing.T) {
	src := `(def-generic (describe x))
(describe 1)`
	_, err := evalString(t, src)
	must.Error(t, err)
	must.Eq(t, nameErrorName, err.(*Error).Kind)
}

func TestEvalGenericVariadicMethod(t *testing.T) {
	src := `(def-generic (sum &rest xs))
(def-method (sum &rest (xs ^i64)) (apply + xs))
(sum 1 2 3)`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), I64(6)))
}

func TestEvalGenericZeroArgsDispatchesThroughNothing(t *testing.T) {
	// With no arguments the dispatch slot is filled with nothing, which
	// must still reach a method registered on a supertype.
	src := `(def-generic (f &rest xs))
(def-method (f &rest (xs ^any)) "fallback")
(f)`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), NewString("fallback")))
}

func TestEvalTailCallDoesNotOverflow(t *testing.T) {
	// Scenario: tail-call optimized recursion.
	src := `(def (count n) (if (= n 0) "done" (count (- n 1))))
(count 100000)`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), NewString("done")))
}

func TestEvalLetTailCall(t *testing.T) {
	src := `(let [(count (fn (n) (if (= n 0) "done" (count (- n 1)))))] (count 100000))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), NewString("done")))
}

func TestEvalLoopContinue(t *testing.T) {
	// The loop body's first entry sees the enclosing scope; continue
	// re-enters with the formals rebound to its payload.
	src := `(let [(i 4) (acc 0)]
  (loop (i acc) (if (= i 0) acc (continue (- i 1) (+ acc i)))))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), I64(10)))
}

func TestEvalMacro(t *testing.T) {
	// Scenario: macro expansion; each expansion site evaluates
	// independently.
	src := `(def-macro (twice x) (list 'do x x))
(let [(c 0)] (twice (let [] (+ c 1))))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), I64(1)))
}

func TestEvalMacroExpandFixedPoint(t *testing.T) {
	src := `(def-macro (one) 1)
(def-macro (also-one) (list 'one))
(also-one)`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), I64(1)))
}

func TestEvalBackquote(t *testing.T) {
	must.Eq(t, "(1 2 3)", mustRender(t, "(backquote (1 2 (unquote (+ 1 2))))"))
	must.Eq(t, "(1 2 3 4)", mustRender(t, "(backquote (1 (splice (list 2 3)) 4))"))
	must.Eq(t, "(a b)", mustRender(t, "(backquote (a b))"))
}

func TestEvalBackquoteSpliceRequiresVector(t *testing.T) {
	_, err := evalString(t, "(backquote ((splice 1)))")
	must.Error(t, err)
	must.Eq(t, syntaxErrorName, err.(*Error).Kind)
}

func TestEvalTrySuccess(t *testing.T) {
	i := New(Options{})
	v, err := i.Eval("(try (+ 1 2))")
	must.NoError(t, err)
	d, ok := v.(*Data)
	must.True(t, ok)
	must.Eq(t, "ok", d.Tag.Name)
	must.Eq(t, EqEqual, Equals(d.Fields[0], I64(3)))
}

func TestEvalTryError(t *testing.T) {
	// Scenario: error capture; integer division by zero is a
	// domain-error.
	i := New(Options{})
	v, err := i.Eval("(try (/ 1 0))")
	must.NoError(t, err)
	d, ok := v.(*Data)
	must.True(t, ok)
	must.Eq(t, "error", d.Tag.Name)
	record, ok := d.Fields[0].(*Vector)
	must.True(t, ok)
	kind, ok := record.Cells[0].(*Symbol)
	must.True(t, ok)
	must.Eq(t, string(domainErrorName), kind.Name)
	must.True(t, kind.Module == i.rt.errorModule)
}

func TestEvalTryNeverRaises(t *testing.T) {
	i := New(Options{})
	v, err := i.Eval("(try nonexistent)")
	must.NoError(t, err)
	d := v.(*Data)
	must.Eq(t, "error", d.Tag.Name)
}

func TestEvalVectorIndexing(t *testing.T) {
	must.Eq(t, EqEqual, Equals(mustEval(t, "((list 10 20 30) 1)"), I64(20)))
	_, err := evalString(t, "((list 10) 5)")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalGetOutOfBounds(t *testing.T) {
	_, err := evalString(t, "(get 5 (list 1 2))")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalNotAFunction(t *testing.T) {
	_, err := evalString(t, "(1 2)")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalOptParameters(t *testing.T) {
	src := `(def (f a &opt b (c 10)) (list a b c))`
	i := New(Options{})
	_, err := i.Eval(src)
	must.NoError(t, err)
	render := func(call string) string {
		v, err := i.Eval(call)
		must.NoError(t, err)
		return WriteToString(v, i.Module())
	}
	must.Eq(t, "(1 2 3)", render("(f 1 2 3)"))
	must.Eq(t, "(1 2 10)", render("(f 1 2)"))
	must.Eq(t, "(1 () 10)", render("(f 1)"))
}

func TestEvalKeyParameters(t *testing.T) {
	src := `(def (f &key a (b 2)) (list a b))`
	i := New(Options{})
	_, err := i.Eval(src)
	must.NoError(t, err)
	v, err := i.Eval("(f :a 1)")
	must.NoError(t, err)
	must.Eq(t, "(1 2)", WriteToString(v, i.Module()))

	v, err = i.Eval("(f :b 7 :a 1)")
	must.NoError(t, err)
	must.Eq(t, "(1 7)", WriteToString(v, i.Module()))

	_, err = i.Eval("(f :zzz 1)")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)

	_, err = i.Eval("(f :a 1 :a 2)")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalKeyParameterDefaultSeesEarlierBindings(t *testing.T) {
	src := `(def (f &key a (b (+ a 1))) (list a b))`
	i := New(Options{})
	_, err := i.Eval(src)
	must.NoError(t, err)
	v, err := i.Eval("(f :a 5)")
	must.NoError(t, err)
	must.Eq(t, "(5 6)", WriteToString(v, i.Module()))
}

func TestEvalRestParameters(t *testing.T) {
	must.Eq(t, "(2 3 4)", mustRender(t, "(do (def (f a &rest xs) xs) (f 1 2 3 4))"))
	must.Eq(t, "()", mustRender(t, "(do (def (f a &rest xs) xs) (f 1))"))
}

func TestEvalMatchParameter(t *testing.T) {
	src := `(def (f &match (a b)) (+ a b))
(f (list 3 4))`
	must.Eq(t, EqEqual, Equals(mustEval(t, src), I64(7)))
}

func TestEvalMatchParameterFailure(t *testing.T) {
	src := `(def (f &match (a b)) (+ a b))
(f 1)`
	_, err := evalString(t, src)
	must.Error(t, err)
	must.Eq(t, patternErrorName, err.(*Error).Kind)
}

func TestEvalArityErrors(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("(def (f a b) a)")
	must.NoError(t, err)
	_, err = i.Eval("(f 1)")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
	_, err = i.Eval("(f 1 2 3)")
	must.Error(t, err)
	must.Eq(t, domainErrorName, err.(*Error).Kind)
}

func TestEvalDefVar(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("(def x 41)")
	must.NoError(t, err)
	v, err := i.Eval("(+ x 1)")
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(42)))
}

func TestEvalDefReplacesPrevious(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("(do (def x 1) (def x 2))")
	must.NoError(t, err)
	v, err := i.Eval("x")
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(2)))
}

func TestEvalDocString(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`(def (f x) "doubles x" (* x 2))`)
	must.NoError(t, err)
	v, err := i.Eval("(f 21)")
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(42)))
	fn, err := UseModule(i.Module()).Get(i.Module().findInternal("f"))
	must.NoError(t, err)
	must.Eq(t, "doubles x", fn.(*Closure).Doc)
}

func TestEvalQuote(t *testing.T) {
	must.Eq(t, "(a b)", mustRender(t, "'(a b)"))
	must.Eq(t, "x", mustRender(t, "(quote x)"))
}

func TestEvalTypeQuote(t *testing.T) {
	i := New(Options{})
	v, err := i.Eval("^i64")
	must.NoError(t, err)
	must.True(t, v.(*Type) == i64Type)

	v, err = i.Eval("^(vector i64)")
	must.NoError(t, err)
	must.True(t, v.(*Type) == getUnaryInstance(vectorType, i64Type))
}

func TestEvalIsA(t *testing.T) {
	i := New(Options{})
	must.True(t, IsTruthy(mustEvalIn(t, i, "(is-a 1 ^num)")))
	must.False(t, IsTruthy(mustEvalIn(t, i, "(is-a \"s\" ^num)")))
}

func mustEvalIn(t *testing.T, i *Interpreter, src string) Value {
	t.Helper()
	v, err := i.Eval(src)
	must.NoError(t, err)
	return v
}

func TestEvalErrorHasSourceForm(t *testing.T) {
	_, err := evalString(t, "(+ 1\n  nonexistent)")
	must.Error(t, err)
	e := err.(*Error)
	must.Eq(t, nameErrorName, e.Kind)
	must.NotNil(t, e.Form)
	must.Eq(t, 2, e.Form.StartLine)
}

func TestEvalDefReadMacro(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("(def-read-macro u (read-bind read-int (fn (n) (read-return (- 0 n)))))")
	must.NoError(t, err)
	v, err := i.Eval("#u7")
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(-7)))
}

func TestEvalReadMacroReadAny(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("(def-read-macro q (read-bind read-any (fn (x) (read-return (list 'quote x)))))")
	must.NoError(t, err)
	v, err := i.Eval("#q(a b)")
	must.NoError(t, err)
	must.Eq(t, "(a b)", WriteToString(v, i.Module()))
}

func TestEvalUndefinedReadMacro(t *testing.T) {
	_, err := evalString(t, "#zfoo")
	must.Error(t, err)
	must.Eq(t, syntaxErrorName, err.(*Error).Kind)
}

func TestEvalModuleOperations(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`(def-module "mymod")`)
	must.NoError(t, err)
	_, err = i.Eval(`(in-module "mymod")`)
	must.NoError(t, err)
	must.Eq(t, "mymod", i.Module().Name())
	_, err = i.Eval(`(do (def exported 99) (export "exported"))`)
	must.NoError(t, err)
	_, err = i.Eval(`(in-module "user")`)
	must.NoError(t, err)
	v, err := i.Eval("mymod/exported")
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(99)))
}

func TestEvalDuplicateModule(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval(`(def-module "dup")`)
	must.NoError(t, err)
	_, err = i.Eval(`(def-module "dup")`)
	must.Error(t, err)
	must.Eq(t, nameErrorName, err.(*Error).Kind)
}

func TestMacroExpandRecursesIntoSubforms(t *testing.T) {
	i := New(Options{})
	_, err := i.Eval("(def-macro (one) 1)")
	must.NoError(t, err)
	forms := parseForms(t, i, "(+ (one) 2)")
	expanded, err := MacroExpand(forms[0], UseModule(i.Module()))
	must.NoError(t, err)
	must.Eq(t, "(+ 1 2)", WriteToString(SyntaxToDatum(expanded), i.Module()))
}

func TestEvalDefDataMalformedField(t *testing.T) {
	// A one-element field list is not a valid (SYMBOL ^TYPE) pair.
	_, err := evalString(t, "(def-data point (mk-point (x)))")
	must.Error(t, err)
	must.Eq(t, syntaxErrorName, err.(*Error).Kind)
}

func TestEvalQuotedDatumRoundTrip(t *testing.T) {
	// eval(quote(datum)) is the value itself for self-evaluating data.
	must.Eq(t, EqEqual, Equals(mustEval(t, "(eval '5)"), I64(5)))
	must.Eq(t, EqEqual, Equals(mustEval(t, `(eval '"s")`), NewString("s")))
}
