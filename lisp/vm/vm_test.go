// Copyright © 2018 The ELPS authors

package vm_test

import (
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/luthersystems/sxp/lisp/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T, opts ...lisp.Config) *compiler.Env {
	env, err := lisplib.NewEnv(opts...)
	require.NoError(t, err)
	return env
}

func eval(t *testing.T, env *compiler.Env, src string) lisp.Value {
	t.Helper()
	v, err := env.EvalString(src)
	require.NoError(t, err)
	return v
}

func TestClosuresShareCapturedVariables(t *testing.T) {
	env := newEnv(t)
	pair := eval(t, env, `
		(let [n 0]
		  [(fn [] (set! n (inc n))) (fn [] n)])`)
	fns, ok := pair.(*lisp.Vector)
	require.True(t, ok)
	inc, get := fns.Items()[0], fns.Items()[1]

	machine := vm.New(env.Runtime)
	for i := 1; i <= 3; i++ {
		v, err := machine.Call(inc)
		require.NoError(t, err)
		assert.Equal(t, lisp.Int(i), v)
	}
	v, err := machine.Call(get)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(3), v)

	c, ok := get.(*vm.Closure)
	require.True(t, ok)
	require.Len(t, c.Upvals, 1)
	assert.False(t, c.Upvals[0].IsOpen(), "upvalues are closed once their frame returns")
	assert.Same(t, c.Upvals[0], inc.(*vm.Closure).Upvals[0])
}

func TestUpvaluesClosedPerIteration(t *testing.T) {
	env := newEnv(t)
	v := eval(t, env, `
		(loop [i 0 fns []]
		  (if (= i 3)
		    (map (fn [f] (f)) fns)
		    (recur (inc i) (conj fns (let [j (* i 10)] (fn [] j))))))`)
	assert.Equal(t, "(0 10 20)", lisp.PrStr(v))

	v = eval(t, env, `
		(loop [i 0 fns []]
		  (if (= i 3)
		    (map (fn [f] (f)) fns)
		    (recur (inc i) (conj fns (fn [] i)))))`)
	assert.Equal(t, "(0 1 2)", lisp.PrStr(v))

	v = eval(t, env, `
		((fn [n fns]
		   (if (= n 0)
		     (map (fn [f] (f)) fns)
		     (recur (dec n) (conj fns (fn [] n)))))
		 3 [])`)
	assert.Equal(t, "(3 2 1)", lisp.PrStr(v))

	fn, err := env.Compile(mustRead(t, env, `(loop [i 0] (if (< i 3) (recur (inc i)) i))`))
	require.NoError(t, err)
	assert.Contains(t, fn.Disassemble(), "CLOSE_UPVALS 1")
}

func TestLetfnMutualRecursion(t *testing.T) {
	env := newEnv(t)
	v := eval(t, env, `
		(letfn [(ev? [n] (if (= n 0) true (od? (dec n))))
		        (od? [n] (if (= n 0) false (ev? (dec n))))]
		  [(ev? 10) (od? 7) (ev? 3)])`)
	assert.Equal(t, "[true true false]", lisp.PrStr(v))

	v = eval(t, env, `
		(letfn [ev? ([n] (if (= n 0) true (od? (dec n))))
		        od? (od? [n] (if (= n 0) false (ev? (dec n))))]
		  [(ev? 4) (od? 4)])`)
	assert.Equal(t, "[true false]", lisp.PrStr(v))

	v = eval(t, env, `(letfn [(sum ([] 0) ([x & more] (+ x (apply sum more))))] (sum 1 2 3))`)
	assert.Equal(t, lisp.Int(6), v)
}

func TestUpvalueClosedOnUnwind(t *testing.T) {
	env := newEnv(t)
	eval(t, env, `
		(def captured nil)
		(defn capture-then-throw [x]
		  (set! captured (fn [] x))
		  (throw "unwound"))`)
	v := eval(t, env, `(try (capture-then-throw 42) (catch SxError e (captured)))`)
	assert.Equal(t, lisp.Int(42), v)
	v = eval(t, env, `(do [1 2 3 4] (captured))`)
	assert.Equal(t, lisp.Int(42), v)
}

func TestLoopFrameDepthConstant(t *testing.T) {
	env := newEnv(t, lisp.WithMaxFrameDepth(10))
	v := eval(t, env, `
		(loop [i 0 depth (vm-frame-depth)]
		  (if (= i 1000000)
		    [i (= depth (vm-frame-depth))]
		    (recur (inc i) depth)))`)
	assert.Equal(t, "[1000000 true]", lisp.PrStr(v))
}

func TestSelfRecursionDepth(t *testing.T) {
	env := newEnv(t, lisp.WithMaxFrameDepth(64))
	eval(t, env, `(defn down [n] (if (= n 0) 0 (+ 1 (down (dec n)))))`)
	assert.Equal(t, lisp.Int(60), eval(t, env, `(down 60)`))

	_, err := env.EvalString(`(down 100)`)
	require.Error(t, err)
	e := lisp.AsError(err)
	assert.Equal(t, lisp.RuntimeError, e.Kind)
	assert.Contains(t, e.Message, "max VM frame depth (64) exceeded")

	// The failed call leaves no frames behind.
	assert.Equal(t, lisp.Int(60), eval(t, env, `(down 60)`))
}

func TestHandlerRouting(t *testing.T) {
	env := newEnv(t)
	eval(t, env, `
		(defn risky [n]
		  (cond (= n 0) (throw (error SxIOError "io"))
		        (= n 1) (/ 1 0)
		        :else n))
		(defn classify [n]
		  (try (risky n)
		    (catch SxIOError e :io)
		    (catch SxArithmeticError e :arith)))`)
	assert.Equal(t, "[:io :arith 2]", lisp.PrStr(eval(t, env, `[(classify 0) (classify 1) (classify 2)]`)))

	// The operand stack is restored to the handler's depth.
	assert.Equal(t, lisp.Int(111), eval(t, env, `(+ 100 (try (+ 5 (risky 1)) (catch SxError e 10)) 1)`))

	// A handler inside a callee does not see errors raised after it returns.
	_, err := env.EvalString(`(do (classify 2) (risky 1))`)
	require.Error(t, err)
	assert.Equal(t, lisp.ArithmeticError, lisp.AsError(err).Kind)
}

func TestFinallyOrdering(t *testing.T) {
	env := newEnv(t)
	eval(t, env, `
		(def trail [])
		(defn note [x] (set! trail (conj trail x)))`)
	_, err := env.EvalString(`
		(try
		  (try (note :body) (throw "inner")
		    (catch SxError e (note :catch) (throw "from catch"))
		    (finally (note :inner-finally)))
		  (finally (note :outer-finally)))`)
	require.Error(t, err)
	assert.Equal(t, "from catch", lisp.AsError(err).Message)
	assert.Equal(t, "[:body :catch :inner-finally :outer-finally]", lisp.PrStr(eval(t, env, `trail`)))
}

func TestReentrantCalls(t *testing.T) {
	env := newEnv(t)
	v := eval(t, env, `
		(try
		  (reduce (fn [acc x] (if (= x 3) (throw "stop") (+ acc x))) 0 [1 2 3 4])
		  (catch SxError e (err-msg e)))`)
	assert.Equal(t, lisp.String("stop"), v)

	// Macros run on a VM of their own during compilation of a function
	// which is itself executing on a VM.
	v = eval(t, env, `
		(defn compile-and-run [] (eval '(let [x 20] (+ x 22))))
		(compile-and-run)`)
	assert.Equal(t, lisp.Int(42), v)
}

func TestCallErrors(t *testing.T) {
	env := newEnv(t)
	_, err := env.EvalString(`(1 2)`)
	require.Error(t, err)
	assert.Equal(t, lisp.CastError, lisp.AsError(err).Kind)

	eval(t, env, `(defn two [a b] a)`)
	_, err = env.EvalString(`(two 1)`)
	require.Error(t, err)
	e := lisp.AsError(err)
	assert.Equal(t, lisp.RuntimeError, e.Kind)
	assert.Contains(t, e.Message, "wrong number of args (1)")
}

func TestErrorStack(t *testing.T) {
	env := newEnv(t)
	_, err := env.LoadString("stack.sxp", "(defn inner [] (/ 1 0))\n(defn outer [] (inner) 1)\n(outer)")
	require.Error(t, err)
	e := lisp.AsError(err)
	assert.Equal(t, lisp.ArithmeticError, e.Kind)
	require.NotNil(t, e.Stack)
	var names []string
	for _, f := range e.Stack.Frames {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "inner")
	assert.Contains(t, names, "outer")
}

func TestCallFromGo(t *testing.T) {
	env := newEnv(t)
	fn := eval(t, env, `(fn ([] :none) ([a] [a]) ([a & more] [a more]))`)
	machine := vm.New(env.Runtime)

	v, err := machine.Call(fn)
	require.NoError(t, err)
	assert.Equal(t, lisp.Kw("none"), v)

	v, err = machine.Call(fn, lisp.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "[1]", lisp.PrStr(v))

	v, err = machine.Call(fn, lisp.Int(1), lisp.Int(2), lisp.Int(3))
	require.NoError(t, err)
	assert.Equal(t, "[1 (2 3)]", lisp.PrStr(v))
	assert.Equal(t, 0, machine.FrameDepth())

	v, err = machine.Call(env.Runtime.Core().Lookup("inc"), lisp.Int(1))
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(2), v)
}

func TestOnceFunctions(t *testing.T) {
	env := newEnv(t)
	src := `(let [big [1 2 3]] (make-lazy-seq (^:once fn [] big)))`
	fn, err := env.Compile(mustRead(t, env, src))
	require.NoError(t, err)
	var once []*bytecode.Function
	var walk func(*bytecode.Function)
	walk = func(f *bytecode.Function) {
		if f.Once {
			once = append(once, f)
		}
		for _, c := range f.Consts {
			if g, ok := c.(*bytecode.Function); ok {
				walk(g)
			}
		}
	}
	walk(fn)
	require.Len(t, once, 1)
	assert.Contains(t, once[0].Disassemble(), "STORE_FREE_0")

	assert.Equal(t, "(1 2 3)", lisp.PrStr(eval(t, env, src)))
}

func TestLazySeqBodyReadsCapturesTwice(t *testing.T) {
	env := newEnv(t)
	assert.Equal(t, "(5 6)", lisp.PrStr(eval(t, env, `(let [x 5] (lazy-seq (list x (+ x 1))))`)))
	eval(t, env, `(defn nums [n] (lazy-seq (cons n (nums (inc n)))))`)
	assert.Equal(t, "(7 8 9)", lisp.PrStr(eval(t, env, `(take 3 (nums 7))`)))

	fn, err := env.Compile(mustRead(t, env, `(let [x 5] (lazy-seq x))`))
	require.NoError(t, err)
	for _, c := range fn.Consts {
		if g, ok := c.(*bytecode.Function); ok {
			assert.False(t, g.Once, "lazy-seq bodies may run their captures more than once")
		}
	}
}

func mustRead(t *testing.T, env *compiler.Env, src string) lisp.Value {
	t.Helper()
	v, err := env.Runtime.Reader.Read("test", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, v, 1)
	return v[0]
}
