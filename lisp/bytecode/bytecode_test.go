// Copyright © 2018 The ELPS authors

package bytecode_test

import (
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	for _, op := range bytecode.AllOpcodes() {
		info := bytecode.GetOpcodeInfo(op)
		assert.NotEmpty(t, info.Name, "opcode 0x%02X", byte(op))
		assert.False(t, strings.HasPrefix(info.Name, "UNKNOWN"), "opcode 0x%02X", byte(op))
	}
	assert.True(t, strings.HasPrefix(bytecode.Opcode(0xEE).String(), "UNKNOWN"))
}

func TestFamilyEncode(t *testing.T) {
	b, err := bytecode.LoadLocal.Encode(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(bytecode.OpLoadLocal3)}, b)

	b, err = bytecode.LoadConst.Encode(200)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(bytecode.OpLoadConstB), 200}, b)

	b, err = bytecode.Call.Encode(0x1234)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(bytecode.OpCallS), 0x34, 0x12}, b)

	_, err = bytecode.LoadFree.Encode(256)
	assert.Error(t, err, "free variables have no u16 form")
	_, err = bytecode.StoreLocal.Encode(-1)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	code := []byte{
		byte(bytecode.OpLoadLocalB), 7,
		byte(bytecode.OpJumpIfFalse), 0x10, 0x02,
		byte(bytecode.OpNewClosure), 2, 1, 3, 0, 1,
		byte(bytecode.OpCall2),
	}
	in, err := bytecode.Decode(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, in.Index)
	assert.Equal(t, 2, in.Len)

	in, err = bytecode.Decode(code, 2)
	require.NoError(t, err)
	assert.Equal(t, 0x0210, in.Index)

	in, err = bytecode.Decode(code, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, in.Len)
	assert.Equal(t, []bytecode.Capture{{IsLocal: true, Index: 3}, {IsLocal: false, Index: 1}}, in.Captures)

	in, err = bytecode.Decode(code, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, in.Index)

	_, err = bytecode.Decode([]byte{byte(bytecode.OpJump), 1}, 0)
	assert.Error(t, err, "truncated operand")
	_, err = bytecode.Decode([]byte{0xEE}, 0)
	assert.Error(t, err)
}

func TestFunctionMethods(t *testing.T) {
	fn := bytecode.NewFunction("f")
	m1, err := fn.AddMethod(false, 1)
	require.NoError(t, err)
	_, err = fn.AddMethod(false, 1)
	require.Error(t, err)
	assert.Equal(t, "ambiguous FN method with 1 parameters", err.Error())

	rest, err := fn.AddMethod(true, 2)
	require.NoError(t, err)
	_, err = fn.AddMethod(true, 0)
	require.Error(t, err)
	assert.Equal(t, "FN cannot have multiple rest methods", err.Error())

	assert.Same(t, m1, fn.GetMethod(1))
	assert.Nil(t, fn.GetMethod(0))
	assert.Same(t, rest, fn.GetMethod(2))
	assert.Same(t, rest, fn.GetMethod(5))
	assert.Equal(t, []*bytecode.Method{m1, rest}, fn.AllMethods())
}

func TestConstantPool(t *testing.T) {
	fn := bytecode.NewFunction("f")
	idx := func(v lisp.Value) int {
		i, err := fn.AddConstant(v)
		require.NoError(t, err)
		return i
	}
	assert.Equal(t, 0, idx(lisp.Int(1)))
	assert.Equal(t, 1, idx(lisp.Float(1)), "numbers of different types are distinct")
	assert.Equal(t, 0, idx(lisp.Int(1)))
	assert.Equal(t, 2, idx(lisp.Kw("a")))
	assert.Equal(t, 2, idx(lisp.Kw("a")))
	l := lisp.NewList(lisp.Int(1))
	assert.Equal(t, 3, idx(l))
	assert.Equal(t, 4, idx(lisp.NewList(lisp.Int(1))), "collections are pooled by identity")
	assert.Equal(t, 3, idx(l))
}

func TestHandlerAddr(t *testing.T) {
	fn := bytecode.NewFunction("f")
	m, err := fn.AddMethod(false, 0)
	require.NoError(t, err)
	m.AddHandler(2, 10, 20, lisp.ArithmeticError)
	m.AddHandler(2, 10, 30, lisp.ErrorRoot)
	m.AddHandler(12, 14, 40, lisp.AnyError)

	assert.Equal(t, 20, m.HandlerAddr(10, lisp.ArithmeticError), "end is inclusive")
	assert.Equal(t, 30, m.HandlerAddr(5, lisp.IOError), "wildcard catches other kinds")
	assert.Equal(t, -1, m.HandlerAddr(11, lisp.IOError))
	assert.Equal(t, 40, m.HandlerAddr(13, lisp.CastError))
	assert.Equal(t, -1, m.HandlerAddr(12, lisp.CastError), "the instruction ending at start is not protected")
	assert.Equal(t, -1, m.HandlerAddr(1, lisp.ArithmeticError))

	m.AddHandlerDepth(20, 30, 50, 2, lisp.IOError)
	h, ok := m.FindHandler(25, lisp.IOError)
	require.True(t, ok)
	assert.Equal(t, 2, h.Depth)
	assert.Equal(t, "start=0014 end=001E addr=0032 SxIOError depth=2", h.String())
}

func TestDisassemble(t *testing.T) {
	fn := bytecode.NewFunction("outer")
	inner := bytecode.NewFunction("inner")
	inner.NUpvals = 1
	im, err := inner.AddMethod(false, 0)
	require.NoError(t, err)
	require.NoError(t, im.EmitFamily(bytecode.LoadFree, 0))
	im.Emit(bytecode.OpReturn)

	m, err := fn.AddMethod(false, 0)
	require.NoError(t, err)
	m.NLocals = 2
	k, err := fn.AddConstant(lisp.String("hello"))
	require.NoError(t, err)
	require.NoError(t, m.EmitFamily(bytecode.LoadConst, k))
	require.NoError(t, m.EmitFamily(bytecode.StoreLocal, 1))
	j := m.EmitJump(bytecode.OpJump)
	m.Patch(j)
	k, err = fn.AddConstant(inner)
	require.NoError(t, err)
	require.NoError(t, m.EmitFamily(bytecode.LoadConst, k))
	m.Emit(bytecode.OpNewClosure, 1, 1, 1)
	m.Emit(bytecode.OpReturn)
	m.AddHandler(0, 3, 6, lisp.ErrorRoot)

	out := fn.Disassemble()
	assert.Contains(t, out, "; === outer ===")
	assert.Contains(t, out, `0000  LOAD_CONST_0 ; "hello"`)
	assert.Contains(t, out, "0001  STORE_LOCAL_1")
	assert.Contains(t, out, "0002  JUMP -> 0005")
	assert.Contains(t, out, "NEW_CLOSURE 1 [local:1]")
	assert.Contains(t, out, "start=0000 end=0003 addr=0006 SxError")
	assert.Contains(t, out, "; === inner ===")
	assert.Contains(t, out, "LOAD_FREE_0")

	b, err := fn.YAML()
	require.NoError(t, err)
	var desc bytecode.Description
	require.NoError(t, yaml.Unmarshal(b, &desc))
	assert.Equal(t, "outer", desc.Name)
	require.Len(t, desc.Functions, 1)
	assert.Equal(t, "inner", desc.Functions[0].Name)
	assert.Equal(t, 1, desc.Functions[0].Upvalues)
}
