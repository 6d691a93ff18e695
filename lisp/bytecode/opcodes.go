// Copyright © 2018 The ELPS authors

package bytecode

import "fmt"

// Opcode is a single bytecode instruction.  Multi-byte operands are encoded
// little-endian.
type Opcode byte

// Instructions which come in families (LOAD_CONST, LOAD_LOCAL, STORE_LOCAL,
// LOAD_FREE, STORE_FREE, CALL) are laid out as five operand-free forms for
// indices 0 through 4, then a form with a u8 operand, then (except for free
// variables) a form with a u16 operand.
const (
	OpHalt Opcode = iota
	OpPop
	OpDup

	OpLoadNil
	OpLoadTrue
	OpLoadFalse
	OpLoadEmptyList
	OpLoadEmptyVector
	OpLoadEmptyMap
	OpLoadEmptySet

	// OpNewVector, OpNewMap and OpNewSet take a u16 element count.  OpNewMap
	// counts key/value pairs.
	OpNewVector
	OpNewMap
	OpNewSet

	// Jumps take an absolute u16 target address.
	OpJump
	OpJumpIfFalse

	OpLoadConst0
	OpLoadConst1
	OpLoadConst2
	OpLoadConst3
	OpLoadConst4
	OpLoadConstB
	OpLoadConstS

	OpLoadLocal0
	OpLoadLocal1
	OpLoadLocal2
	OpLoadLocal3
	OpLoadLocal4
	OpLoadLocalB
	OpLoadLocalS

	OpStoreLocal0
	OpStoreLocal1
	OpStoreLocal2
	OpStoreLocal3
	OpStoreLocal4
	OpStoreLocalB
	OpStoreLocalS

	OpLoadFree0
	OpLoadFree1
	OpLoadFree2
	OpLoadFree3
	OpLoadFree4
	OpLoadFreeB

	OpStoreFree0
	OpStoreFree1
	OpStoreFree2
	OpStoreFree3
	OpStoreFree4
	OpStoreFreeB

	// OpNewClosure is followed by a u8 count n and n (isLocal, index) byte
	// pairs describing where each upvalue is captured from.
	OpNewClosure

	OpDef
	OpVarGet
	OpVarSet
	OpSetMeta

	OpCall0
	OpCall1
	OpCall2
	OpCall3
	OpCall4
	OpCallB
	OpCallS

	// OpApply takes a u8 count of the stacked arguments, the last of which
	// is a seq to unpack.
	OpApply
	OpReturn
	OpThrow
	OpRethrow

	// OpCloseUpvals takes a u16 local slot.  Open upvalues of that slot and
	// every slot above it in the current frame are closed.
	OpCloseUpvals

	opcodeMax
)

// MaxBytecodeAddress is the largest address representable by jump operands
// and handler rows.
const MaxBytecodeAddress = 0xffff

// MaxFreeVars is the capacity of a function's free variable table.
const MaxFreeVars = 255

// VariableOperands is the OperandLen of instructions whose length depends on
// their operands.
const VariableOperands = -1

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack (-1 = variable)
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

var opcodeInfoTable = [opcodeMax]OpcodeInfo{
	OpHalt: {"HALT", 0, 0, 0},
	OpPop:  {"POP", 1, 0, 0},
	OpDup:  {"DUP", 1, 2, 0},

	OpLoadNil:         {"LOAD_NIL", 0, 1, 0},
	OpLoadTrue:        {"LOAD_TRUE", 0, 1, 0},
	OpLoadFalse:       {"LOAD_FALSE", 0, 1, 0},
	OpLoadEmptyList:   {"LOAD_EMPTY_LIST", 0, 1, 0},
	OpLoadEmptyVector: {"LOAD_EMPTY_VECTOR", 0, 1, 0},
	OpLoadEmptyMap:    {"LOAD_EMPTY_MAP", 0, 1, 0},
	OpLoadEmptySet:    {"LOAD_EMPTY_SET", 0, 1, 0},

	OpNewVector: {"NEW_VECTOR", -1, 1, 2},
	OpNewMap:    {"NEW_MAP", -1, 1, 2},
	OpNewSet:    {"NEW_SET", -1, 1, 2},

	OpJump:        {"JUMP", 0, 0, 2},
	OpJumpIfFalse: {"JUMP_IF_FALSE", 1, 0, 2},

	OpLoadConst0: {"LOAD_CONST_0", 0, 1, 0},
	OpLoadConst1: {"LOAD_CONST_1", 0, 1, 0},
	OpLoadConst2: {"LOAD_CONST_2", 0, 1, 0},
	OpLoadConst3: {"LOAD_CONST_3", 0, 1, 0},
	OpLoadConst4: {"LOAD_CONST_4", 0, 1, 0},
	OpLoadConstB: {"LOAD_CONST_B", 0, 1, 1},
	OpLoadConstS: {"LOAD_CONST_S", 0, 1, 2},

	OpLoadLocal0: {"LOAD_LOCAL_0", 0, 1, 0},
	OpLoadLocal1: {"LOAD_LOCAL_1", 0, 1, 0},
	OpLoadLocal2: {"LOAD_LOCAL_2", 0, 1, 0},
	OpLoadLocal3: {"LOAD_LOCAL_3", 0, 1, 0},
	OpLoadLocal4: {"LOAD_LOCAL_4", 0, 1, 0},
	OpLoadLocalB: {"LOAD_LOCAL_B", 0, 1, 1},
	OpLoadLocalS: {"LOAD_LOCAL_S", 0, 1, 2},

	OpStoreLocal0: {"STORE_LOCAL_0", 1, 0, 0},
	OpStoreLocal1: {"STORE_LOCAL_1", 1, 0, 0},
	OpStoreLocal2: {"STORE_LOCAL_2", 1, 0, 0},
	OpStoreLocal3: {"STORE_LOCAL_3", 1, 0, 0},
	OpStoreLocal4: {"STORE_LOCAL_4", 1, 0, 0},
	OpStoreLocalB: {"STORE_LOCAL_B", 1, 0, 1},
	OpStoreLocalS: {"STORE_LOCAL_S", 1, 0, 2},

	OpLoadFree0: {"LOAD_FREE_0", 0, 1, 0},
	OpLoadFree1: {"LOAD_FREE_1", 0, 1, 0},
	OpLoadFree2: {"LOAD_FREE_2", 0, 1, 0},
	OpLoadFree3: {"LOAD_FREE_3", 0, 1, 0},
	OpLoadFree4: {"LOAD_FREE_4", 0, 1, 0},
	OpLoadFreeB: {"LOAD_FREE_B", 0, 1, 1},

	OpStoreFree0: {"STORE_FREE_0", 1, 0, 0},
	OpStoreFree1: {"STORE_FREE_1", 1, 0, 0},
	OpStoreFree2: {"STORE_FREE_2", 1, 0, 0},
	OpStoreFree3: {"STORE_FREE_3", 1, 0, 0},
	OpStoreFree4: {"STORE_FREE_4", 1, 0, 0},
	OpStoreFreeB: {"STORE_FREE_B", 1, 0, 1},

	OpNewClosure: {"NEW_CLOSURE", 1, 1, VariableOperands},

	OpDef:     {"DEF", 2, 1, 0},
	OpVarGet:  {"VAR_GET", 1, 1, 0},
	OpVarSet:  {"VAR_SET", 2, 1, 0},
	OpSetMeta: {"SET_META", 2, 1, 0},

	OpCall0: {"CALL_0", -1, 1, 0},
	OpCall1: {"CALL_1", -1, 1, 0},
	OpCall2: {"CALL_2", -1, 1, 0},
	OpCall3: {"CALL_3", -1, 1, 0},
	OpCall4: {"CALL_4", -1, 1, 0},
	OpCallB: {"CALL_B", -1, 1, 1},
	OpCallS: {"CALL_S", -1, 1, 2},

	OpApply:   {"APPLY", -1, 1, 1},
	OpReturn:  {"RETURN", 1, 0, 0},
	OpThrow:   {"THROW", 1, 0, 0},
	OpRethrow: {"RETHROW", 1, 0, 0},

	OpCloseUpvals: {"CLOSE_UPVALS", 0, 0, 2},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if op < opcodeMax {
		return opcodeInfoTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode, or
// VariableOperands.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op == OpJump || op == OpJumpIfFalse
}

// IsCall returns true if this opcode calls a function.
func (op Opcode) IsCall() bool {
	return (op >= OpCall0 && op <= OpCallS) || op == OpApply
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, opcodeMax)
	for op := Opcode(0); op < opcodeMax; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Family is a group of instructions addressing an index: five short forms,
// a u8 form and an optional u16 form.
type Family struct {
	Base  Opcode
	Short bool
}

var (
	LoadConst  = Family{OpLoadConst0, true}
	LoadLocal  = Family{OpLoadLocal0, true}
	StoreLocal = Family{OpStoreLocal0, true}
	LoadFree   = Family{OpLoadFree0, false}
	StoreFree  = Family{OpStoreFree0, false}
	Call       = Family{OpCall0, true}
)

// Encode returns the instruction bytes addressing index i.
func (f Family) Encode(i int) ([]byte, error) {
	switch {
	case i < 0:
		return nil, fmt.Errorf("negative %s index: %d", f.Base, i)
	case i <= 4:
		return []byte{byte(f.Base) + byte(i)}, nil
	case i <= 0xff:
		return []byte{byte(f.Base) + 5, byte(i)}, nil
	case f.Short && i <= 0xffff:
		return []byte{byte(f.Base) + 6, byte(i), byte(i >> 8)}, nil
	}
	return nil, fmt.Errorf("%s index out of range: %d", f.Base, i)
}

// Instruction is a decoded instruction.
type Instruction struct {
	Addr int
	Op   Opcode
	// Index is the decoded index of family instructions, the count of
	// NEW_* and APPLY instructions and the target of jumps.
	Index int
	// Captures holds the (isLocal, index) pairs of NEW_CLOSURE.
	Captures []Capture
	Len      int
}

// Capture describes one upvalue of a closure.
type Capture struct {
	IsLocal bool
	Index   int
}

// ReadU16 reads a little-endian u16 at code[i].
func ReadU16(code []byte, i int) int {
	return int(code[i]) | int(code[i+1])<<8
}

// Decode decodes the instruction at code[pc].
func Decode(code []byte, pc int) (Instruction, error) {
	if pc < 0 || pc >= len(code) {
		return Instruction{}, fmt.Errorf("address out of range: %04X", pc)
	}
	op := Opcode(code[pc])
	in := Instruction{Addr: pc, Op: op, Len: 1}
	if op >= opcodeMax {
		return in, fmt.Errorf("illegal instruction %02X at %04X", byte(op), pc)
	}
	need := func(n int) error {
		if pc+1+n > len(code) {
			return fmt.Errorf("truncated %s at %04X", op, pc)
		}
		return nil
	}
	switch {
	case op == OpNewClosure:
		if err := need(1); err != nil {
			return in, err
		}
		n := int(code[pc+1])
		if err := need(1 + 2*n); err != nil {
			return in, err
		}
		in.Index = n
		for i := 0; i < n; i++ {
			in.Captures = append(in.Captures, Capture{
				IsLocal: code[pc+2+2*i] != 0,
				Index:   int(code[pc+3+2*i]),
			})
		}
		in.Len = 2 + 2*n
		return in, nil
	case familyIndex(op) >= 0:
		in.Index = familyIndex(op)
		return in, nil
	}
	n := op.OperandLen()
	if err := need(n); err != nil {
		return in, err
	}
	switch n {
	case 1:
		in.Index = int(code[pc+1])
	case 2:
		in.Index = ReadU16(code, pc+1)
	}
	in.Len = 1 + n
	return in, nil
}

// familyIndex returns the implicit index of short family instructions, or -1.
func familyIndex(op Opcode) int {
	for _, f := range []Family{LoadConst, LoadLocal, StoreLocal, LoadFree, StoreFree, Call} {
		if op >= f.Base && op <= f.Base+4 {
			return int(op - f.Base)
		}
	}
	return -1
}
