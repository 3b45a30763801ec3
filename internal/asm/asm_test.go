package asm

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/awkvm/core/engine"
)

// captureStdout redirects the package-level os.Stdout for the duration of fn,
// since engine.NewInterpreter's WriterFactory binds os.Stdout's value once at
// construction time (see engine/writer.go) -- fn must construct and run the
// interpreter itself so the redirection is in place before that happens.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	os.Stdout = orig
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(out)
}

const sumOfSquaresSrc = `
func main 0
	store_const_int 0 0   // sum
	store_const_int 1 1   // i
	store_const_int 2 6   // limit (exclusive)
loop:
	lt_int 3 1 2
	jmp_if 3 body
	jmp done
body:
	mul_int 4 1 1
	add_int 0 0 4
	store_const_int 5 1
	add_int 1 1 5
	jmp loop
done:
	print_all i0
	ret
endfunc
entry main
`

func TestAssembleAndRunSumOfSquares(t *testing.T) {
	prog, err := Assemble(sumOfSquaresSrc)
	require.NoError(t, err, "assemble")

	fn := prog.Functions[prog.Entry]
	require.GreaterOrEqual(t, fn.Registers.Int, 6, "expected at least 6 int registers counted")

	var code int
	out := captureStdout(t, func() {
		interp := engine.NewInterpreter(prog, engine.DefaultConfig(), nil)
		var runErr error
		code, runErr = interp.Run()
		require.NoError(t, runErr, "run")
	})
	require.Equal(t, 0, code, "exit code")
	// i ranges 1..5 (limit 6 is exclusive): 1*1+2*2+3*3+4*4+5*5 = 55.
	require.Equal(t, "55\n", out)
}

const fibSrc = `
func fib 1
	pop int 0
	store_const_int 1 2
	lt_int 2 0 1
	jmp_if 2 base
	store_const_int 3 1
	minus_int 4 0 3
	push int 4
	call fib
	pop int 5
	store_const_int 6 2
	minus_int 7 0 6
	push int 7
	call fib
	pop int 8
	add_int 9 5 8
	push int 9
	ret
base:
	push int 0
	ret
endfunc
func main 0
	store_const_int 0 10
	push int 0
	call fib
	pop int 1
	print_all i1
	ret
endfunc
entry main
`

func TestAssembleAndRunRecursiveFib(t *testing.T) {
	prog, err := Assemble(fibSrc)
	require.NoError(t, err, "assemble")

	var code int
	out := captureStdout(t, func() {
		interp := engine.NewInterpreter(prog, engine.DefaultConfig(), nil)
		var runErr error
		code, runErr = interp.Run()
		require.NoError(t, runErr, "run")
	})
	require.Equal(t, 0, code, "exit code")
	require.Equal(t, "55\n", out)
}

// TestFieldSplittingHonorsFSAndOFS exercises scenario 2: FS drives $0's
// split and OFS joins print_all's operands ($2 then $1), read through next_line_stdin_fused (the one opcode that
// also feeds the Fields engine, unlike the bare next_line/next_line_stdin).
func TestFieldSplittingHonorsFSAndOFS(t *testing.T) {
	src := `
func main 0
	store_const_str 0 ","
	store_var_str fs 0
	store_const_str 1 "-"
	store_var_str ofs 1
	next_line_stdin_fused
	store_const_int 0 1
	store_const_int 1 2
	get_column 2 1
	get_column 3 0
	print_all s2 s3
	ret
endfunc
entry main
`
	prog, err := Assemble(src)
	require.NoError(t, err, "assemble")

	cancel := &engine.CancelSignal{}
	source := engine.NewLineSplitter(strings.NewReader("alpha,beta\n"), "test", '\n', cancel)

	var code int
	out := captureStdout(t, func() {
		interp := engine.NewInterpreter(prog, engine.DefaultConfig(), source)
		var runErr error
		code, runErr = interp.Run()
		require.NoError(t, runErr, "run")
	})
	require.Equal(t, 0, code, "exit code")
	require.Equal(t, "beta-alpha\n", out)
}

// TestSplitIntProducesOneIndexedMap exercises scenario 3: split_int fans a
// string out into the int-keyed string map, 1-indexed per indexedMap.
func TestSplitIntProducesOneIndexedMap(t *testing.T) {
	src := `
func main 0
	store_const_str 0 "a:b:c"
	store_const_str 1 ":"
	split_int 0 0 1 0
	store_const_int 1 2
	lookup mapis 1 0 1
	print_all i0 s1
	ret
endfunc
entry main
`
	prog, err := Assemble(src)
	require.NoError(t, err, "assemble")

	var code int
	out := captureStdout(t, func() {
		interp := engine.NewInterpreter(prog, engine.DefaultConfig(), nil)
		var runErr error
		code, runErr = interp.Run()
		require.NoError(t, runErr, "run")
	})
	require.Equal(t, 0, code, "exit code")
	require.Equal(t, "3 b\n", out)
}

// TestGSubReplacesAllMatchesInPlace exercises scenario 4: gsub mutates its
// target operand in place and returns the replacement count.
func TestGSubReplacesAllMatchesInPlace(t *testing.T) {
	src := `
func main 0
	store_const_str 0 "o"
	store_const_str 1 "0"
	store_const_str 2 "foo boo"
	gsub 0 0 1 2
	print_all i0 s2
	ret
endfunc
entry main
`
	prog, err := Assemble(src)
	require.NoError(t, err, "assemble")

	var code int
	out := captureStdout(t, func() {
		interp := engine.NewInterpreter(prog, engine.DefaultConfig(), nil)
		var runErr error
		code, runErr = interp.Run()
		require.NoError(t, runErr, "run")
	})
	require.Equal(t, 0, code, "exit code")
	require.Equal(t, "4 f00 b00\n", out)
}

// TestMapIncIntAccumulates exercises scenario 5: inc_int accumulates into a
// string-keyed int map and returns the post-increment value each call.
func TestMapIncIntAccumulates(t *testing.T) {
	src := `
func main 0
	alloc_map mapsi 0
	store_const_str 0 "wc"
	store_const_int 0 1
	inc_int mapsi 1 0 0 0
	inc_int mapsi 2 0 0 0
	store_const_int 3 5
	inc_int mapsi 4 0 0 3
	lookup mapsi 5 0 0
	print_all i4 i5
	ret
endfunc
entry main
`
	prog, err := Assemble(src)
	require.NoError(t, err, "assemble")

	var code int
	out := captureStdout(t, func() {
		interp := engine.NewInterpreter(prog, engine.DefaultConfig(), nil)
		var runErr error
		code, runErr = interp.Run()
		require.NoError(t, runErr, "run")
	})
	require.Equal(t, 0, code, "exit code")
	require.Equal(t, "7 7\n", out)
}

// TestSubGsubOperandShape guards against the four-operand Sub/GSub shape
// regressing back to the three-operand one: C is the target string, read
// and overwritten in place, not a leftover zero register.
func TestSubGsubOperandShape(t *testing.T) {
	fb := NewFunc("f", 0)
	p := fb.Str()
	r := fb.Str()
	targ := fb.Str()
	d := fb.Int()
	_ = d
	require.NoError(t, mnemonics["gsub"](fb, nil, []string{"0", "0", "1", "2"}))
	instrs := fb.instrs
	last := instrs[len(instrs)-1]
	require.Equal(t, engine.OpGSub, last.Op)
	require.Equal(t, p, last.A)
	require.Equal(t, r, last.B)
	require.Equal(t, targ, last.C)
}

// TestIncIntOmittedAmountIsUnused checks that inc_int without a "by"
// register leaves C at engine.UNUSED, not RegID(0), since register 0 is a
// real register and execMapOp's incByInt checks specifically for UNUSED.
func TestIncIntOmittedAmountIsUnused(t *testing.T) {
	fb := NewFunc("f", 0)
	require.NoError(t, mnemonics["inc_int"](fb, nil, []string{"mapsi", "0", "1", "2", "3"}))
	last := fb.instrs[len(fb.instrs)-1]
	require.NotEqual(t, engine.UNUSED, last.C, "expected C to be set when an amount register is given")

	fb2 := NewFunc("g", 0)
	require.NoError(t, mnemonics["len"](fb2, nil, []string{"mapsi", "0", "1"}))
	lastLen := fb2.instrs[len(fb2.instrs)-1]
	require.Equal(t, engine.UNUSED, lastLen.B, "expected len's B operand to default to UNUSED")

	fb3 := NewFunc("h", 0)
	require.NoError(t, mnemonics["inc_int"](fb3, nil, []string{"mapsi", "0", "1", "2"}))
	lastInc := fb3.instrs[len(fb3.instrs)-1]
	require.Equal(t, engine.UNUSED, lastInc.C, "expected C to stay UNUSED when no amount register is given")
}

func TestUnknownMnemonicErrors(t *testing.T) {
	_, err := Assemble("func f 0\nbogus_op 0 1\nendfunc\nentry f\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus_op")
}
