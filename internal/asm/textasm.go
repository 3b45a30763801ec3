package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/awkvm/core/engine"
)

// Assemble parses the line-oriented textual form below into an
// engine.Program, following the same two passes vm/parse.go uses:
// preprocessLine there strips comments and records label positions before
// parseInputLine ever turns a line into an Instruction; here, label and
// function-name resolution similarly happen in ProgramBuilder.Build after
// every line in every function has already been turned into a builder call.
//
// Syntax, one instruction/directive per line:
//
//	func name nparams
//	label:
//	mnemonic operand operand ...
//	endfunc
//
// "//" starts a line comment. Plain decimal integers name registers within
// the bank the mnemonic's operand position implies; quoted strings are
// string immediates; bare identifiers name labels, functions, or special
// variables; a handful of mnemonics (mov, alloc_map, push, pop, load_slot,
// store_slot, and the map family) take a leading type keyword selecting
// which bank a register operand lives in. This covers the core ISA a
// surface-language front-end would actually emit; the opaque built-in
// opcode family (spec.md 1) has no declared surface grammar, so programs
// exercising it are built directly against FuncBuilder.Emit instead.
func Assemble(source string) (*engine.Program, error) {
	lines := strings.Split(source, "\n")
	prog := NewProgram()

	var cur *FuncBuilder
	var entry string
	labelIDs := map[string]int{}

	for lineNo, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		toks, err := tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("asm: line %d: %w", lineNo+1, err)
		}
		if len(toks) == 0 {
			continue
		}

		if strings.HasSuffix(toks[0], ":") && len(toks) == 1 {
			if cur == nil {
				return nil, fmt.Errorf("asm: line %d: label outside function", lineNo+1)
			}
			name := strings.TrimSuffix(toks[0], ":")
			cur.Mark(labelID(cur, labelIDs, name))
			continue
		}

		switch toks[0] {
		case "func":
			if len(toks) < 2 {
				return nil, fmt.Errorf("asm: line %d: func needs a name", lineNo+1)
			}
			nparams := 0
			if len(toks) >= 3 {
				n, err := strconv.Atoi(toks[2])
				if err != nil {
					return nil, fmt.Errorf("asm: line %d: bad nparams: %w", lineNo+1, err)
				}
				nparams = n
			}
			cur = NewFunc(toks[1], nparams)
			if entry == "" {
				entry = toks[1]
			}
			prog.AddFunc(cur)
			continue
		case "entry":
			if len(toks) < 2 {
				return nil, fmt.Errorf("asm: line %d: entry needs a function name", lineNo+1)
			}
			entry = toks[1]
			continue
		case "endfunc":
			cur = nil
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("asm: line %d: instruction outside function", lineNo+1)
		}
		if err := assembleInstr(cur, labelIDs, toks); err != nil {
			return nil, fmt.Errorf("asm: line %d: %w", lineNo+1, err)
		}
	}

	return prog.Build(entry)
}

func funcLabelKey(fn, label string) string { return fn + "#" + label }

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func tokenize(line string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '"' {
			j := i + 1
			for j < len(line) && line[j] != '"' {
				j++
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, line[i:j+1])
			i = j + 1
			continue
		}
		j := i
		for j < len(line) && line[j] != ' ' && line[j] != '\t' {
			j++
		}
		toks = append(toks, line[i:j])
		i = j
	}
	return toks, nil
}

func unquote(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", tok)
	}
	return tok[1 : len(tok)-1], nil
}

// reg parses a bare register number, not yet bound to a bank.
func reg(tok string) (engine.RegID, error) {
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("expected register number, got %q", tok)
	}
	return engine.RegID(n), nil
}

// regT parses a register number for the given bank and records it against
// fb's per-bank register count, since this ISA sizes each function's
// register banks up front (engine.RegCounts) the way the teacher's VM
// allocates one fixed array per activation: a register id used in text
// without a corresponding count bump would read as in-range zero at build
// time but panic at runtime once the interpreter sizes the real frame.
func regT(fb *FuncBuilder, tok string, ty engine.Ty) (engine.RegID, error) {
	id, err := reg(tok)
	if err != nil {
		return 0, err
	}
	fb.bump(ty, id)
	return id, nil
}

func variable(tok string) (engine.Variable, error) {
	switch tok {
	case "fs":
		return engine.VarFS, nil
	case "ofs":
		return engine.VarOFS, nil
	case "ors":
		return engine.VarORS, nil
	case "rs":
		return engine.VarRS, nil
	case "nf":
		return engine.VarNF, nil
	case "nr":
		return engine.VarNR, nil
	case "fnr":
		return engine.VarFNR, nil
	case "filename":
		return engine.VarFILENAME, nil
	case "subsep":
		return engine.VarSUBSEP, nil
	case "rstart":
		return engine.VarRSTART, nil
	case "rlength":
		return engine.VarRLENGTH, nil
	case "fi":
		return engine.VarFI, nil
	case "argc":
		return engine.VarARGC, nil
	default:
		return 0, fmt.Errorf("unknown special variable %q", tok)
	}
}

func typeKeyword(tok string) (engine.Ty, error) {
	switch tok {
	case "int":
		return engine.TyInt, nil
	case "float":
		return engine.TyFloat, nil
	case "str":
		return engine.TyStr, nil
	case "mapii":
		return engine.TyMapIntInt, nil
	case "mapif":
		return engine.TyMapIntFloat, nil
	case "mapis":
		return engine.TyMapIntStr, nil
	case "mapsi":
		return engine.TyMapStrInt, nil
	case "mapsf":
		return engine.TyMapStrFloat, nil
	case "mapss":
		return engine.TyMapStrStr, nil
	case "iterint":
		return engine.TyIterInt, nil
	case "iterstr":
		return engine.TyIterStr, nil
	default:
		return 0, fmt.Errorf("unknown type keyword %q", tok)
	}
}

// argToken parses one variadic-argument-list token like "i3" (int register
// 3) or "s0" (str register 0) for Printf/PrintAll/Sprintf's Args.
func argToken(fb *FuncBuilder, tok string) (engine.Arg, error) {
	if len(tok) < 2 {
		return engine.Arg{}, fmt.Errorf("bad arg token %q", tok)
	}
	var ty engine.Ty
	switch tok[0] {
	case 'i':
		ty = engine.TyInt
	case 'f':
		ty = engine.TyFloat
	case 's':
		ty = engine.TyStr
	default:
		return engine.Arg{}, fmt.Errorf("bad arg token %q", tok)
	}
	id, err := regT(fb, tok[1:], ty)
	if err != nil {
		return engine.Arg{}, err
	}
	return engine.Arg{Reg: id, Ty: ty}, nil
}

func labelID(fb *FuncBuilder, labelIDs map[string]int, name string) int {
	key := funcLabelKey(fb.name, name)
	if id, ok := labelIDs[key]; ok {
		return id
	}
	id := fb.NewLabel()
	labelIDs[key] = id
	return id
}

// simple3 covers the {Dst, A, B} shape with an explicit Ty per field, since
// comparisons fix Dst to TyInt (the boolean result) while A/B vary with the
// operand type being compared.
func simple3(op engine.Opcode, tyDst, tyA, tyB engine.Ty) func(*FuncBuilder, []string) error {
	return func(fb *FuncBuilder, args []string) error {
		d, err := regT(fb, args[0], tyDst)
		if err != nil {
			return err
		}
		a, err := regT(fb, args[1], tyA)
		if err != nil {
			return err
		}
		b, err := regT(fb, args[2], tyB)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: op, Dst: d, A: a, B: b})
		return nil
	}
}

// simple2 covers the {Dst, A} unary/conversion shape.
func simple2(op engine.Opcode, tyDst, tyA engine.Ty) func(*FuncBuilder, []string) error {
	return func(fb *FuncBuilder, args []string) error {
		d, err := regT(fb, args[0], tyDst)
		if err != nil {
			return err
		}
		a, err := regT(fb, args[1], tyA)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: op, Dst: d, A: a})
		return nil
	}
}

var mnemonics = map[string]func(fb *FuncBuilder, labelIDs map[string]int, args []string) error{}

func register(name string, fn func(fb *FuncBuilder, labelIDs map[string]int, args []string) error) {
	mnemonics[name] = fn
}

func registerSimple3(name string, op engine.Opcode, tyDst, tyA, tyB engine.Ty) {
	f := simple3(op, tyDst, tyA, tyB)
	register(name, func(fb *FuncBuilder, _ map[string]int, args []string) error { return f(fb, args) })
}

func registerSimple2(name string, op engine.Opcode, tyDst, tyA engine.Ty) {
	f := simple2(op, tyDst, tyA)
	register(name, func(fb *FuncBuilder, _ map[string]int, args []string) error { return f(fb, args) })
}

func init() {
	const I, F, S = engine.TyInt, engine.TyFloat, engine.TyStr

	register("store_const_int", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], I)
		if err != nil {
			return err
		}
		n, err := strconv.ParseInt(a[1], 10, 64)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpStoreConstInt, Dst: d, ImmInt: n})
		return nil
	})
	register("store_const_float", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], F)
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(a[1], 64)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpStoreConstFloat, Dst: d, ImmFloat: f})
		return nil
	})
	register("store_const_str", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		s, err := unquote(a[1])
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpStoreConstStr, Dst: d, ImmStr: s})
		return nil
	})
	register("mov", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		ty, err := typeKeyword(a[0])
		if err != nil {
			return err
		}
		d, err := regT(fb, a[1], ty)
		if err != nil {
			return err
		}
		src, err := regT(fb, a[2], ty)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpMov, Ty: ty, Dst: d, A: src})
		return nil
	})
	register("alloc_map", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		ty, err := typeKeyword(a[0])
		if err != nil {
			return err
		}
		d, err := regT(fb, a[1], ty)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpAllocMap, Ty: ty, Dst: d})
		return nil
	})

	registerSimple3("add_int", engine.OpAddInt, I, I, I)
	registerSimple3("mul_int", engine.OpMulInt, I, I, I)
	registerSimple3("minus_int", engine.OpMinusInt, I, I, I)
	registerSimple3("mod_int", engine.OpModInt, I, I, I)
	registerSimple3("add_float", engine.OpAddFloat, F, F, F)
	registerSimple3("mul_float", engine.OpMulFloat, F, F, F)
	registerSimple3("minus_float", engine.OpMinusFloat, F, F, F)
	registerSimple3("mod_float", engine.OpModFloat, F, F, F)
	registerSimple3("div", engine.OpDiv, F, F, F)
	registerSimple3("pow", engine.OpPow, F, F, F)
	registerSimple2("neg_int", engine.OpNegInt, I, I)
	registerSimple2("neg_float", engine.OpNegFloat, F, F)
	registerSimple2("not", engine.OpNot, I, I)
	registerSimple2("not_str", engine.OpNotStr, I, S)
	registerSimple2("int_to_float", engine.OpIntToFloat, F, I)
	registerSimple2("float_to_int", engine.OpFloatToInt, I, F)
	registerSimple2("str_to_int", engine.OpStrToInt, I, S)
	registerSimple2("str_to_float", engine.OpStrToFloat, F, S)
	registerSimple2("int_to_str", engine.OpIntToStr, S, I)
	registerSimple2("float_to_str", engine.OpFloatToStr, S, F)

	for name, op := range map[string]engine.Opcode{
		"lt_int": engine.OpLTInt, "gt_int": engine.OpGTInt, "lte_int": engine.OpLTEInt,
		"gte_int": engine.OpGTEInt, "eq_int": engine.OpEQInt,
	} {
		registerSimple3(name, op, I, I, I)
	}
	for name, op := range map[string]engine.Opcode{
		"lt_float": engine.OpLTFloat, "gt_float": engine.OpGTFloat, "lte_float": engine.OpLTEFloat,
		"gte_float": engine.OpGTEFloat, "eq_float": engine.OpEQFloat,
	} {
		registerSimple3(name, op, I, F, F)
	}
	for name, op := range map[string]engine.Opcode{
		"lt_str": engine.OpLTStr, "gt_str": engine.OpGTStr, "lte_str": engine.OpLTEStr,
		"gte_str": engine.OpGTEStr, "eq_str": engine.OpEQStr,
	} {
		registerSimple3(name, op, I, S, S)
	}

	registerSimple3("concat", engine.OpConcat, S, S, S)
	register("substr", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		s, err := regT(fb, a[1], S)
		if err != nil {
			return err
		}
		start, err := regT(fb, a[2], I)
		if err != nil {
			return err
		}
		length, err := regT(fb, a[3], I)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpSubstr, Dst: d, A: s, B: start, C: length})
		return nil
	})
	registerSimple3("char_at", engine.OpCharAt, S, S, I)
	registerSimple2("strlen", engine.OpStrlen, I, S)
	registerSimple3("strcmp", engine.OpStrCmp, I, S, S)

	// Match/IsMatch: A=subject, B=dynamic pattern; Dst=1-based match start
	// (0 if none) for Match, 0/1 for IsMatch.
	registerSimple3("match", engine.OpMatch, I, S, S)
	registerSimple3("is_match", engine.OpIsMatch, I, S, S)
	register("match_const", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return constMatch(fb, a, engine.OpMatchConst)
	})
	register("is_match_const", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return constMatch(fb, a, engine.OpIsMatchConst)
	})
	// Sub/GSub: Dst=count, A=dynamic pattern, B=replacement, C=target (read
	// and overwritten in place), per engine/regexops.go's execSub.
	register("sub", func(fb *FuncBuilder, _ map[string]int, a []string) error { return subGsub(fb, a, engine.OpSub) })
	register("gsub", func(fb *FuncBuilder, _ map[string]int, a []string) error { return subGsub(fb, a, engine.OpGSub) })
	register("gensub", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		pat, err := regT(fb, a[1], S)
		if err != nil {
			return err
		}
		repl, err := regT(fb, a[2], S)
		if err != nil {
			return err
		}
		subj, err := regT(fb, a[3], S)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpGenSubDynamic, Dst: d, A: pat, B: repl, C: subj})
		return nil
	})
	// SplitInt/SplitStr: Dst=count, A=subject, B=separator (literal byte or
	// empty for whitespace mode on SplitInt, dynamic regex on SplitStr),
	// C=the resulting int-keyed string map, per engine/regexops.go.
	register("split_int", func(fb *FuncBuilder, _ map[string]int, a []string) error { return split(fb, a, engine.OpSplitInt) })
	register("split_str", func(fb *FuncBuilder, _ map[string]int, a []string) error { return split(fb, a, engine.OpSplitStr) })

	registerSimple2("get_column", engine.OpGetColumn, S, I)
	register("set_column", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		n, err := regT(fb, a[0], I)
		if err != nil {
			return err
		}
		v, err := regT(fb, a[1], S)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpSetColumn, A: n, B: v})
		return nil
	})
	registerSimple3("join_csv", engine.OpJoinCSV, S, I, I)
	registerSimple3("join_tsv", engine.OpJoinTSV, S, I, I)
	register("join_columns", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		s, err := regT(fb, a[1], I)
		if err != nil {
			return err
		}
		e, err := regT(fb, a[2], I)
		if err != nil {
			return err
		}
		sep, err := regT(fb, a[3], S)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpJoinColumns, Dst: d, A: s, B: e, C: sep})
		return nil
	})

	registerSimple2("next_line", engine.OpNextLine, S, S)
	register("next_line_stdin", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpNextLineStdin, Dst: d})
		return nil
	})
	register("next_line_stdin_fused", func(fb *FuncBuilder, _ map[string]int, _ []string) error {
		fb.Emit(engine.Instruction{Op: engine.OpNextLineStdinFused})
		return nil
	})
	register("read_err", func(fb *FuncBuilder, _ map[string]int, a []string) error { return simple2(engine.OpReadErr, I, S)(fb, a) })
	register("read_err_stdin", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], I)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpReadErrStdin, Dst: d})
		return nil
	})
	register("printf", variadicOutput(engine.OpPrintf, false))
	register("print_all", variadicOutput(engine.OpPrintAll, true))
	register("sprintf", variadicOutput(engine.OpSprintf, false))
	register("close", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		p, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpClose, A: p})
		return nil
	})
	register("run_cmd", func(fb *FuncBuilder, _ map[string]int, a []string) error { return simple2(engine.OpRunCmd, I, S)(fb, a) })
	register("exit", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		c, err := regT(fb, a[0], I)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpExit, A: c})
		return nil
	})
	register("next_file", func(fb *FuncBuilder, _ map[string]int, _ []string) error {
		fb.Emit(engine.Instruction{Op: engine.OpNextFile})
		return nil
	})

	// Map ops carry their live flavor in instr.Ty (spec.md 4.4's six
	// concrete flavors), so every mnemonic below takes a leading type
	// keyword naming the map (or iterator) bank involved, followed by
	// plain register numbers within that bank (or TyInt for a bool/count
	// result and TyStr/TyInt keys, resolved per opcode in mapShape).
	register("lookup", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpLookup, true, true, false)
	})
	register("contains", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpContains, true, true, false)
	})
	register("delete", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpDelete, false, true, false)
	})
	register("clear", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpClear, false, false, false)
	})
	register("len", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpLen, true, false, false)
	})
	register("store", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpStore, false, true, true)
	})
	register("inc_int", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpIncInt, true, true, true)
	})
	register("inc_float", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpIncFloat, true, true, true)
	})
	register("iter_begin", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpIterBegin, true, false, false)
	})
	register("iter_has_next", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpIterHasNext, true, true, false)
	})
	register("iter_get_next", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		return mapShape(fb, a, engine.OpIterGetNext, true, true, false)
	})

	register("load_var_str", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], S)
		if err != nil {
			return err
		}
		v, err := variable(a[1])
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpLoadVarStr, Dst: d, Var: v})
		return nil
	})
	register("store_var_str", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		v, err := variable(a[0])
		if err != nil {
			return err
		}
		s, err := regT(fb, a[1], S)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpStoreVarStr, Var: v, A: s})
		return nil
	})
	register("load_var_int", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		d, err := regT(fb, a[0], I)
		if err != nil {
			return err
		}
		v, err := variable(a[1])
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpLoadVarInt, Dst: d, Var: v})
		return nil
	})
	register("store_var_int", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		v, err := variable(a[0])
		if err != nil {
			return err
		}
		s, err := regT(fb, a[1], I)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpStoreVarInt, Var: v, A: s})
		return nil
	})
	register("load_slot", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		ty, err := typeKeyword(a[0])
		if err != nil {
			return err
		}
		d, err := regT(fb, a[1], ty)
		if err != nil {
			return err
		}
		slot, err := strconv.ParseInt(a[2], 10, 64)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpLoadSlot, Ty: ty, Dst: d, ImmInt: slot})
		return nil
	})
	register("store_slot", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		ty, err := typeKeyword(a[0])
		if err != nil {
			return err
		}
		slot, err := strconv.ParseInt(a[1], 10, 64)
		if err != nil {
			return err
		}
		v, err := regT(fb, a[2], ty)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpStoreSlot, Ty: ty, ImmInt: slot, A: v})
		return nil
	})

	register("jmp", func(fb *FuncBuilder, labelIDs map[string]int, a []string) error {
		fb.Jmp(labelID(fb, labelIDs, a[0]))
		return nil
	})
	register("jmp_if", func(fb *FuncBuilder, labelIDs map[string]int, a []string) error {
		c, err := regT(fb, a[0], I)
		if err != nil {
			return err
		}
		fb.JmpIf(c, labelID(fb, labelIDs, a[1]))
		return nil
	})
	register("push", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		ty, err := typeKeyword(a[0])
		if err != nil {
			return err
		}
		v, err := regT(fb, a[1], ty)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpPush, Ty: ty, A: v})
		return nil
	})
	register("pop", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		ty, err := typeKeyword(a[0])
		if err != nil {
			return err
		}
		d, err := regT(fb, a[1], ty)
		if err != nil {
			return err
		}
		fb.Emit(engine.Instruction{Op: engine.OpPop, Ty: ty, Dst: d})
		return nil
	})
	register("call", func(fb *FuncBuilder, _ map[string]int, a []string) error {
		fb.Call(a[0])
		return nil
	})
	register("ret", func(fb *FuncBuilder, _ map[string]int, _ []string) error {
		fb.Ret()
		return nil
	})
	register("nop", func(fb *FuncBuilder, _ map[string]int, _ []string) error {
		fb.Emit(engine.Instruction{Op: engine.OpNop})
		return nil
	})
}

func constMatch(fb *FuncBuilder, a []string, op engine.Opcode) error {
	d, err := regT(fb, a[0], engine.TyInt)
	if err != nil {
		return err
	}
	s, err := regT(fb, a[1], engine.TyStr)
	if err != nil {
		return err
	}
	pattern, err := unquote(a[2])
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("bad regex constant %q: %w", pattern, err)
	}
	fb.Emit(engine.Instruction{Op: op, Dst: d, A: s, ConstRegex: re})
	return nil
}

func subGsub(fb *FuncBuilder, a []string, op engine.Opcode) error {
	d, err := regT(fb, a[0], engine.TyInt)
	if err != nil {
		return err
	}
	pat, err := regT(fb, a[1], engine.TyStr)
	if err != nil {
		return err
	}
	repl, err := regT(fb, a[2], engine.TyStr)
	if err != nil {
		return err
	}
	target, err := regT(fb, a[3], engine.TyStr)
	if err != nil {
		return err
	}
	fb.Emit(engine.Instruction{Op: op, Dst: d, A: pat, B: repl, C: target})
	return nil
}

func split(fb *FuncBuilder, a []string, op engine.Opcode) error {
	d, err := regT(fb, a[0], engine.TyInt)
	if err != nil {
		return err
	}
	subj, err := regT(fb, a[1], engine.TyStr)
	if err != nil {
		return err
	}
	sep, err := regT(fb, a[2], engine.TyStr)
	if err != nil {
		return err
	}
	out, err := regT(fb, a[3], engine.TyMapIntStr)
	if err != nil {
		return err
	}
	fb.Emit(engine.Instruction{Op: op, Dst: d, A: subj, B: sep, C: out})
	return nil
}

// mapShape parses a map-family instruction line of the form
// "ty [dst] a [b] [c]", where ty selects instr.Ty (a map flavor like mapii,
// or iterint/iterstr for the iterator pair). Key/value registers are
// parsed against TyInt or TyStr per the map flavor's key type, since that's
// what the six concrete flavors vary on for the B/C operands; the A operand
// is always the map/iterator register itself, in ty's own bank.
func mapShape(fb *FuncBuilder, a []string, op engine.Opcode, withDst, withB, withC bool) error {
	if len(a) < 1 {
		return fmt.Errorf("%s needs a type keyword", opcodeMnemonic(op))
	}
	ty, err := typeKeyword(a[0])
	if err != nil {
		return err
	}
	keyTy, valTy := mapKeyValTy(ty)
	rest := a[1:]
	instr := engine.Instruction{Op: op, Ty: ty, Dst: engine.UNUSED, A: engine.UNUSED, B: engine.UNUSED, C: engine.UNUSED}
	if withDst {
		if len(rest) == 0 {
			return fmt.Errorf("%s missing dst register", opcodeMnemonic(op))
		}
		dstTy := valTy
		if op == engine.OpContains || op == engine.OpLen || op == engine.OpIterHasNext {
			dstTy = engine.TyInt
		}
		if op == engine.OpIterBegin {
			dstTy = iterTyFor(ty)
		}
		if op == engine.OpIterGetNext {
			dstTy = keyTy
			if ty == engine.TyIterStr {
				dstTy = engine.TyStr
			} else {
				dstTy = engine.TyInt
			}
		}
		d, err := regT(fb, rest[0], dstTy)
		if err != nil {
			return err
		}
		instr.Dst = d
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return fmt.Errorf("%s missing map/iter register", opcodeMnemonic(op))
	}
	m, err := regT(fb, rest[0], ty)
	if err != nil {
		return err
	}
	instr.A = m
	rest = rest[1:]
	if withB {
		if len(rest) == 0 {
			return fmt.Errorf("%s missing key register", opcodeMnemonic(op))
		}
		k, err := regT(fb, rest[0], keyTy)
		if err != nil {
			return err
		}
		instr.B = k
		rest = rest[1:]
	}
	if withC && len(rest) > 0 {
		c, err := regT(fb, rest[0], valTy)
		if err != nil {
			return err
		}
		instr.C = c
	}
	fb.Emit(instr)
	return nil
}

// mapKeyValTy returns the key and value register banks for a map flavor,
// or, for the iterator flavors where only a key type applies, that key
// bank in both positions.
func mapKeyValTy(ty engine.Ty) (key, val engine.Ty) {
	switch ty {
	case engine.TyMapIntInt:
		return engine.TyInt, engine.TyInt
	case engine.TyMapIntFloat:
		return engine.TyInt, engine.TyFloat
	case engine.TyMapIntStr:
		return engine.TyInt, engine.TyStr
	case engine.TyMapStrInt:
		return engine.TyStr, engine.TyInt
	case engine.TyMapStrFloat:
		return engine.TyStr, engine.TyFloat
	case engine.TyMapStrStr:
		return engine.TyStr, engine.TyStr
	case engine.TyIterInt:
		return engine.TyInt, engine.TyInt
	case engine.TyIterStr:
		return engine.TyStr, engine.TyStr
	default:
		return engine.TyInt, engine.TyInt
	}
}

func iterTyFor(mapTy engine.Ty) engine.Ty {
	switch mapTy {
	case engine.TyMapIntInt, engine.TyMapIntFloat, engine.TyMapIntStr:
		return engine.TyIterInt
	default:
		return engine.TyIterStr
	}
}

func variadicOutput(op engine.Opcode, noDst bool) func(*FuncBuilder, map[string]int, []string) error {
	return func(fb *FuncBuilder, _ map[string]int, a []string) error {
		instr := engine.Instruction{Op: op}
		rest := a
		if !noDst {
			if len(rest) == 0 {
				return fmt.Errorf("%s needs a format register", opcodeMnemonic(op))
			}
			if op == engine.OpSprintf {
				d, err := regT(fb, rest[0], engine.TyStr)
				if err != nil {
					return err
				}
				instr.Dst = d
				rest = rest[1:]
			}
			if len(rest) == 0 {
				return fmt.Errorf("%s needs a format register", opcodeMnemonic(op))
			}
			f, err := regT(fb, rest[0], engine.TyStr)
			if err != nil {
				return err
			}
			instr.A = f
			rest = rest[1:]
		}
		for _, tok := range rest {
			arg, err := argToken(fb, tok)
			if err != nil {
				return err
			}
			instr.Args = append(instr.Args, arg)
		}
		fb.Emit(instr)
		return nil
	}
}

func opcodeMnemonic(op engine.Opcode) string { return op.String() }

func assembleInstr(fb *FuncBuilder, labelIDs map[string]int, toks []string) error {
	fn, ok := mnemonics[toks[0]]
	if !ok {
		return fmt.Errorf("unknown mnemonic %q", toks[0])
	}
	return fn(fb, labelIDs, toks[1:])
}
