package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog"
)

// Interpreter is the single-threaded cooperative executor spec.md 5
// describes: one instruction at a time, no preemption within an
// instruction, cancellation consulted only between records. It owns the
// register banks (via per-call frames), the field engine, the record
// source, the writer factory, and the regex cache.
type Interpreter struct {
	prog *Program
	cfg  Config
	log  zerolog.Logger

	regex   *RegexCache
	fields  *Fields
	vars    *specialVars
	source  RecordSource
	writers *WriterFactory
	cancel  *CancelSignal
	slots   *slotBank
	args    argStacks
	builtin map[Opcode]builtinFunc

	callStack []callEntry
	curFn     int
	curFrame  *frame

	rng     *rand.Rand
	lastEOF bool
	lastErr bool
}

// NewInterpreter wires a compiled Program to a concrete RecordSource,
// sizing register banks and opening the writer factory. Mirrors the
// teacher's NewVirtualMachine(instrs) constructor shape.
func NewInterpreter(prog *Program, cfg Config, source RecordSource) *Interpreter {
	regex := NewRegexCache()
	ip := &Interpreter{
		prog:    prog,
		cfg:     cfg,
		log:     newLogger(cfg),
		regex:   regex,
		fields:  NewFields(ParseFS(" ", regex), " "),
		vars:    newSpecialVars(),
		source:  source,
		writers: NewWriterFactory(),
		cancel:  &CancelSignal{},
		slots:   newSlotBank(),
		rng:     rand.New(rand.NewPCG(1, 1)),
	}
	ip.builtin = newBuiltinRegistry(ip)
	return ip
}

// Cancel exposes the cooperative cancellation signal to a host that wants
// to stop the run early but still let END blocks execute.
func (ip *Interpreter) Cancel() { ip.cancel.Cancel() }

// nextRecord pulls the next record from the source, reporting a clean EOF
// once Cancel has been requested (checked between records only).
func (ip *Interpreter) nextRecord() (string, string, bool, bool) {
	if ip.cancel.Requested() {
		return "", "", true, false
	}
	return ip.source.NextRecord()
}

// Fields exposes the field engine ($0, $1..$NF and the active separators)
// to the host.
func (ip *Interpreter) Fields() *Fields { return ip.fields }

// Run executes function 0 from entry (spec.md 3 "Lifecycle": "the main
// function's body runs once per record ... interleaved with BEGIN/END
// blocks as the surface language prescribes" -- that interleaving is
// already baked into the compiled instruction stream by the time it
// reaches this package; Run just executes it). Shutdown flushes writers
// and closes the record source, per spec.md 3.
func (ip *Interpreter) Run() (exitCode int, err error) {
	if len(ip.prog.Functions) == 0 {
		return 0, fmt.Errorf("program has no functions")
	}
	ip.curFn = ip.prog.Entry
	ip.curFrame = newFrame(ip.prog.Functions[ip.curFn])

	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *ExitError:
				exitCode = e.Code
			case *FaultError:
				err = e
				exitCode = 2
			default:
				panic(r)
			}
		}
		if cerr := ip.writers.CloseAll(); cerr != nil && err == nil {
			err = cerr
		}
		if ip.source != nil {
			_ = ip.source.Close()
		}
	}()

	for {
		fn := ip.prog.Functions[ip.curFn]
		if ip.curFrame.pc >= len(fn.Instrs) {
			if len(ip.callStack) == 0 {
				return 0, nil
			}
			ip.doReturn()
			continue
		}
		instr := fn.Instrs[ip.curFrame.pc]
		ip.curFrame.pc++
		ip.exec(fn, instr)
	}
}

func (ip *Interpreter) fault(kind FaultKind, instr Instruction, detail string) {
	panic(&FaultError{Kind: kind, Func: ip.prog.Functions[ip.curFn].Name, PC: ip.curFrame.pc - 1, Op: instr.Op, Detail: detail})
}

// doReturn restores the caller's frame and program counter, per spec.md
// 4.2 "Ret: restore PC from return stack and switch active function."
func (ip *Interpreter) doReturn() {
	n := len(ip.callStack) - 1
	entry := ip.callStack[n]
	ip.callStack = ip.callStack[:n]
	ip.curFn = entry.fn
	ip.curFrame = entry.frm
	ip.curFrame.pc = entry.pc
}

func (ip *Interpreter) exec(fn *Function, instr Instruction) {
	fr := ip.curFrame
	switch instr.Op {
	case OpNop:

	// --- constants / moves ---
	case OpStoreConstInt:
		fr.SetInt(instr.Dst, instr.ImmInt)
	case OpStoreConstFloat:
		fr.SetFloat(instr.Dst, instr.ImmFloat)
	case OpStoreConstStr:
		fr.SetStr(instr.Dst, Str(instr.ImmStr))
	case OpMov:
		ip.execMov(fr, instr)
	case OpAllocMap:
		ip.execAllocMap(fr, instr)

	// --- numeric conversions ---
	case OpIntToFloat:
		fr.SetFloat(instr.Dst, Float(fr.Int(instr.A)))
	case OpFloatToInt:
		fr.SetInt(instr.Dst, truncToInt(fr.Float(instr.A)))
	case OpStrToInt:
		fr.SetInt(instr.Dst, strToIntLenient(fr.Str(instr.A)))
	case OpHexStrToInt:
		fr.SetInt(instr.Dst, hexStrToInt(fr.Str(instr.A)))
	case OpStrToFloat:
		fr.SetFloat(instr.Dst, strToFloatLenient(fr.Str(instr.A)))
	case OpIntToStr:
		fr.SetStr(instr.Dst, intToStr(fr.Int(instr.A)))
	case OpFloatToStr:
		fr.SetStr(instr.Dst, floatToStr(fr.Float(instr.A)))

	// --- arithmetic ---
	case OpAddInt:
		fr.SetInt(instr.Dst, fr.Int(instr.A)+fr.Int(instr.B))
	case OpAddFloat:
		fr.SetFloat(instr.Dst, fr.Float(instr.A)+fr.Float(instr.B))
	case OpMulInt:
		fr.SetInt(instr.Dst, fr.Int(instr.A)*fr.Int(instr.B))
	case OpMulFloat:
		fr.SetFloat(instr.Dst, fr.Float(instr.A)*fr.Float(instr.B))
	case OpMinusInt:
		fr.SetInt(instr.Dst, fr.Int(instr.A)-fr.Int(instr.B))
	case OpMinusFloat:
		fr.SetFloat(instr.Dst, fr.Float(instr.A)-fr.Float(instr.B))
	case OpModInt:
		b := fr.Int(instr.B)
		if b == 0 {
			fr.SetInt(instr.Dst, 0)
		} else {
			fr.SetInt(instr.Dst, fr.Int(instr.A)%b)
		}
	case OpModFloat:
		fr.SetFloat(instr.Dst, math.Mod(fr.Float(instr.A), fr.Float(instr.B)))
	case OpDiv:
		// Division always targets Float and follows IEEE on zero -- NaN/Inf,
		// never a panic (spec.md 4.1, 4.2).
		fr.SetFloat(instr.Dst, fr.Float(instr.A)/fr.Float(instr.B))
	case OpPow:
		fr.SetFloat(instr.Dst, math.Pow(fr.Float(instr.A), fr.Float(instr.B)))
	case OpNegInt:
		fr.SetInt(instr.Dst, -fr.Int(instr.A))
	case OpNegFloat:
		fr.SetFloat(instr.Dst, -fr.Float(instr.A))
	case OpNot:
		fr.SetInt(instr.Dst, boolInt(fr.Int(instr.A) == 0))
	case OpNotStr:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) == ""))
	case OpFloat1:
		fr.SetFloat(instr.Dst, applyFloat1(instr.FloatFn, fr.Float(instr.A)))
	case OpFloat2:
		fr.SetFloat(instr.Dst, applyFloat2(instr.FloatFn, fr.Float(instr.A), fr.Float(instr.B)))
	case OpInt1:
		fr.SetInt(instr.Dst, applyInt1(instr.BitOp, fr.Int(instr.A)))
	case OpInt2:
		fr.SetInt(instr.Dst, applyInt2(instr.BitOp, fr.Int(instr.A), fr.Int(instr.B)))
	case OpRand:
		fr.SetFloat(instr.Dst, ip.rng.Float64())
	case OpSrand:
		seed := fr.Int(instr.A)
		ip.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
		fr.SetInt(instr.Dst, seed)
	case OpReseedRng:
		ip.rng = rand.New(rand.NewPCG(1, 1))

	// --- comparisons ---
	case OpLTInt:
		fr.SetInt(instr.Dst, boolInt(fr.Int(instr.A) < fr.Int(instr.B)))
	case OpGTInt:
		fr.SetInt(instr.Dst, boolInt(fr.Int(instr.A) > fr.Int(instr.B)))
	case OpLTEInt:
		fr.SetInt(instr.Dst, boolInt(fr.Int(instr.A) <= fr.Int(instr.B)))
	case OpGTEInt:
		fr.SetInt(instr.Dst, boolInt(fr.Int(instr.A) >= fr.Int(instr.B)))
	case OpEQInt:
		fr.SetInt(instr.Dst, boolInt(fr.Int(instr.A) == fr.Int(instr.B)))
	case OpLTFloat:
		fr.SetInt(instr.Dst, boolInt(fr.Float(instr.A) < fr.Float(instr.B)))
	case OpGTFloat:
		fr.SetInt(instr.Dst, boolInt(fr.Float(instr.A) > fr.Float(instr.B)))
	case OpLTEFloat:
		fr.SetInt(instr.Dst, boolInt(fr.Float(instr.A) <= fr.Float(instr.B)))
	case OpGTEFloat:
		fr.SetInt(instr.Dst, boolInt(fr.Float(instr.A) >= fr.Float(instr.B)))
	case OpEQFloat:
		fr.SetInt(instr.Dst, boolInt(fr.Float(instr.A) == fr.Float(instr.B)))
	case OpLTStr:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) < fr.Str(instr.B)))
	case OpGTStr:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) > fr.Str(instr.B)))
	case OpLTEStr:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) <= fr.Str(instr.B)))
	case OpGTEStr:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) >= fr.Str(instr.B)))
	case OpEQStr:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) == fr.Str(instr.B)))

	// --- string core (the long tail of string transforms lives in
	// strfuncs.go's tryStringOp, tried in the default case below before the
	// builtin registry) ---
	case OpConcat:
		fr.SetStr(instr.Dst, fr.Str(instr.A)+fr.Str(instr.B))
	case OpSubstr:
		fr.SetStr(instr.Dst, substr(fr.Str(instr.A), fr.Int(instr.B), fr.Int(instr.C)))
	case OpCharAt:
		fr.SetStr(instr.Dst, charAt(fr.Str(instr.A), fr.Int(instr.B)))
	case OpStrlen, OpLenStr:
		fr.SetInt(instr.Dst, Int(len(fr.Str(instr.A))))
	case OpStrCmp:
		fr.SetInt(instr.Dst, Int(strings.Compare(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))

	// --- regex ---
	case OpMatch, OpIsMatch:
		ip.execDynMatch(fr, instr)
	case OpMatchConst, OpIsMatchConst:
		ip.execConstMatch(fr, instr)
	case OpSub:
		ip.execSub(fr, instr, false)
	case OpGSub:
		ip.execSub(fr, instr, true)
	case OpSplitInt:
		ip.execSplitInt(fr, instr)
	case OpSplitStr:
		ip.execSplitStr(fr, instr)

	// --- fields ---
	case OpGetColumn:
		fr.SetStr(instr.Dst, Str(ip.fields.GetColumn(int(fr.Int(instr.A)))))
	case OpSetColumn:
		ip.fields.SetColumn(int(fr.Int(instr.A)), string(fr.Str(instr.B)))
	case OpJoinCSV, OpJoinTSV:
		sep := ","
		if instr.Op == OpJoinTSV {
			sep = "\t"
		}
		fr.SetStr(instr.Dst, Str(ip.fields.JoinColumns(int(fr.Int(instr.A)), int(fr.Int(instr.B)), sep)))
	case OpJoinColumns:
		fr.SetStr(instr.Dst, Str(ip.fields.JoinColumns(int(fr.Int(instr.A)), int(fr.Int(instr.B)), string(fr.Str(instr.C)))))
	case OpUpdateUsedFields:
		// Driven by the front-end's liveness info, not modeled at this
		// layer beyond accepting the opcode as a no-op hint.
	case OpSetFI:
		ip.vars.fi = fr.Int(instr.A)

	// --- I/O ---
	case OpNextLineStdinFused:
		ip.execNextLineFused()
	case OpNextLineStdin:
		rec, _, eof, hadErr := ip.nextRecord()
		ip.lastEOF, ip.lastErr = eof, hadErr
		fr.SetStr(instr.Dst, Str(rec))
	case OpNextLine:
		rec, name, eof, hadErr := ip.nextRecord()
		ip.lastEOF, ip.lastErr = eof, hadErr
		ip.vars.filename = Str(name)
		fr.SetStr(instr.Dst, Str(rec))
	case OpReadErr, OpReadErrStdin:
		fr.SetInt(instr.Dst, boolInt(ip.lastErr || ip.lastEOF))
	case OpNextFile:
		if ip.source != nil {
			ip.source.NextFile()
		}
	case OpPrintf:
		ip.execPrintf(fr, instr)
	case OpSprintf:
		fr.SetStr(instr.Dst, Str(ip.sprintf(fr, instr)))
	case OpPrintAll:
		ip.execPrintAll(fr, instr)
	case OpClose:
		ip.writers.Close(string(fr.Str(instr.A)))
	case OpRunCmd:
		fr.SetInt(instr.Dst, Int(ip.runCmd(string(fr.Str(instr.A)))))
	case OpExit:
		panic(&ExitError{Code: int(fr.Int(instr.A))})

	// --- maps ---
	case OpLookup, OpContains, OpDelete, OpClear, OpLen, OpStore, OpIncInt, OpIncFloat,
		OpIterBegin, OpIterHasNext, OpIterGetNext:
		ip.execMapOp(fr, instr)
	case OpMapAsort:
		ip.execMapAsort(fr, instr)
	case OpMapJoin:
		ip.execMapJoin(fr, instr)
	case OpMapMax:
		ip.execMapMax(fr, instr)
	case OpMapMin:
		ip.execMapMin(fr, instr)
	case OpMapSum:
		ip.execMapSum(fr, instr)
	case OpMapMean:
		ip.execMapMean(fr, instr)
	case OpUniq:
		ip.execUniq(fr, instr)
	case OpSeq:
		ip.execSeq(fr, instr)

	// --- variables / slots ---
	case OpLoadVarStr:
		fr.SetStr(instr.Dst, ip.loadVarStr(instr.Var))
	case OpStoreVarStr:
		ip.storeVarStr(instr.Var, fr.Str(instr.A))
	case OpLoadVarInt:
		fr.SetInt(instr.Dst, ip.loadVarInt(instr.Var))
	case OpStoreVarInt:
		ip.storeVarInt(instr.Var, fr.Int(instr.A))
	case OpLoadVarIntMap:
		fr.SetMapIS(instr.Dst, ip.vars.argv)
	case OpStoreVarIntMap:
		ip.vars.argv = fr.MapIS(instr.A)
	case OpLoadVarStrStrMap, OpLoadVarStrMap:
		fr.SetMapSS(instr.Dst, ip.vars.environ)
	case OpStoreVarStrStrMap, OpStoreVarStrMap:
		ip.vars.environ = fr.MapSS(instr.A)
	case OpLoadSlot:
		ip.execLoadSlot(fr, instr)
	case OpStoreSlot:
		ip.execStoreSlot(fr, instr)

	// --- control ---
	case OpJmp:
		fr.pc = int(instr.Label)
	case OpJmpIf:
		if fr.Int(instr.A) != 0 {
			fr.pc = int(instr.Label)
		}

	// --- calls ---
	case OpPush:
		ip.execPush(fr, instr)
	case OpPop:
		ip.execPop(fr, instr)
	case OpCall:
		ip.execCall(instr)
	case OpRet:
		ip.doReturn()

	case OpGenSubDynamic:
		ip.execGenSub(fr, instr)

	default:
		if ip.tryStringOp(fr, instr) {
			return
		}
		if h, ok := ip.builtin[instr.Op]; ok {
			h(ip, fr, instr)
			return
		}
		ip.fault(FaultUnknownOpcode, instr, instr.Op.String())
	}
}

func boolInt(b bool) Int {
	if b {
		return 1
	}
	return 0
}

func truncToInt(f Float) Int {
	if math.IsNaN(f) {
		return 0
	}
	return Int(math.Trunc(f))
}

func applyFloat1(fn FloatFunc, a Float) Float {
	switch fn {
	case FFSqrt:
		return math.Sqrt(a)
	case FFSin:
		return math.Sin(a)
	case FFCos:
		return math.Cos(a)
	case FFLog:
		return math.Log(a)
	case FFLog2:
		return math.Log2(a)
	case FFLog10:
		return math.Log10(a)
	case FFExp:
		return math.Exp(a)
	case FFAtan:
		return math.Atan(a)
	default:
		return a
	}
}

func applyFloat2(fn FloatFunc, a, b Float) Float {
	switch fn {
	case FFAtan2:
		return math.Atan2(a, b)
	case FFFmod:
		return math.Mod(a, b)
	case FFHypot:
		return math.Hypot(a, b)
	default:
		return a
	}
}

func applyInt1(op Bitwise, a Int) Int {
	if op == BitComplement {
		return ^a
	}
	return a
}

func applyInt2(op Bitwise, a, b Int) Int {
	switch op {
	case BitAnd:
		return a & b
	case BitOr:
		return a | b
	case BitXor:
		return a ^ b
	case BitShl:
		return a << uint(b)
	case BitShr:
		return a >> uint(b)
	default:
		return a
	}
}

// substr implements 1-based inclusive, clamped Substr(base, l, r): l is the
// start position, r is a length, per AWK's substr(s, m[, n]) with the
// two-argument form encoded as r == -1 by the front-end meaning "to the
// end".
func substr(s Str, start, length Int) Str {
	runes := []rune(string(s))
	n := Int(len(runes))
	if start < 1 {
		if length >= 0 {
			length += start - 1
		}
		start = 1
	}
	if start > n {
		return ""
	}
	end := start - 1 + length
	if length < 0 || end > n {
		end = n
	}
	if end <= start-1 {
		return ""
	}
	return Str(string(runes[start-1 : end]))
}

func charAt(s Str, idx Int) Str {
	runes := []rune(string(s))
	if idx < 1 || idx > Int(len(runes)) {
		return ""
	}
	return Str(string(runes[idx-1]))
}

func (ip *Interpreter) execMov(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyInt:
		fr.SetInt(instr.Dst, fr.Int(instr.A))
	case TyFloat:
		fr.SetFloat(instr.Dst, fr.Float(instr.A))
	case TyStr:
		fr.SetStr(instr.Dst, fr.Str(instr.A))
	case TyMapIntInt:
		fr.SetMapII(instr.Dst, fr.MapII(instr.A))
	case TyMapIntFloat:
		fr.SetMapIF(instr.Dst, fr.MapIF(instr.A))
	case TyMapIntStr:
		fr.SetMapIS(instr.Dst, fr.MapIS(instr.A))
	case TyMapStrInt:
		fr.SetMapSI(instr.Dst, fr.MapSI(instr.A))
	case TyMapStrFloat:
		fr.SetMapSF(instr.Dst, fr.MapSF(instr.A))
	case TyMapStrStr:
		fr.SetMapSS(instr.Dst, fr.MapSS(instr.A))
	default:
		ip.fault(FaultTypeMismatch, instr, "Mov over unsupported Ty")
	}
}

func (ip *Interpreter) execAllocMap(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyMapIntInt:
		fr.SetMapII(instr.Dst, AllocMap[Int, Int]())
	case TyMapIntFloat:
		fr.SetMapIF(instr.Dst, AllocMap[Int, Float]())
	case TyMapIntStr:
		fr.SetMapIS(instr.Dst, AllocMap[Int, Str]())
	case TyMapStrInt:
		fr.SetMapSI(instr.Dst, AllocMap[Str, Int]())
	case TyMapStrFloat:
		fr.SetMapSF(instr.Dst, AllocMap[Str, Float]())
	case TyMapStrStr:
		fr.SetMapSS(instr.Dst, AllocMap[Str, Str]())
	default:
		ip.fault(FaultTypeMismatch, instr, "AllocMap over unsupported Ty")
	}
}

func (ip *Interpreter) execNextLineFused() {
	rec, name, eof, hadErr := ip.nextRecord()
	ip.lastEOF, ip.lastErr = eof, hadErr
	if !eof {
		ip.fields.SetRecord(rec)
		ip.vars.nr++
		ip.vars.fnr++
		ip.vars.filename = Str(name)
	}
}

func (ip *Interpreter) execPush(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyInt:
		ip.args.pushInt(fr.Int(instr.A))
	case TyFloat:
		ip.args.pushFloat(fr.Float(instr.A))
	case TyStr:
		ip.args.pushStr(fr.Str(instr.A))
	case TyMapIntInt:
		ip.args.pushMapII(fr.MapII(instr.A))
	case TyMapIntFloat:
		ip.args.pushMapIF(fr.MapIF(instr.A))
	case TyMapIntStr:
		ip.args.pushMapIS(fr.MapIS(instr.A))
	case TyMapStrInt:
		ip.args.pushMapSI(fr.MapSI(instr.A))
	case TyMapStrFloat:
		ip.args.pushMapSF(fr.MapSF(instr.A))
	case TyMapStrStr:
		ip.args.pushMapSS(fr.MapSS(instr.A))
	default:
		ip.fault(FaultTypeMismatch, instr, "Push over unsupported Ty")
	}
}

func (ip *Interpreter) execPop(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyInt:
		fr.SetInt(instr.Dst, ip.args.popInt())
	case TyFloat:
		fr.SetFloat(instr.Dst, ip.args.popFloat())
	case TyStr:
		fr.SetStr(instr.Dst, ip.args.popStr())
	case TyMapIntInt:
		fr.SetMapII(instr.Dst, ip.args.popMapII())
	case TyMapIntFloat:
		fr.SetMapIF(instr.Dst, ip.args.popMapIF())
	case TyMapIntStr:
		fr.SetMapIS(instr.Dst, ip.args.popMapIS())
	case TyMapStrInt:
		fr.SetMapSI(instr.Dst, ip.args.popMapSI())
	case TyMapStrFloat:
		fr.SetMapSF(instr.Dst, ip.args.popMapSF())
	case TyMapStrStr:
		fr.SetMapSS(instr.Dst, ip.args.popMapSS())
	default:
		ip.fault(FaultTypeMismatch, instr, "Pop over unsupported Ty")
	}
}

// execCall implements spec.md 4.2: "save current PC+1 onto a return stack;
// set active function to f; PC = 0. Arguments have already been pushed via
// Push instructions". The callee's Pop instructions in its prologue then
// pull them back off in reverse order.
func (ip *Interpreter) execCall(instr Instruction) {
	if instr.Func < 0 || instr.Func >= len(ip.prog.Functions) {
		ip.fault(FaultUnknownFunction, instr, fmt.Sprintf("function id %d", instr.Func))
	}
	ip.callStack = append(ip.callStack, callEntry{fn: ip.curFn, pc: ip.curFrame.pc, frm: ip.curFrame})
	ip.curFn = instr.Func
	ip.curFrame = newFrame(ip.prog.Functions[ip.curFn])
}
