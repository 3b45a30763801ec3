// Package asm assembles engine.Program values, the way the teacher's
// vm/parse.go turns source text into a []Instruction: a two-pass process
// that resolves labels and function names before anything is executed.
// Here the "source text" a caller drives is either Go method calls against
// a FuncBuilder/ProgramBuilder, or the compact line-oriented syntax Assemble
// parses in textasm.go. The builder is the ground truth; the textual form
// is a thin front end over it covering the core ISA a surface-language
// front-end would actually emit -- the opaque built-in opcode family
// (spec.md 1, 4.1) has no declared surface grammar, so programs exercising
// it are built directly with the Go API's Emit escape hatch.
package asm

import (
	"fmt"

	"github.com/awkvm/core/engine"
)

// pendingJump records a Jmp/JmpIf instruction index whose Label field still
// needs to be patched once the target label's instruction index is known.
type pendingJump struct {
	instrIdx int
	label    int
}

// pendingCall records a Call instruction index whose Func field still needs
// to be patched once the callee's function index in the Program is known.
type pendingCall struct {
	instrIdx int
	name     string
}

// FuncBuilder accumulates one engine.Function's instructions and register
// allocations. Register ids are handed out per bank in allocation order,
// the same flat "next free slot" scheme the teacher's register file uses,
// just partitioned by engine.Ty instead of being one array of words.
type FuncBuilder struct {
	name      string
	numParams int
	instrs    []engine.Instruction
	counts    engine.RegCounts

	labels      map[int]int // label id -> resolved instruction index, -1 if unresolved
	nextLabel   int
	pendingJmps []pendingJump
	pendingCall []pendingCall
}

// NewFunc starts a new function. numParams is informational here: the
// front-end that targets this ISA encodes parameter passing as Push/Pop
// pairs around Call (spec.md 4.2), not as a distinct calling convention
// this builder enforces.
func NewFunc(name string, numParams int) *FuncBuilder {
	return &FuncBuilder{name: name, numParams: numParams, labels: make(map[int]int)}
}

func (b *FuncBuilder) Int() engine.RegID     { id := b.counts.Int; b.counts.Int++; return engine.RegID(id) }
func (b *FuncBuilder) Float() engine.RegID   { id := b.counts.Float; b.counts.Float++; return engine.RegID(id) }
func (b *FuncBuilder) Str() engine.RegID     { id := b.counts.Str; b.counts.Str++; return engine.RegID(id) }
func (b *FuncBuilder) MapII() engine.RegID   { id := b.counts.MapIntInt; b.counts.MapIntInt++; return engine.RegID(id) }
func (b *FuncBuilder) MapIF() engine.RegID   { id := b.counts.MapIntFloat; b.counts.MapIntFloat++; return engine.RegID(id) }
func (b *FuncBuilder) MapIS() engine.RegID   { id := b.counts.MapIntStr; b.counts.MapIntStr++; return engine.RegID(id) }
func (b *FuncBuilder) MapSI() engine.RegID   { id := b.counts.MapStrInt; b.counts.MapStrInt++; return engine.RegID(id) }
func (b *FuncBuilder) MapSF() engine.RegID   { id := b.counts.MapStrFloat; b.counts.MapStrFloat++; return engine.RegID(id) }
func (b *FuncBuilder) MapSS() engine.RegID   { id := b.counts.MapStrStr; b.counts.MapStrStr++; return engine.RegID(id) }
func (b *FuncBuilder) IterInt() engine.RegID { id := b.counts.IterInt; b.counts.IterInt++; return engine.RegID(id) }
func (b *FuncBuilder) IterStr() engine.RegID { id := b.counts.IterStr; b.counts.IterStr++; return engine.RegID(id) }

// bump raises ty's bank count so it covers id, for callers (the textual
// assembler) that parse a literal register number instead of allocating
// one through Int()/Float()/etc. Without this a hand-written register
// index higher than whatever the allocator methods happened to reach would
// build a Function whose RegCounts under-report the real frame size, and
// the interpreter's checkReg would panic with FaultRegisterOutOfRange the
// first time that register is touched.
func (b *FuncBuilder) bump(ty engine.Ty, id engine.RegID) {
	n := int(id) + 1
	switch ty {
	case engine.TyInt:
		if n > b.counts.Int {
			b.counts.Int = n
		}
	case engine.TyFloat:
		if n > b.counts.Float {
			b.counts.Float = n
		}
	case engine.TyStr:
		if n > b.counts.Str {
			b.counts.Str = n
		}
	case engine.TyMapIntInt:
		if n > b.counts.MapIntInt {
			b.counts.MapIntInt = n
		}
	case engine.TyMapIntFloat:
		if n > b.counts.MapIntFloat {
			b.counts.MapIntFloat = n
		}
	case engine.TyMapIntStr:
		if n > b.counts.MapIntStr {
			b.counts.MapIntStr = n
		}
	case engine.TyMapStrInt:
		if n > b.counts.MapStrInt {
			b.counts.MapStrInt = n
		}
	case engine.TyMapStrFloat:
		if n > b.counts.MapStrFloat {
			b.counts.MapStrFloat = n
		}
	case engine.TyMapStrStr:
		if n > b.counts.MapStrStr {
			b.counts.MapStrStr = n
		}
	case engine.TyIterInt:
		if n > b.counts.IterInt {
			b.counts.IterInt = n
		}
	case engine.TyIterStr:
		if n > b.counts.IterStr {
			b.counts.IterStr = n
		}
	default:
		panic(fmt.Sprintf("asm: no register bank for Ty %v", ty))
	}
}

// RegByTy allocates a register in the bank matching ty, for generic code
// (e.g. the textual assembler) that only knows a type tag at parse time.
func (b *FuncBuilder) RegByTy(ty engine.Ty) engine.RegID {
	switch ty {
	case engine.TyInt:
		return b.Int()
	case engine.TyFloat:
		return b.Float()
	case engine.TyStr:
		return b.Str()
	case engine.TyMapIntInt:
		return b.MapII()
	case engine.TyMapIntFloat:
		return b.MapIF()
	case engine.TyMapIntStr:
		return b.MapIS()
	case engine.TyMapStrInt:
		return b.MapSI()
	case engine.TyMapStrFloat:
		return b.MapSF()
	case engine.TyMapStrStr:
		return b.MapSS()
	case engine.TyIterInt:
		return b.IterInt()
	case engine.TyIterStr:
		return b.IterStr()
	default:
		panic(fmt.Sprintf("asm: no register bank for Ty %v", ty))
	}
}

// Emit appends a fully-formed instruction and returns its index, the
// escape hatch for opcodes this package has no named helper for --
// everything in the opaque built-in family (spec.md 1) goes through here.
func (b *FuncBuilder) Emit(instr engine.Instruction) int {
	b.instrs = append(b.instrs, instr)
	return len(b.instrs) - 1
}

func (b *FuncBuilder) Here() int { return len(b.instrs) }

// NewLabel allocates a label id with no instruction position yet, mirroring
// the teacher's preprocessLine label table: label names (here, small ints)
// are recorded before the code referencing them is necessarily resolved.
func (b *FuncBuilder) NewLabel() int {
	id := b.nextLabel
	b.nextLabel++
	b.labels[id] = -1
	return id
}

// Mark binds label to the next instruction that will be emitted.
func (b *FuncBuilder) Mark(label int) {
	b.labels[label] = len(b.instrs)
}

// Jmp/JmpIf emit control transfers to a possibly-not-yet-marked label,
// patched in Build once every label in the function has a position.
func (b *FuncBuilder) Jmp(label int) int {
	idx := b.Emit(engine.Instruction{Op: engine.OpJmp})
	b.pendingJmps = append(b.pendingJmps, pendingJump{idx, label})
	return idx
}

func (b *FuncBuilder) JmpIf(cond engine.RegID, label int) int {
	idx := b.Emit(engine.Instruction{Op: engine.OpJmpIf, A: cond})
	b.pendingJmps = append(b.pendingJmps, pendingJump{idx, label})
	return idx
}

// Call emits a call to a function that may be defined later in program
// order, or even later in the same source file the textual assembler
// reads; ProgramBuilder.Build resolves the name once every function has
// been registered, the same forward-reference tolerance vm/parse.go's
// label pass gives jumps.
func (b *FuncBuilder) Call(funcName string) int {
	idx := b.Emit(engine.Instruction{Op: engine.OpCall})
	b.pendingCall = append(b.pendingCall, pendingCall{idx, funcName})
	return idx
}

func (b *FuncBuilder) Ret() int { return b.Emit(engine.Instruction{Op: engine.OpRet}) }

// patchLabels resolves every pending Jmp/JmpIf's Label field. Called by
// ProgramBuilder.Build after the whole function body has been emitted.
func (b *FuncBuilder) patchLabels() error {
	for _, pj := range b.pendingJmps {
		pos, ok := b.labels[pj.label]
		if !ok || pos < 0 {
			return fmt.Errorf("asm: function %q: label %d never marked", b.name, pj.label)
		}
		b.instrs[pj.instrIdx].Label = engine.Label(pos)
	}
	return nil
}

func (b *FuncBuilder) build() *engine.Function {
	return &engine.Function{
		Name:      b.name,
		Instrs:    b.instrs,
		Registers: b.counts,
		NumParams: b.numParams,
	}
}

// ProgramBuilder collects FuncBuilders into one engine.Program, resolving
// cross-function Call references by name the way the teacher's assembler
// resolves jump labels: names exist in a table until the final assembly
// pass substitutes concrete indices.
type ProgramBuilder struct {
	funcs   []*FuncBuilder
	byName  map[string]int
}

func NewProgram() *ProgramBuilder {
	return &ProgramBuilder{byName: make(map[string]int)}
}

// AddFunc registers f under its own name and returns its eventual function
// index in the built Program.
func (p *ProgramBuilder) AddFunc(f *FuncBuilder) int {
	id := len(p.funcs)
	p.funcs = append(p.funcs, f)
	p.byName[f.name] = id
	return id
}

// Build resolves every label and call reference and returns the finished
// Program with entry set to the named function.
func (p *ProgramBuilder) Build(entry string) (*engine.Program, error) {
	entryID, ok := p.byName[entry]
	if !ok {
		return nil, fmt.Errorf("asm: entry function %q not defined", entry)
	}
	funcs := make([]*engine.Function, len(p.funcs))
	for i, fb := range p.funcs {
		if err := fb.patchLabels(); err != nil {
			return nil, err
		}
		for _, pc := range fb.pendingCall {
			callee, ok := p.byName[pc.name]
			if !ok {
				return nil, fmt.Errorf("asm: function %q: call to undefined function %q", fb.name, pc.name)
			}
			fb.instrs[pc.instrIdx].Func = callee
		}
		funcs[i] = fb.build()
	}
	return &engine.Program{Functions: funcs, Entry: entryID}, nil
}
