package engine

import "fmt"

// Ty is the static type tag attached to a register bank. The front-end has
// already inferred types (spec.md "Design Notes"), so the interpreter never
// dispatches on a boxed value's runtime shape -- every register lives in the
// bank matching its declared Ty, the same split-by-type-bank idea the
// teacher VM uses for its general-purpose vs. special vs. program-counter
// registers, just generalized to more than one primitive width.
type Ty byte

const (
	TyInt Ty = iota
	TyFloat
	TyStr
	TyMapIntInt
	TyMapIntFloat
	TyMapIntStr
	TyMapStrInt
	TyMapStrFloat
	TyMapStrStr
	TyIterInt
	TyIterStr
)

func (t Ty) String() string {
	switch t {
	case TyInt:
		return "int"
	case TyFloat:
		return "float"
	case TyStr:
		return "str"
	case TyMapIntInt:
		return "map[int]int"
	case TyMapIntFloat:
		return "map[int]float"
	case TyMapIntStr:
		return "map[int]str"
	case TyMapStrInt:
		return "map[str]int"
	case TyMapStrFloat:
		return "map[str]float"
	case TyMapStrStr:
		return "map[str]str"
	case TyIterInt:
		return "iter[int]"
	case TyIterStr:
		return "iter[str]"
	default:
		return "?ty?"
	}
}

// RegID is a small-integer index into one of a frame's type-partitioned
// register banks.
type RegID uint32

// UNUSED must never appear at runtime: emitting it is a compile error in
// the front-end, and observing it during dispatch is a fatal engine fault
// (spec.md 3, 7).
const UNUSED RegID = 0xFFFFFFFF

// NullReg is index 0, which every bank is sized to include (see max1) even
// when a function declares no registers of that type. It is an ordinary
// register: programs may store to it, so it holds the bank's zero value
// (0, 0.0, "", an unallocated map handle that reads as empty, an empty
// iterator) only until the first store.
const NullReg RegID = 0

// RegCounts declares, per function, how many registers each bank needs.
// Mirrors the teacher's per-function "register counts" concept generalized
// from one flat array of 32 words to one count per Ty.
type RegCounts struct {
	Int, Float, Str                                     int
	MapIntInt, MapIntFloat, MapIntStr                   int
	MapStrInt, MapStrFloat, MapStrStr                   int
	IterInt, IterStr                                    int
}

// frame holds the live register banks for one function activation. Banks
// are zeroed at frame entry (scalars default-initialized, maps left as the
// zero Map value until AllocMap or a passed-in handle populates them) and
// discarded at Ret, per spec.md's lifecycle section.
type frame struct {
	ints   []Int
	floats []Float
	strs   []Str

	mapII []Map[Int, Int]
	mapIF []Map[Int, Float]
	mapIS []Map[Int, Str]
	mapSI []Map[Str, Int]
	mapSF []Map[Str, Float]
	mapSS []Map[Str, Str]

	iterInt []Iterator[Int]
	iterStr []Iterator[Str]

	fn *Function
	pc int
}

func newFrame(fn *Function) *frame {
	c := fn.Registers
	return &frame{
		ints:    make([]Int, max1(c.Int)),
		floats:  make([]Float, max1(c.Float)),
		strs:    make([]Str, max1(c.Str)),
		mapII:   make([]Map[Int, Int], max1(c.MapIntInt)),
		mapIF:   make([]Map[Int, Float], max1(c.MapIntFloat)),
		mapIS:   make([]Map[Int, Str], max1(c.MapIntStr)),
		mapSI:   make([]Map[Str, Int], max1(c.MapStrInt)),
		mapSF:   make([]Map[Str, Float], max1(c.MapStrFloat)),
		mapSS:   make([]Map[Str, Str], max1(c.MapStrStr)),
		iterInt: make([]Iterator[Int], max1(c.IterInt)),
		iterStr: make([]Iterator[Str], max1(c.IterStr)),
		fn:      fn,
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// checkReg is the bytecode-shape guard named in spec.md 7: a register ID of
// UNUSED observed at runtime, or an index out of range for its bank's
// declared count, is a fatal engine fault naming the offending function,
// the PC of the executing instruction, and the register's bank type; this
// guard does not record the opcode.
func (f *frame) checkReg(id RegID, bankLen int, ty Ty) {
	if id == UNUSED {
		panic(&FaultError{Kind: FaultUnusedRegister, Func: f.fn.Name, PC: f.pc - 1, Ty: ty})
	}
	if int(id) >= bankLen {
		panic(&FaultError{Kind: FaultRegisterOutOfRange, Func: f.fn.Name, PC: f.pc - 1, Ty: ty,
			Detail: fmt.Sprintf("register %d out of range for bank of size %d", id, bankLen)})
	}
}

func (f *frame) Int(id RegID) Int        { f.checkReg(id, len(f.ints), TyInt); return f.ints[id] }
func (f *frame) SetInt(id RegID, v Int)  { f.checkReg(id, len(f.ints), TyInt); f.ints[id] = v }
func (f *frame) Float(id RegID) Float    { f.checkReg(id, len(f.floats), TyFloat); return f.floats[id] }
func (f *frame) SetFloat(id RegID, v Float) {
	f.checkReg(id, len(f.floats), TyFloat)
	f.floats[id] = v
}
func (f *frame) Str(id RegID) Str       { f.checkReg(id, len(f.strs), TyStr); return f.strs[id] }
func (f *frame) SetStr(id RegID, v Str) { f.checkReg(id, len(f.strs), TyStr); f.strs[id] = v }

func (f *frame) MapII(id RegID) Map[Int, Int] {
	f.checkReg(id, len(f.mapII), TyMapIntInt)
	return f.mapII[id]
}
func (f *frame) SetMapII(id RegID, m Map[Int, Int]) {
	f.checkReg(id, len(f.mapII), TyMapIntInt)
	f.mapII[id] = m
}
func (f *frame) MapIF(id RegID) Map[Int, Float] {
	f.checkReg(id, len(f.mapIF), TyMapIntFloat)
	return f.mapIF[id]
}
func (f *frame) SetMapIF(id RegID, m Map[Int, Float]) {
	f.checkReg(id, len(f.mapIF), TyMapIntFloat)
	f.mapIF[id] = m
}
func (f *frame) MapIS(id RegID) Map[Int, Str] {
	f.checkReg(id, len(f.mapIS), TyMapIntStr)
	return f.mapIS[id]
}
func (f *frame) SetMapIS(id RegID, m Map[Int, Str]) {
	f.checkReg(id, len(f.mapIS), TyMapIntStr)
	f.mapIS[id] = m
}
func (f *frame) MapSI(id RegID) Map[Str, Int] {
	f.checkReg(id, len(f.mapSI), TyMapStrInt)
	return f.mapSI[id]
}
func (f *frame) SetMapSI(id RegID, m Map[Str, Int]) {
	f.checkReg(id, len(f.mapSI), TyMapStrInt)
	f.mapSI[id] = m
}
func (f *frame) MapSF(id RegID) Map[Str, Float] {
	f.checkReg(id, len(f.mapSF), TyMapStrFloat)
	return f.mapSF[id]
}
func (f *frame) SetMapSF(id RegID, m Map[Str, Float]) {
	f.checkReg(id, len(f.mapSF), TyMapStrFloat)
	f.mapSF[id] = m
}
func (f *frame) MapSS(id RegID) Map[Str, Str] {
	f.checkReg(id, len(f.mapSS), TyMapStrStr)
	return f.mapSS[id]
}
func (f *frame) SetMapSS(id RegID, m Map[Str, Str]) {
	f.checkReg(id, len(f.mapSS), TyMapStrStr)
	f.mapSS[id] = m
}

func (f *frame) IterInt(id RegID) Iterator[Int] {
	f.checkReg(id, len(f.iterInt), TyIterInt)
	return f.iterInt[id]
}
func (f *frame) SetIterInt(id RegID, it Iterator[Int]) {
	f.checkReg(id, len(f.iterInt), TyIterInt)
	f.iterInt[id] = it
}
func (f *frame) IterStr(id RegID) Iterator[Str] {
	f.checkReg(id, len(f.iterStr), TyIterStr)
	return f.iterStr[id]
}
func (f *frame) SetIterStr(id RegID, it Iterator[Str]) {
	f.checkReg(id, len(f.iterStr), TyIterStr)
	f.iterStr[id] = it
}
