package engine

// execMapOp dispatches the six map-flavor-polymorphic opcodes plus the
// iterator pair. Ty on the instruction names the live flavor instead of a
// separate opcode per flavor x operation (36 combinations), matching
// spec.md 4.4's framing of these as "six concrete flavors" of one family
// rather than thirty-six independent operations.
func (ip *Interpreter) execMapOp(fr *frame, instr Instruction) {
	switch instr.Op {
	case OpIterBegin:
		ip.execIterBegin(fr, instr)
		return
	case OpIterHasNext:
		ip.execIterHasNext(fr, instr)
		return
	case OpIterGetNext:
		ip.execIterGetNext(fr, instr)
		return
	}

	switch instr.Ty {
	case TyMapIntInt:
		ip.execMapIntInt(fr, instr)
	case TyMapIntFloat:
		ip.execMapIntFloat(fr, instr)
	case TyMapIntStr:
		ip.execMapIntStr(fr, instr)
	case TyMapStrInt:
		ip.execMapStrInt(fr, instr)
	case TyMapStrFloat:
		ip.execMapStrFloat(fr, instr)
	case TyMapStrStr:
		ip.execMapStrStr(fr, instr)
	default:
		ip.fault(FaultTypeMismatch, instr, "map op over unsupported Ty")
	}
}

// mapEmpty reports whether the map named by instr.A (in the bank instr.Ty
// selects) currently has zero entries, backing the IsArrayTrue/IsArrayFalse
// predicates in strfuncs.go.
func (ip *Interpreter) mapEmpty(fr *frame, instr Instruction) bool {
	switch instr.Ty {
	case TyMapIntInt:
		return fr.MapII(instr.A).Len() == 0
	case TyMapIntFloat:
		return fr.MapIF(instr.A).Len() == 0
	case TyMapIntStr:
		return fr.MapIS(instr.A).Len() == 0
	case TyMapStrInt:
		return fr.MapSI(instr.A).Len() == 0
	case TyMapStrFloat:
		return fr.MapSF(instr.A).Len() == 0
	case TyMapStrStr:
		return fr.MapSS(instr.A).Len() == 0
	default:
		ip.fault(FaultTypeMismatch, instr, "is_array_true/false over unsupported Ty")
		return true
	}
}

func (ip *Interpreter) execMapIntInt(fr *frame, instr Instruction) {
	m := fr.MapII(instr.A)
	switch instr.Op {
	case OpLookup:
		fr.SetInt(instr.Dst, m.Lookup(fr.Int(instr.B)))
	case OpContains:
		fr.SetInt(instr.Dst, boolInt(m.Contains(fr.Int(instr.B))))
	case OpDelete:
		m.Delete(fr.Int(instr.B))
	case OpClear:
		m.Clear()
	case OpLen:
		fr.SetInt(instr.Dst, Int(m.Len()))
	case OpStore:
		m.Store(fr.Int(instr.B), fr.Int(instr.C))
	case OpIncInt:
		fr.SetInt(instr.Dst, IncIntMap(&m, fr.Int(instr.B), ip.incByInt(fr, instr)))
	}
}

func (ip *Interpreter) execMapIntFloat(fr *frame, instr Instruction) {
	m := fr.MapIF(instr.A)
	switch instr.Op {
	case OpLookup:
		fr.SetFloat(instr.Dst, m.Lookup(fr.Int(instr.B)))
	case OpContains:
		fr.SetInt(instr.Dst, boolInt(m.Contains(fr.Int(instr.B))))
	case OpDelete:
		m.Delete(fr.Int(instr.B))
	case OpClear:
		m.Clear()
	case OpLen:
		fr.SetInt(instr.Dst, Int(m.Len()))
	case OpStore:
		m.Store(fr.Int(instr.B), fr.Float(instr.C))
	case OpIncFloat:
		fr.SetFloat(instr.Dst, IncFloatMap(&m, fr.Int(instr.B), ip.incByFloat(fr, instr)))
	}
}

func (ip *Interpreter) execMapIntStr(fr *frame, instr Instruction) {
	m := fr.MapIS(instr.A)
	switch instr.Op {
	case OpLookup:
		fr.SetStr(instr.Dst, m.Lookup(fr.Int(instr.B)))
	case OpContains:
		fr.SetInt(instr.Dst, boolInt(m.Contains(fr.Int(instr.B))))
	case OpDelete:
		m.Delete(fr.Int(instr.B))
	case OpClear:
		m.Clear()
	case OpLen:
		fr.SetInt(instr.Dst, Int(m.Len()))
	case OpStore:
		m.Store(fr.Int(instr.B), fr.Str(instr.C))
	}
}

func (ip *Interpreter) execMapStrInt(fr *frame, instr Instruction) {
	m := fr.MapSI(instr.A)
	switch instr.Op {
	case OpLookup:
		fr.SetInt(instr.Dst, m.Lookup(fr.Str(instr.B)))
	case OpContains:
		fr.SetInt(instr.Dst, boolInt(m.Contains(fr.Str(instr.B))))
	case OpDelete:
		m.Delete(fr.Str(instr.B))
	case OpClear:
		m.Clear()
	case OpLen:
		fr.SetInt(instr.Dst, Int(m.Len()))
	case OpStore:
		m.Store(fr.Str(instr.B), fr.Int(instr.C))
	case OpIncInt:
		fr.SetInt(instr.Dst, IncIntMap(&m, fr.Str(instr.B), ip.incByInt(fr, instr)))
	}
}

func (ip *Interpreter) execMapStrFloat(fr *frame, instr Instruction) {
	m := fr.MapSF(instr.A)
	switch instr.Op {
	case OpLookup:
		fr.SetFloat(instr.Dst, m.Lookup(fr.Str(instr.B)))
	case OpContains:
		fr.SetInt(instr.Dst, boolInt(m.Contains(fr.Str(instr.B))))
	case OpDelete:
		m.Delete(fr.Str(instr.B))
	case OpClear:
		m.Clear()
	case OpLen:
		fr.SetInt(instr.Dst, Int(m.Len()))
	case OpStore:
		m.Store(fr.Str(instr.B), fr.Float(instr.C))
	case OpIncFloat:
		fr.SetFloat(instr.Dst, IncFloatMap(&m, fr.Str(instr.B), ip.incByFloat(fr, instr)))
	}
}

func (ip *Interpreter) execMapStrStr(fr *frame, instr Instruction) {
	m := fr.MapSS(instr.A)
	switch instr.Op {
	case OpLookup:
		fr.SetStr(instr.Dst, m.Lookup(fr.Str(instr.B)))
	case OpContains:
		fr.SetInt(instr.Dst, boolInt(m.Contains(fr.Str(instr.B))))
	case OpDelete:
		m.Delete(fr.Str(instr.B))
	case OpClear:
		m.Clear()
	case OpLen:
		fr.SetInt(instr.Dst, Int(m.Len()))
	case OpStore:
		m.Store(fr.Str(instr.B), fr.Str(instr.C))
	}
}

// incByInt/incByFloat read the increment amount from register C when
// present, falling back to the folded immediate otherwise (see
// Instruction.ImmInt2's doc comment).
func (ip *Interpreter) incByInt(fr *frame, instr Instruction) Int {
	if instr.C != UNUSED {
		return fr.Int(instr.C)
	}
	return instr.ImmInt2
}

func (ip *Interpreter) incByFloat(fr *frame, instr Instruction) Float {
	if instr.C != UNUSED {
		return fr.Float(instr.C)
	}
	return instr.ImmFloat
}

// execIterBegin snapshots a map's current key set, per spec.md 3 invariant
// 2 and 9 "Iterator snapshots": independent of subsequent mutation.
func (ip *Interpreter) execIterBegin(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyMapIntInt:
		fr.SetIterInt(instr.Dst, NewIterator(fr.MapII(instr.A).Keys()))
	case TyMapIntFloat:
		fr.SetIterInt(instr.Dst, NewIterator(fr.MapIF(instr.A).Keys()))
	case TyMapIntStr:
		fr.SetIterInt(instr.Dst, NewIterator(fr.MapIS(instr.A).Keys()))
	case TyMapStrInt:
		fr.SetIterStr(instr.Dst, NewIterator(fr.MapSI(instr.A).Keys()))
	case TyMapStrFloat:
		fr.SetIterStr(instr.Dst, NewIterator(fr.MapSF(instr.A).Keys()))
	case TyMapStrStr:
		fr.SetIterStr(instr.Dst, NewIterator(fr.MapSS(instr.A).Keys()))
	default:
		ip.fault(FaultTypeMismatch, instr, "IterBegin over unsupported Ty")
	}
}

func (ip *Interpreter) execIterHasNext(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyIterInt:
		fr.SetInt(instr.Dst, boolInt(fr.IterInt(instr.A).HasNext()))
	case TyIterStr:
		fr.SetInt(instr.Dst, boolInt(fr.IterStr(instr.A).HasNext()))
	default:
		ip.fault(FaultTypeMismatch, instr, "IterHasNext over unsupported Ty")
	}
}

func (ip *Interpreter) execIterGetNext(fr *frame, instr Instruction) {
	switch instr.Ty {
	case TyIterInt:
		it := fr.IterInt(instr.A)
		fr.SetInt(instr.Dst, it.GetNext())
		fr.SetIterInt(instr.A, it)
	case TyIterStr:
		it := fr.IterStr(instr.A)
		fr.SetStr(instr.Dst, it.GetNext())
		fr.SetIterStr(instr.A, it)
	default:
		ip.fault(FaultTypeMismatch, instr, "IterGetNext over unsupported Ty")
	}
}
