package engine

// loadVarStr/storeVarStr/loadVarInt/storeVarInt implement LoadVarX/StoreVarX
// over the special AWK variables, per spec.md 3 "Fields" and 4.1. NF is
// read from and written to the Fields engine; FS/OFS are read from
// specialVars and, when stored, update both specialVars and Fields, since
// splitting behavior depends on them directly; the rest read/write
// specialVars.
func (ip *Interpreter) loadVarStr(v Variable) Str {
	switch v {
	case VarFS:
		return Str(ip.vars.fsText)
	case VarOFS:
		return Str(ip.vars.ofsText)
	case VarORS:
		return Str(ip.vars.ors)
	case VarRS:
		return Str(ip.vars.rs)
	case VarFILENAME:
		return ip.vars.filename
	case VarSUBSEP:
		return ip.vars.subsep
	default:
		return ""
	}
}

func (ip *Interpreter) storeVarStr(v Variable, val Str) {
	switch v {
	case VarFS:
		ip.vars.fsText = string(val)
		ip.fields.SetFS(ParseFS(string(val), ip.regex))
	case VarOFS:
		ip.vars.ofsText = string(val)
		ip.fields.SetOFS(string(val))
	case VarORS:
		ip.vars.ors = string(val)
	case VarRS:
		ip.vars.rs = string(val)
	case VarFILENAME:
		ip.vars.filename = val
	case VarSUBSEP:
		ip.vars.subsep = val
	}
}

func (ip *Interpreter) loadVarInt(v Variable) Int {
	switch v {
	case VarNF:
		return Int(ip.fields.NF())
	case VarNR:
		return ip.vars.nr
	case VarFNR:
		return ip.vars.fnr
	case VarRSTART:
		return ip.vars.rstart
	case VarRLENGTH:
		return ip.vars.rlength
	case VarFI:
		return ip.vars.fi
	case VarARGC:
		return ip.vars.argc
	default:
		return 0
	}
}

func (ip *Interpreter) storeVarInt(v Variable, val Int) {
	switch v {
	case VarNF:
		ip.fields.SetNF(int(val))
	case VarNR:
		ip.vars.nr = val
	case VarFNR:
		ip.vars.fnr = val
	case VarRSTART:
		ip.vars.rstart = val
	case VarRLENGTH:
		ip.vars.rlength = val
	case VarFI:
		ip.vars.fi = val
	case VarARGC:
		ip.vars.argc = val
	}
}

// execLoadSlot/execStoreSlot dispatch LoadSlot/StoreSlot to the per-function
// slot bank, per spec.md 4.1 "Variables and slots": persistent storage for
// the active function's own invocation-independent state. instr.ImmInt
// carries the slot index; instr.Ty selects which bank.
func (ip *Interpreter) execLoadSlot(fr *frame, instr Instruction) {
	fn := ip.curFn
	slot := int(instr.ImmInt)
	switch instr.Ty {
	case TyInt:
		fr.SetInt(instr.Dst, ip.slots.loadInt(fn, slot))
	case TyFloat:
		fr.SetFloat(instr.Dst, ip.slots.loadFloat(fn, slot))
	case TyStr:
		fr.SetStr(instr.Dst, ip.slots.loadStr(fn, slot))
	default:
		ip.fault(FaultTypeMismatch, instr, "LoadSlot over unsupported Ty")
	}
}

func (ip *Interpreter) execStoreSlot(fr *frame, instr Instruction) {
	fn := ip.curFn
	slot := int(instr.ImmInt)
	switch instr.Ty {
	case TyInt:
		ip.slots.storeInt(fn, slot, fr.Int(instr.A))
	case TyFloat:
		ip.slots.storeFloat(fn, slot, fr.Float(instr.A))
	case TyStr:
		ip.slots.storeStr(fn, slot, fr.Str(instr.A))
	default:
		ip.fault(FaultTypeMismatch, instr, "StoreSlot over unsupported Ty")
	}
}
