package engine

import "sort"

// Map aggregation opcodes (MapAsort/MapJoin/MapMax/MapMin/MapSum/MapMean/
// Uniq/Seq) fix their operand flavor to the "numbered array" map kinds
// (MapIntStr, MapIntFloat, and MapIntInt for Seq's output) since that's
// the shape AWK's split()/array-building idioms produce; spec.md's design notes don't enumerate
// every flavor x aggregation combination, so this package picks the
// combination the surface language's array-of-values idiom actually needs.

func (ip *Interpreter) execMapAsort(fr *frame, instr Instruction) {
	m := fr.MapIS(instr.A)
	vals := make([]string, 0, m.Len())
	for _, k := range m.Keys() {
		vals = append(vals, string(m.Lookup(k)))
	}
	sort.Strings(vals)
	out := AllocMap[Int, Str]()
	for i, v := range vals {
		out.Store(Int(i+1), Str(v))
	}
	fr.SetMapIS(instr.A, out)
	fr.SetInt(instr.Dst, Int(len(vals)))
}

func (ip *Interpreter) execMapJoin(fr *frame, instr Instruction) {
	m := fr.MapIS(instr.A)
	sep := string(fr.Str(instr.B))
	keys := m.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, string(m.Lookup(k)))
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	fr.SetStr(instr.Dst, Str(out))
}

func (ip *Interpreter) mapFloatValues(fr *frame, reg RegID) []Float {
	m := fr.MapIF(reg)
	out := make([]Float, 0, m.Len())
	for _, k := range m.Keys() {
		out = append(out, m.Lookup(k))
	}
	return out
}

func (ip *Interpreter) execMapMax(fr *frame, instr Instruction) {
	vals := ip.mapFloatValues(fr, instr.A)
	if len(vals) == 0 {
		fr.SetFloat(instr.Dst, 0)
		return
	}
	max := vals[0]
	for _, v := range vals[1:] {
		if v > max {
			max = v
		}
	}
	fr.SetFloat(instr.Dst, max)
}

func (ip *Interpreter) execMapMin(fr *frame, instr Instruction) {
	vals := ip.mapFloatValues(fr, instr.A)
	if len(vals) == 0 {
		fr.SetFloat(instr.Dst, 0)
		return
	}
	min := vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
	}
	fr.SetFloat(instr.Dst, min)
}

func (ip *Interpreter) execMapSum(fr *frame, instr Instruction) {
	var sum Float
	for _, v := range ip.mapFloatValues(fr, instr.A) {
		sum += v
	}
	fr.SetFloat(instr.Dst, sum)
}

func (ip *Interpreter) execMapMean(fr *frame, instr Instruction) {
	vals := ip.mapFloatValues(fr, instr.A)
	if len(vals) == 0 {
		fr.SetFloat(instr.Dst, 0)
		return
	}
	var sum Float
	for _, v := range vals {
		sum += v
	}
	fr.SetFloat(instr.Dst, sum/Float(len(vals)))
}

func (ip *Interpreter) execUniq(fr *frame, instr Instruction) {
	m := fr.MapIS(instr.A)
	keys := m.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	seen := make(map[Str]bool, len(keys))
	out := AllocMap[Int, Str]()
	n := Int(0)
	for _, k := range keys {
		v := m.Lookup(k)
		if seen[v] {
			continue
		}
		seen[v] = true
		n++
		out.Store(n, v)
	}
	fr.SetMapIS(instr.Dst, out)
}

func (ip *Interpreter) execSeq(fr *frame, instr Instruction) {
	start, end := fr.Int(instr.A), fr.Int(instr.B)
	out := AllocMap[Int, Int]()
	idx := Int(1)
	if start <= end {
		for v := start; v <= end; v++ {
			out.Store(idx, v)
			idx++
		}
	} else {
		for v := start; v >= end; v-- {
			out.Store(idx, v)
			idx++
		}
	}
	fr.SetMapII(instr.Dst, out)
}
