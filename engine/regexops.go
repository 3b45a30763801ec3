package engine

import "strings"

// execDynMatch implements Match/IsMatch: pattern is a runtime string,
// resolved through the shared RegexCache (spec.md 4.5). Match additionally
// sets RSTART/RLENGTH the way AWK's match() built-in does.
func (ip *Interpreter) execDynMatch(fr *frame, instr Instruction) {
	re, err := ip.regex.Compile(string(fr.Str(instr.B)))
	if err != nil {
		if ip.cfg.RegexCompileFatal {
			ip.fault(FaultTypeMismatch, instr, err.Error())
		}
		fr.SetInt(instr.Dst, 0)
		return
	}
	ip.finishMatch(fr, instr, re, instr.Op == OpMatch)
}

// execConstMatch implements MatchConst/IsMatchConst against a pattern
// precompiled at assembly time (instr.ConstRegex), per spec.md invariant 5.
func (ip *Interpreter) execConstMatch(fr *frame, instr Instruction) {
	ip.finishMatch(fr, instr, instr.ConstRegex, instr.Op == OpMatchConst)
}

func (ip *Interpreter) finishMatch(fr *frame, instr Instruction, re interface {
	FindStringIndex(string) []int
}, setRstart bool) {
	loc := re.FindStringIndex(string(fr.Str(instr.A)))
	if loc == nil {
		fr.SetInt(instr.Dst, 0)
		if setRstart {
			ip.vars.rstart = 0
			ip.vars.rlength = -1
		}
		return
	}
	if setRstart {
		ip.vars.rstart = Int(loc[0] + 1)
		ip.vars.rlength = Int(loc[1] - loc[0])
		fr.SetInt(instr.Dst, ip.vars.rstart)
	} else {
		fr.SetInt(instr.Dst, 1)
	}
}

// execSub implements Sub/GSub: Dst receives the replacement count, A names
// the dynamic pattern, B the replacement text, C the target register whose
// string value is read and overwritten in place -- the one place in this
// ISA where an instruction both reads and rewrites the same operand slot,
// matching AWK's sub()/gsub() semantics of mutating their target argument.
func (ip *Interpreter) execSub(fr *frame, instr Instruction, global bool) {
	re, err := ip.regex.Compile(string(fr.Str(instr.A)))
	if err != nil {
		if ip.cfg.RegexCompileFatal {
			ip.fault(FaultTypeMismatch, instr, err.Error())
		}
		fr.SetInt(instr.Dst, 0)
		return
	}
	target := string(fr.Str(instr.C))
	repl := string(fr.Str(instr.B))
	count := 0
	out := re.ReplaceAllStringFunc(target, func(m string) string {
		if !global && count >= 1 {
			return m
		}
		count++
		return expandAmp(repl, m)
	})
	fr.SetInt(instr.Dst, Int(count))
	fr.SetStr(instr.C, Str(out))
}

// expandAmp implements AWK's sub/gsub `&` convention: an unescaped `&` in
// the replacement is replaced with the matched text, `\&` yields a literal
// `&`.
func expandAmp(repl, matched string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		switch {
		case repl[i] == '\\' && i+1 < len(repl) && repl[i+1] == '&':
			b.WriteByte('&')
			i++
		case repl[i] == '&':
			b.WriteString(matched)
		default:
			b.WriteByte(repl[i])
		}
	}
	return b.String()
}

// execGenSub implements gensub-style substitution: like Sub/GSub but
// returns the transformed string in Dst rather than mutating the target in
// place, leaving C untouched (spec.md's Supplemented Features, grounded in
// frawk's gensub wrapper over the same regex machinery as sub/gsub).
func (ip *Interpreter) execGenSub(fr *frame, instr Instruction) {
	re, err := ip.regex.Compile(string(fr.Str(instr.A)))
	if err != nil {
		if ip.cfg.RegexCompileFatal {
			ip.fault(FaultTypeMismatch, instr, err.Error())
		}
		fr.SetStr(instr.Dst, fr.Str(instr.C))
		return
	}
	repl := string(fr.Str(instr.B))
	out := re.ReplaceAllStringFunc(string(fr.Str(instr.C)), func(m string) string {
		return expandAmp(repl, m)
	})
	fr.SetStr(instr.Dst, Str(out))
}

// execSplitInt implements the byte/whitespace fast path: B holds a literal
// single-byte separator, or empty for whitespace-collapsing mode.
func (ip *Interpreter) execSplitInt(fr *frame, instr Instruction) {
	sep := string(fr.Str(instr.B))
	var parts []string
	if sep == "" || sep == " " {
		parts = strings.Fields(string(fr.Str(instr.A)))
	} else {
		parts = strings.Split(string(fr.Str(instr.A)), sep)
	}
	m := indexedMap(parts)
	fr.SetMapIS(instr.C, m)
	fr.SetInt(instr.Dst, Int(len(parts)))
}

// execSplitStr implements the regex-FS path: B holds a dynamic pattern.
func (ip *Interpreter) execSplitStr(fr *frame, instr Instruction) {
	re, err := ip.regex.Compile(string(fr.Str(instr.B)))
	if err != nil {
		if ip.cfg.RegexCompileFatal {
			ip.fault(FaultTypeMismatch, instr, err.Error())
		}
		fr.SetInt(instr.Dst, 0)
		return
	}
	parts := re.Split(string(fr.Str(instr.A)), -1)
	m := indexedMap(parts)
	fr.SetMapIS(instr.C, m)
	fr.SetInt(instr.Dst, Int(len(parts)))
}
