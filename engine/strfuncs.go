package engine

import (
	"strconv"
	"strings"
	"unicode"
)

// tryStringOp handles the string-transform family (spec.md's "String"
// instruction group): pure text manipulation with no third-party
// dependency, so it stays in the dense switch rather than routing through
// the opaque builtin registry. Returns false for any opcode it doesn't
// recognize so the caller can fall through to the builtin table.
func (ip *Interpreter) tryStringOp(fr *frame, instr Instruction) bool {
	switch instr.Op {
	case OpChars:
		m := AllocMap[Int, Str]()
		i := Int(1)
		for _, r := range string(fr.Str(instr.A)) {
			m.Store(i, Str(string(r)))
			i++
		}
		fr.SetMapIS(instr.Dst, m)
	case OpToUpperAscii:
		fr.SetStr(instr.Dst, Str(strings.ToUpper(string(fr.Str(instr.A)))))
	case OpToLowerAscii:
		fr.SetStr(instr.Dst, Str(strings.ToLower(string(fr.Str(instr.A)))))
	case OpPadLeft:
		fr.SetStr(instr.Dst, pad(fr.Str(instr.A), int(fr.Int(instr.B)), fr.Str(instr.C), true, false))
	case OpPadRight:
		fr.SetStr(instr.Dst, pad(fr.Str(instr.A), int(fr.Int(instr.B)), fr.Str(instr.C), false, true))
	case OpPadBoth:
		fr.SetStr(instr.Dst, pad(fr.Str(instr.A), int(fr.Int(instr.B)), fr.Str(instr.C), true, true))
	case OpTruncate:
		fr.SetStr(instr.Dst, truncate(fr.Str(instr.A), int(fr.Int(instr.B))))
	case OpTrim:
		fr.SetStr(instr.Dst, Str(strings.Trim(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
	case OpEscape:
		fr.SetStr(instr.Dst, Str(strconv.Quote(string(fr.Str(instr.A)))))
	case OpEscapeCSV:
		fr.SetStr(instr.Dst, escapeCSV(fr.Str(instr.A)))
	case OpEscapeTSV:
		fr.SetStr(instr.Dst, Str(strings.NewReplacer("\t", "\\t", "\n", "\\n").Replace(string(fr.Str(instr.A)))))
	case OpRepeat:
		n := int(fr.Int(instr.B))
		if n < 0 {
			n = 0
		}
		fr.SetStr(instr.Dst, Str(strings.Repeat(string(fr.Str(instr.A)), n)))
	case OpWords:
		fr.SetMapIS(instr.Dst, indexedMap(strings.Fields(string(fr.Str(instr.A)))))
	case OpLines:
		fr.SetMapIS(instr.Dst, indexedMap(strings.Split(string(fr.Str(instr.A)), "\n")))
	case OpStartsWith:
		fr.SetInt(instr.Dst, boolInt(strings.HasPrefix(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
	case OpStartsWithConst:
		fr.SetInt(instr.Dst, boolInt(strings.HasPrefix(string(fr.Str(instr.A)), instr.ImmStr)))
	case OpEndsWith:
		fr.SetInt(instr.Dst, boolInt(strings.HasSuffix(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
	case OpTextContains:
		fr.SetInt(instr.Dst, boolInt(strings.Contains(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
	case OpQuote:
		fr.SetStr(instr.Dst, Str("'"+strings.ReplaceAll(string(fr.Str(instr.A)), "'", `'\''`)+"'"))
	case OpDoubleQuote:
		fr.SetStr(instr.Dst, Str(strconv.Quote(string(fr.Str(instr.A)))))
	case OpCapitalize:
		fr.SetStr(instr.Dst, capitalize(fr.Str(instr.A)))
	case OpUnCapitalize:
		fr.SetStr(instr.Dst, uncapitalize(fr.Str(instr.A)))
	case OpCamelCase:
		fr.SetStr(instr.Dst, Str(toCamelCase(string(fr.Str(instr.A)))))
	case OpKebabCase:
		fr.SetStr(instr.Dst, Str(toDelimitedCase(string(fr.Str(instr.A)), '-')))
	case OpSnakeCase:
		fr.SetStr(instr.Dst, Str(toDelimitedCase(string(fr.Str(instr.A)), '_')))
	case OpTitleCase:
		fr.SetStr(instr.Dst, Str(strings.Title(strings.ToLower(string(fr.Str(instr.A))))))
	case OpFiglet:
		fr.SetStr(instr.Dst, fr.Str(instr.A)) // no ASCII-art font bundled; passthrough
	case OpMask:
		fr.SetStr(instr.Dst, maskMiddle(fr.Str(instr.A)))
	case OpDefaultIfEmpty:
		if fr.Str(instr.A) == "" {
			fr.SetStr(instr.Dst, fr.Str(instr.B))
		} else {
			fr.SetStr(instr.Dst, fr.Str(instr.A))
		}
	case OpAppendIfMissing:
		s, suf := fr.Str(instr.A), fr.Str(instr.B)
		if strings.HasSuffix(string(s), string(suf)) {
			fr.SetStr(instr.Dst, s)
		} else {
			fr.SetStr(instr.Dst, s+suf)
		}
	case OpPrependIfMissing:
		s, pre := fr.Str(instr.A), fr.Str(instr.B)
		if strings.HasPrefix(string(s), string(pre)) {
			fr.SetStr(instr.Dst, s)
		} else {
			fr.SetStr(instr.Dst, pre+s)
		}
	case OpRemoveIfEnd:
		fr.SetStr(instr.Dst, Str(strings.TrimSuffix(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
	case OpRemoveIfBegin:
		fr.SetStr(instr.Dst, Str(strings.TrimPrefix(string(fr.Str(instr.A)), string(fr.Str(instr.B)))))
	case OpLastPart:
		parts := strings.Split(string(fr.Str(instr.A)), string(fr.Str(instr.B)))
		fr.SetStr(instr.Dst, Str(parts[len(parts)-1]))
	case OpSubstrIndex:
		fr.SetStr(instr.Dst, substrIndex(fr.Str(instr.A), fr.Str(instr.B), true))
	case OpSubstrLastIndex:
		fr.SetStr(instr.Dst, substrIndex(fr.Str(instr.A), fr.Str(instr.B), false))

	case OpStrtonum:
		fr.SetFloat(instr.Dst, strToFloatLenient(fr.Str(instr.A)))
	case OpMkBool:
		fr.SetInt(instr.Dst, boolInt(fr.Str(instr.A) != "" && fr.Str(instr.A) != "0"))
	case OpToBytes:
		fr.SetInt(instr.Dst, Int(len(fr.Str(instr.A))))
	case OpFormatBytes:
		fr.SetStr(instr.Dst, formatBytes(fr.Int(instr.A)))

	case OpTypeOfArray:
		fr.SetStr(instr.Dst, "array")
	case OpTypeOfNumber:
		fr.SetStr(instr.Dst, "number")
	case OpTypeOfString:
		fr.SetStr(instr.Dst, "string")
	case OpTypeOfUnassigned:
		fr.SetStr(instr.Dst, "unassigned")
	case OpIsStrInt:
		fr.SetInt(instr.Dst, boolInt(IsStrInt(fr.Str(instr.A))))
	case OpIsStrNum:
		fr.SetInt(instr.Dst, boolInt(IsStrNum(fr.Str(instr.A))))
	case OpIsFormat:
		fr.SetInt(instr.Dst, boolInt(isFormat(fr.Str(instr.A), fr.Str(instr.B))))
	case OpIsIntTrue:
		fr.SetInt(instr.Dst, boolInt(IsIntTrue(fr.Int(instr.A))))
	case OpIsIntFalse:
		fr.SetInt(instr.Dst, boolInt(IsIntFalse(fr.Int(instr.A))))
	case OpIsNumTrue:
		fr.SetInt(instr.Dst, boolInt(IsNumTrue(fr.Float(instr.A))))
	case OpIsNumFalse:
		fr.SetInt(instr.Dst, boolInt(IsNumFalse(fr.Float(instr.A))))
	case OpIsArrayTrue:
		fr.SetInt(instr.Dst, boolInt(IsArrayTrue(ip.mapEmpty(fr, instr))))
	case OpIsArrayFalse:
		fr.SetInt(instr.Dst, boolInt(IsArrayFalse(ip.mapEmpty(fr, instr))))

	case OpMin:
		fr.SetStr(instr.Dst, minMax3(fr.Str(instr.A), fr.Str(instr.B), fr.Str(instr.C), true))
	case OpMax:
		fr.SetStr(instr.Dst, minMax3(fr.Str(instr.A), fr.Str(instr.B), fr.Str(instr.C), false))

	default:
		return false
	}
	return true
}

func pad(s Str, width int, fill Str, left, right bool) Str {
	if fill == "" {
		fill = " "
	}
	need := width - len([]rune(string(s)))
	if need <= 0 {
		return s
	}
	if left && right {
		l := need / 2
		r := need - l
		return repeatFill(fill, l) + s + repeatFill(fill, r)
	}
	pd := repeatFill(fill, need)
	if left {
		return pd + s
	}
	return s + pd
}

func repeatFill(fill Str, n int) Str {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(string(fill))
	}
	out := []rune(b.String())
	if len(out) > n {
		out = out[:n]
	}
	return Str(string(out))
}

func truncate(s Str, n int) Str {
	r := []rune(string(s))
	if n < 0 || n >= len(r) {
		return s
	}
	return Str(string(r[:n]))
}

func escapeCSV(s Str) Str {
	if strings.ContainsAny(string(s), ",\"\n") {
		return Str(`"` + strings.ReplaceAll(string(s), `"`, `""`) + `"`)
	}
	return s
}

func indexedMap(parts []string) Map[Int, Str] {
	m := AllocMap[Int, Str]()
	for i, p := range parts {
		m.Store(Int(i+1), Str(p))
	}
	return m
}

func capitalize(s Str) Str {
	r := []rune(string(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return Str(string(r))
}

func uncapitalize(s Str) Str {
	r := []rune(string(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return Str(string(r))
}

func toCamelCase(s string) string {
	fields := splitWords(s)
	var b strings.Builder
	for i, f := range fields {
		if i == 0 {
			b.WriteString(strings.ToLower(f))
			continue
		}
		b.WriteString(strings.ToUpper(f[:1]) + strings.ToLower(f[1:]))
	}
	return b.String()
}

func toDelimitedCase(s string, delim byte) string {
	fields := splitWords(s)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return strings.Join(fields, string(delim))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
}

func maskMiddle(s Str) Str {
	r := []rune(string(s))
	if len(r) <= 2 {
		return Str(strings.Repeat("*", len(r)))
	}
	for i := 1; i < len(r)-1; i++ {
		r[i] = '*'
	}
	return Str(string(r))
}

func substrIndex(s, sep Str, first bool) Str {
	str, sp := string(s), string(sep)
	var idx int
	if first {
		idx = strings.Index(str, sp)
	} else {
		idx = strings.LastIndex(str, sp)
	}
	if idx < 0 {
		return s
	}
	return Str(str[:idx])
}

func formatBytes(n Int) Str {
	const unit = 1024
	if n < unit {
		return Str(strconv.FormatInt(n, 10) + "B")
	}
	div, exp := Int(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return Str(strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + string(units[exp]) + "B")
}

func isFormat(s, kind Str) bool {
	switch string(kind) {
	case "int":
		return IsStrInt(s)
	case "num", "number":
		return IsStrNum(s)
	case "email":
		return strings.Contains(string(s), "@") && strings.Contains(string(s), ".")
	default:
		return false
	}
}

// minMax3 implements corrected AWK min()/max() over three string operands:
// numeric comparison when all three parse as numbers, lexicographic
// comparison otherwise.
func minMax3(a, b, c Str, wantMin bool) Str {
	af, aok := tryParseFloat(a)
	bf, bok := tryParseFloat(b)
	cf, cok := tryParseFloat(c)
	if aok && bok && cok {
		best := af
		bestS := a
		for _, pair := range []struct {
			f Float
			s Str
		}{{bf, b}, {cf, c}} {
			if (wantMin && pair.f < best) || (!wantMin && pair.f > best) {
				best = pair.f
				bestS = pair.s
			}
		}
		return bestS
	}
	best := a
	for _, s := range []Str{b, c} {
		if (wantMin && s < best) || (!wantMin && s > best) {
			best = s
		}
	}
	return best
}

func tryParseFloat(s Str) (Float, bool) {
	t := strings.TrimSpace(string(s))
	if t == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	return f, err == nil
}
