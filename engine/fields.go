package engine

import (
	"regexp"
	"strings"
)

// FieldSeparator selects how Fields splits $0 into $1..$NF, per spec.md
// 4.3: a literal single byte, AWK's "space special" mode (collapse
// surrounding and repeated whitespace, including leading/trailing), or a
// regex.
type FieldSeparatorKind int

const (
	FSByte FieldSeparatorKind = iota
	FSWhitespace
	FSRegex
)

type FieldSeparator struct {
	Kind  FieldSeparatorKind
	Byte  byte
	Regex *regexp.Regexp
}

// ParseFS classifies an FS string the way AWK does: a single space means
// FSWhitespace, a single other character is a literal byte separator,
// anything else is a regex (compiled via the shared cache so repeatedly
// assigning the same multi-character FS, e.g. FS="[,;]", doesn't recompile).
func ParseFS(fs string, cache *RegexCache) FieldSeparator {
	switch {
	case fs == " ":
		return FieldSeparator{Kind: FSWhitespace}
	case len(fs) == 1:
		return FieldSeparator{Kind: FSByte, Byte: fs[0]}
	default:
		return FieldSeparator{Kind: FSRegex, Regex: cache.MustCompile(fs)}
	}
}

// Fields owns the current record `$0` and its split fields $1..$NF, the
// used-field bitset, and reacts to FS/OFS edits, per spec.md 3 "Fields" and
// 4.3.
type Fields struct {
	raw        string
	fields     []string // 1-indexed conceptually; fields[0] unused
	nf         int
	zeroDirty  bool // $0 needs to be rebuilt by joining fields with OFS
	splitDirty bool // fields need to be recomputed by splitting raw with FS

	fs  FieldSeparator
	ofs string

	used    map[int]bool
	useAll  bool
}

// NewFields starts with an empty record.
func NewFields(fs FieldSeparator, ofs string) *Fields {
	return &Fields{fs: fs, ofs: ofs, used: make(map[int]bool)}
}

// SetFS updates the active field separator. Per spec.md 4.3, this only
// takes effect on the next split of $0, not retroactively on already-split
// fields.
func (fl *Fields) SetFS(fs FieldSeparator) { fl.fs = fs }

// SetOFS updates the output field separator used to rejoin $0 on read
// after a field write.
func (fl *Fields) SetOFS(ofs string) { fl.ofs = ofs }

// UpdateUsedFields refreshes the used-fields bitset ahead of a reader
// batch, per spec.md 4.1's UpdateUsedFields opcode: record readers can use
// this to skip materializing fields the program never touches.
func (fl *Fields) UpdateUsedFields(indices []int, all bool) {
	fl.useAll = all
	fl.used = make(map[int]bool, len(indices))
	for _, i := range indices {
		fl.used[i] = true
	}
}

// SetRecord installs a new $0, invalidating the field vector. The next
// field read triggers a lazy split using the current FS (spec.md 4.3
// "Writing $0 resets the field vector").
func (fl *Fields) SetRecord(s string) {
	fl.raw = s
	fl.fields = nil
	fl.nf = 0
	fl.zeroDirty = false
	fl.splitDirty = true
}

func (fl *Fields) ensureSplit() {
	if !fl.splitDirty {
		return
	}
	fl.splitDirty = false
	parts := splitByFS(fl.raw, fl.fs)
	fl.fields = make([]string, len(parts)+1)
	copy(fl.fields[1:], parts)
	fl.nf = len(parts)
}

func splitByFS(s string, fs FieldSeparator) []string {
	if s == "" {
		return nil
	}
	switch fs.Kind {
	case FSWhitespace:
		return strings.Fields(s)
	case FSByte:
		return strings.Split(s, string(fs.Byte))
	case FSRegex:
		return fs.Regex.Split(s, -1)
	default:
		return []string{s}
	}
}

// NF returns the current field count, spec.md invariant 3: the highest
// index i such that $i was ever set or materialized from splitting $0.
func (fl *Fields) NF() int {
	fl.ensureSplit()
	return fl.nf
}

// GetColumn implements GetColumn(dst, n): n==0 rebuilds and returns $0 if
// dirty; n>NF returns "" without changing NF (spec.md 4.3).
func (fl *Fields) GetColumn(n int) string {
	if n == 0 {
		if fl.zeroDirty {
			fl.raw = fl.joinForZero()
			fl.zeroDirty = false
		}
		return fl.raw
	}
	fl.ensureSplit()
	if n < 0 || n > fl.nf {
		return ""
	}
	return fl.fields[n]
}

func (fl *Fields) joinForZero() string {
	fl.ensureSplit()
	parts := make([]string, fl.nf)
	copy(parts, fl.fields[1:fl.nf+1])
	return strings.Join(parts, fl.ofs)
}

// SetColumn implements SetColumn(n, s): sets $n, extends NF if needed with
// empty strings for any gap, clears the $0 cache, per spec.md invariant 4.
func (fl *Fields) SetColumn(n int, s string) {
	if n <= 0 {
		// SetColumn(0, s) is equivalent to SetRecord(s).
		fl.SetRecord(s)
		return
	}
	fl.ensureSplit()
	if n > fl.nf {
		grown := make([]string, n+1)
		copy(grown, fl.fields)
		fl.fields = grown
		fl.nf = n
	}
	fl.fields[n] = s
	fl.zeroDirty = true
}

// SetNF truncates or extends the field count directly (AWK allows
// assigning to NF).
func (fl *Fields) SetNF(n int) {
	fl.ensureSplit()
	if n < 0 {
		n = 0
	}
	if n == fl.nf {
		return
	}
	grown := make([]string, n+1)
	copy(grown, fl.fields)
	fl.fields = grown
	fl.nf = n
	fl.zeroDirty = true
}

// JoinColumns implements JoinColumns(start, end, sep): join $start..$end
// with sep, clamped to [1, NF].
func (fl *Fields) JoinColumns(start, end int, sep string) string {
	fl.ensureSplit()
	if start < 1 {
		start = 1
	}
	if end > fl.nf {
		end = fl.nf
	}
	if start > end {
		return ""
	}
	return strings.Join(fl.fields[start:end+1], sep)
}
