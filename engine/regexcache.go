package engine

import (
	"fmt"
	"regexp"
	"sync"
)

// RegexCache interns compiled patterns keyed by pattern text, per spec.md
// 4.5. Constant-regex opcodes (MatchConst/IsMatchConst) embed a handle
// compiled once at program load; dynamic-regex opcodes (Match, IsMatch,
// Sub, GSub, SplitStr, GenSubDynamic) go through this cache so repeated use
// of the same pattern string in a hot loop compiles only once.
//
// Reads dominate; writes (first sight of a new pattern) are rare, so a
// sync.RWMutex guarding a plain map is the right tool -- the same call the
// teacher makes for its device response bus in devices.go, just applied to
// a cache instead of a channel fan-in.
type RegexCache struct {
	mu    sync.RWMutex
	byPat map[string]*regexp.Regexp
}

// NewRegexCache returns an empty, ready-to-use cache.
func NewRegexCache() *RegexCache {
	return &RegexCache{byPat: make(map[string]*regexp.Regexp)}
}

// Compile returns the cached *regexp.Regexp for pattern, compiling and
// interning it on first use. Compilation failure of a dynamic pattern is
// fatal by default (spec.md 4.5, 7); the wrapped ErrRegexCompile lets a caller that
// wants the "configured to return a sentinel" alternative recognize the
// failure.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.byPat[pattern]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.byPat[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(awkToGoRegex(pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrRegexCompile, pattern, err)
	}
	c.byPat[pattern] = re
	return re, nil
}

// MustCompile panics with a FaultError-shaped message on failure; used for
// constant patterns resolved once at program load, where a bad pattern is
// a front-end bug rather than a runtime condition (spec.md 3 invariant 5:
// "Regex-constant opcodes observe a compiled regex that is never
// mutated").
func (c *RegexCache) MustCompile(pattern string) *regexp.Regexp {
	re, err := c.Compile(pattern)
	if err != nil {
		panic(&FaultError{Kind: FaultTypeMismatch, Detail: err.Error()})
	}
	return re
}

// awkToGoRegex performs the handful of POSIX-ERE-to-RE2 rewrites AWK
// dialects commonly need (nothing exotic -- RE2's syntax already covers
// the vast majority of AWK-style patterns used in practice). Kept as an
// identity pass plus a placeholder seam for future dialect quirks rather
// than a full ERE transpiler, since spec.md scopes the surface grammar
// (and therefore its regex dialect) to the front-end, not this core.
func awkToGoRegex(pattern string) string {
	return pattern
}
