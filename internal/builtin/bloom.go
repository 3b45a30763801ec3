package builtin

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// filters holds one named bloom filter per first-seen name, sized for
// ~1M items at a 1% false-positive rate, grounded on bits-and-blooms/bloom.
// A real deployment would size per-filter from a config; the opcode
// signature only carries a name, so a single fixed sizing policy applies
// to every filter this engine creates.
var (
	filtersMu sync.Mutex
	filters   = map[string]*bloom.BloomFilter{}
)

func namedFilter(name string) *bloom.BloomFilter {
	filtersMu.Lock()
	defer filtersMu.Unlock()
	f, ok := filters[name]
	if !ok {
		f = bloom.NewWithEstimates(1_000_000, 0.01)
		filters[name] = f
	}
	return f
}

func BloomFilterInsert(name, item string) {
	namedFilter(name).AddString(item)
}

func BloomFilterContains(name, item string) bool {
	return namedFilter(name).TestString(item)
}

// BloomFilterContainsWithInsert tests membership and inserts
// unconditionally, per the opcode name's "check, then always insert"
// contract used for streaming-unique detection.
func BloomFilterContainsWithInsert(name, item string) bool {
	filtersMu.Lock()
	f, ok := filters[name]
	if !ok {
		f = bloom.NewWithEstimates(1_000_000, 0.01)
		filters[name] = f
	}
	filtersMu.Unlock()
	seen := f.TestString(item)
	f.AddString(item)
	return seen
}
