// Package builtin implements the opaque built-in opcode family spec.md 4.1
// describes as "thin adapters from opcodes to external function
// implementations": identifiers, crypto, structured data, date/time,
// network, SQL, key/value and misc helpers that the engine's interpreter
// dispatches to by
// opcode rather than inlining into the dense switch.
package builtin

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Uuid returns a UUID string; version selects v4 (random, default) or v7
// (time-ordered), grounded on google/uuid.
func Uuid(version string) string {
	switch version {
	case "v7", "7":
		id, err := uuid.NewV7()
		if err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// Ulid returns a new lexicographically-sortable ULID, grounded on
// oklog/ulid.
func Ulid() string {
	return ulid.Make().String()
}

var snowflakeSeq uint64

// SnowFlake returns a Twitter-snowflake-shaped 64-bit id: 41 bits of
// millisecond timestamp, 10 bits of node, 12 bits of sequence. No existing
// example repo in the retrieval pack carries a snowflake library, so this
// is hand-rolled rather than grounded on a third-party generator --
// documented in DESIGN.md.
func SnowFlake(node int64) int64 {
	const epoch = int64(1288834974657) // twitter epoch, matches the common convention
	ms := time.Now().UnixMilli() - epoch
	seq := atomic.AddUint64(&snowflakeSeq, 1) & 0xFFF
	return (ms << 22) | ((node & 0x3FF) << 12) | int64(seq)
}

// Tsid mints a time-sorted identifier string in the same family as ULID
// but with a shorter, base32-free textual form, for callers that want a
// sortable id without ULID's Crockford alphabet. Hand-rolled for the same
// reason as SnowFlake: no TSID library appears in the retrieval pack.
func Tsid() string {
	return fmt.Sprintf("%013d%04d", time.Now().UnixMilli(), atomic.AddUint64(&snowflakeSeq, 1)&0xFFFF)
}
