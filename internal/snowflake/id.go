// Package snowflake provides a Mastodon compatible Snowflake ID generator.
package snowflake

import (
	"strconv"
	"sync/atomic"
	"time"
)

// ID is a 64 bit, time ordered identifier.
// The upper 48 bits hold the creation time in milliseconds since the unix
// epoch, the lower 16 bits a per process sequence.
type ID uint64

var sequence atomic.Uint32

// Now returns a new ID for the current time.
func Now() ID {
	return TimeToID(time.Now())
}

// TimeToID converts a time.Time to a Snowflake ID.
func TimeToID(ts time.Time) ID {
	// 48 bits for time in milliseconds.
	// 16 bits for sequence.
	seq := sequence.Add(1) & 0xffff
	return ID(uint64(ts.UnixMilli())<<16 | uint64(seq))
}

// ToTime returns the creation time encoded in the ID.
func (id ID) ToTime() time.Time {
	return time.UnixMilli(int64(id >> 16))
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Parse parses the decimal form of an ID.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return ID(v), err
}
