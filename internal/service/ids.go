package service

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Identifier prefixes.
const (
	OrderIDPrefix   = "TRX"
	ProductIDPrefix = "PROD"
)

// IDGenerator produces <prefix>-<millis> identifiers that are strictly
// increasing within the process, even when several are requested in the same
// millisecond.
type IDGenerator struct {
	prefix string
	last   atomic.Int64
	now    func() time.Time
}

// NewIDGenerator creates a generator for the given prefix.
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{
		prefix: prefix,
		now:    time.Now,
	}
}

// Next returns a new identifier.
func (g *IDGenerator) Next() string {
	for {
		last := g.last.Load()
		next := g.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return g.prefix + "-" + strconv.FormatInt(next, 10)
		}
	}
}
