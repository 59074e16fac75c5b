// Package snowflake allocates unique, time-ordered 64-bit identifiers.
//
// An identifier packs the milliseconds elapsed since Epoch, a 10-bit node id
// and a 12-bit per-millisecond sequence:
//
//	| 41 bits timestamp | 10 bits node | 12 bits sequence |
//
// A single Generator must be shared by every caller on a node; the node id is
// what keeps identifiers from different processes apart.
package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	nodeBits     = 10
	sequenceBits = 12

	// MaxNodeID is the largest accepted node id.
	MaxNodeID = 1<<nodeBits - 1

	maxSequence = 1<<sequenceBits - 1

	// Epoch is 2026-01-01T00:00:00Z in Unix milliseconds.
	Epoch int64 = 1767225600000
)

var (
	// ErrInvalidConfiguration is returned by New for an out-of-range node id.
	ErrInvalidConfiguration = errors.New("invalid snowflake configuration")

	// ErrClockRegressed is returned by NextID when the wall clock reads
	// earlier than the last issued timestamp. No identifier is produced.
	ErrClockRegressed = errors.New("clock moved backwards")
)

// Clock returns the current time in Unix milliseconds.
type Clock func() int64

func systemClock() int64 {
	return time.Now().UnixMilli()
}

// Generator produces identifiers for one node. It is safe for concurrent use.
type Generator struct {
	nodeID int64
	clock  Clock

	mu            sync.Mutex
	lastTimestamp int64
	sequence      int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(g *Generator) {
		g.clock = c
	}
}

// New creates a Generator for nodeID, which must be in [0, MaxNodeID].
func New(nodeID int64, opts ...Option) (*Generator, error) {
	if nodeID < 0 || nodeID > MaxNodeID {
		return nil, fmt.Errorf("%w: node id %d outside [0, %d]", ErrInvalidConfiguration, nodeID, MaxNodeID)
	}

	g := &Generator{
		nodeID:        nodeID,
		clock:         systemClock,
		lastTimestamp: -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NodeID returns the configured node id.
func (g *Generator) NodeID() int64 {
	return g.nodeID
}

// NextID returns the next identifier.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock()
	if now < g.lastTimestamp {
		return 0, fmt.Errorf("%w: %dms behind last issued id", ErrClockRegressed, g.lastTimestamp-now)
	}
	if now < Epoch {
		return 0, fmt.Errorf("%w: clock reads before epoch", ErrClockRegressed)
	}

	if now == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			now = g.waitNextMillis()
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = now

	return (now-Epoch)<<(nodeBits+sequenceBits) | g.nodeID<<sequenceBits | g.sequence, nil
}

// waitNextMillis spins until the clock passes lastTimestamp. Must hold mu.
func (g *Generator) waitNextMillis() int64 {
	now := g.clock()
	for now <= g.lastTimestamp {
		now = g.clock()
	}
	return now
}

// Parts is a decomposed identifier.
type Parts struct {
	Time     time.Time
	NodeID   int64
	Sequence int64
}

// Decompose splits an identifier into its timestamp, node and sequence.
func Decompose(id int64) Parts {
	ms := id>>(nodeBits+sequenceBits) + Epoch
	return Parts{
		Time:     time.UnixMilli(ms).UTC(),
		NodeID:   (id >> sequenceBits) & MaxNodeID,
		Sequence: id & maxSequence,
	}
}
