// Package snowflake generates unique time-ordered 64-bit identifiers.
//
// Layout of an identifier (from the most significant bit):
//
//	1 bit   unused, always zero
//	41 bits milliseconds since Epoch
//	10 bits worker id
//	12 bits sequence within a millisecond
package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	workerBits   = 10
	sequenceBits = 12

	// MaxWorker is the biggest allowed worker id.
	MaxWorker = 1<<workerBits - 1

	maxSequence = 1<<sequenceBits - 1

	workerShift    = sequenceBits
	timestampShift = sequenceBits + workerBits
)

// Epoch is the zero point of embedded timestamps.
// nolint:gochecknoglobals
var Epoch = time.Date(2020, time.July, 18, 0, 0, 0, 0, time.UTC)

// ErrInvalidWorker is returned when worker id does not fit into worker bits.
var ErrInvalidWorker = errors.New("invalid worker id")

// Option configures Generator.
type Option func(g *Generator)

// WithClock replaces time source of the generator.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// Generator produces identifiers. It is safe for concurrent use.
type Generator struct {
	mu sync.Mutex

	worker   uint64
	lastTick int64
	sequence uint64

	now func() time.Time
}

// New returns a generator for the worker.
func New(worker uint16, opts ...Option) (*Generator, error) {
	if worker > MaxWorker {
		return nil, ErrInvalidWorker
	}

	g := &Generator{
		worker:   uint64(worker),
		lastTick: -1,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Generate returns next identifier. Identifiers of one generator strictly increase.
// When the sequence of current millisecond is exhausted Generate waits for the next one.
func (g *Generator) Generate() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	tick := g.tick()
	// clock moved backwards, keep issuing ids from the last millisecond
	if tick < g.lastTick {
		tick = g.lastTick
	}

	if tick == g.lastTick {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for tick <= g.lastTick {
				tick = g.tick()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTick = tick

	return uint64(tick)<<timestampShift | g.worker<<workerShift | g.sequence
}

func (g *Generator) tick() int64 {
	return g.now().Sub(Epoch).Milliseconds()
}

// TimestampOf returns creation time embedded into id.
func TimestampOf(id uint64) time.Time {
	ms := int64(id >> timestampShift)
	return Epoch.Add(time.Duration(ms) * time.Millisecond).UTC()
}

// WorkerOf returns worker id embedded into id.
func WorkerOf(id uint64) uint16 {
	return uint16((id >> workerShift) & MaxWorker)
}
