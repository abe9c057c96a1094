package actions

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/orneryd/graphrules/pkg/graphcore"
)

// IDGenerator allocates fresh node identifiers for CreateNode. The
// generator is configurable; the default is a monotonic counter.
type IDGenerator interface {
	NextID() graphcore.NodeID
}

// CounterIDGenerator produces "n1", "n2", ... in allocation order. The
// default generator.
type CounterIDGenerator struct {
	counter uint64
}

// NewCounterIDGenerator returns a generator starting at n1.
func NewCounterIDGenerator() *CounterIDGenerator {
	return &CounterIDGenerator{}
}

// NextID returns the next sequential id.
func (g *CounterIDGenerator) NextID() graphcore.NodeID {
	n := atomic.AddUint64(&g.counter, 1)
	return graphcore.NodeID(fmt.Sprintf("n%d", n))
}

// UUIDGenerator produces RFC 4122 random ids via google/uuid, for
// deployments where cross-process id collisions must be structurally
// impossible rather than merely unlikely.
type UUIDGenerator struct{}

// NewUUIDGenerator returns a UUID-backed generator.
func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

// NextID returns a random UUIDv4 string.
func (g *UUIDGenerator) NextID() graphcore.NodeID {
	return graphcore.NodeID(uuid.NewString())
}
