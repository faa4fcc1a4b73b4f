package orchestrator

import (
	"context"
	"sync"

	"ideamap/domain/core/aggregates"
)

// Generation is the handle of one submitted generation. The tree is
// available as soon as Generate returns; task breakdowns arrive in the
// session snapshot as they resolve, and Done is closed once every task
// request has settled or the generation was superseded.
type Generation struct {
	epoch uint64
	tree  *aggregates.MindMap
	done  chan struct{}

	once   sync.Once
	mu     sync.Mutex
	status Status
	err    error
}

func newGeneration(epoch uint64, tree *aggregates.MindMap) *Generation {
	return &Generation{
		epoch:  epoch,
		tree:   tree,
		done:   make(chan struct{}),
		status: StatusExpanding,
	}
}

// Epoch returns the epoch the generation was issued under
func (g *Generation) Epoch() uint64 { return g.epoch }

// Tree returns the tree produced by the first stage
func (g *Generation) Tree() *aggregates.MindMap { return g.tree }

// Done is closed when the generation has settled
func (g *Generation) Done() <-chan struct{} { return g.done }

// Wait blocks until the generation settles or ctx is done. The error is a
// partial task failure when some ideas have no breakdown, or a stale result
// when a newer generation superseded this one.
func (g *Generation) Wait(ctx context.Context) (Status, error) {
	select {
	case <-g.done:
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.status, g.err
	case <-ctx.Done():
		return StatusExpanding, ctx.Err()
	}
}

func (g *Generation) finish(status Status, err error) {
	g.once.Do(func() {
		g.mu.Lock()
		g.status = status
		g.err = err
		g.mu.Unlock()
		close(g.done)
	})
}
