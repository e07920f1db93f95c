package scene

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/Carmen-Shannon/oxy-scene/engine/node"
)

func (g *graph) Enqueue(fn func(Graph)) bool {
	if fn == nil {
		return false
	}
	select {
	case g.updates <- fn:
		return true
	default:
		logs.WithTag("graph", g.id).
			WithTag("capacity", cap(g.updates)).
			Warn("update queue full, dropping update")
		return false
	}
}

// Flush applies the updates queued when it was called. Updates enqueued while
// flushing wait for the next Flush.
func (g *graph) Flush() int {
	pending := len(g.updates)
	applied := 0
	for range pending {
		select {
		case fn := <-g.updates:
			fn(g)
			applied++
		default:
			return applied
		}
	}
	return applied
}

func (g *graph) Prepare() {
	var bases []*node.Base
	for n := range g.All() {
		if b := n.Transform(); b.Dirty() {
			bases = append(bases, b)
		}
	}
	if len(bases) == 0 {
		return
	}
	if g.prepareWorkers <= 1 || len(bases) < g.prepareThreshold {
		for _, b := range bases {
			b.Local()
		}
		return
	}

	if !g.poolReady {
		g.preparePool = worker.NewDynamicWorkerPool(g.prepareWorkers, 256, DefaultPrepareIdle)
		g.poolReady = true
	}

	chunk := (len(bases) + g.prepareWorkers - 1) / g.prepareWorkers
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(bases); start += chunk {
		part := bases[start:min(start+chunk, len(bases))]
		wg.Add(1)
		id := taskID
		taskID++
		g.preparePool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for _, b := range part {
					b.Local()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}
