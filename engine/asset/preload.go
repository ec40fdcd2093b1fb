package asset

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/vega-go/common"
)

// defaultPreloadWorkers is the preload pool size when no override is set.
const defaultPreloadWorkers = 4

func (m *manager) pool() worker.DynamicWorkerPool {
	m.poolOnce.Do(func() {
		m.preloadPool = worker.NewDynamicWorkerPool(m.preloadWorkers, 256, 1*time.Second)
	})
	return m.preloadPool
}

func (m *manager) Preload(keys ...string) error {
	// Skip keys already interned so preloading is as idempotent as lookup.
	pending := make([]string, 0, len(keys))
	m.mu.Lock()
	for _, key := range keys {
		if _, ok := m.meshCache[key]; !ok {
			pending = append(pending, key)
		}
	}
	m.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	// Phase 1: parallel import and decode on the worker pool. Workers are
	// reused across preload batches. A WaitGroup provides barrier sync since
	// pool.Wait blocks until workers idle-exit.
	type result struct {
		primitives []common.ImportedPrimitive
		err        error
	}
	results := make([]result, len(pending))

	var wg sync.WaitGroup
	pool := m.pool()
	for i, key := range pending {
		wg.Add(1)
		idx := i
		k := key
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				primitives, err := m.loader.LoadMesh(k)
				results[idx] = result{primitives: primitives, err: err}
				return nil, err
			},
		})
	}
	wg.Wait()

	// Phase 2: serialized GPU upload. The first failure is reported but the
	// remaining keys still land in the cache.
	var firstErr error
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, key := range pending {
		if results[i].err != nil {
			if firstErr == nil {
				firstErr = results[i].err
			}
			continue
		}
		if _, ok := m.meshCache[key]; ok {
			continue
		}
		mesh, err := m.uploadMesh(key, results[i].primitives)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.meshCache[key] = MeshHandle{m.meshes.Insert(mesh)}
	}
	return firstErr
}
