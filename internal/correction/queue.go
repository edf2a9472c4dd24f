package correction

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opencaption/subedit/pkg/log"
)

// Queue runs correction requests on a small worker pool and folds the
// results back into the document through the Sink. Requests for an
// entry already in flight are deduped. The caller owns cancellation:
// Stop cancels everything, Cancel one job.
type Queue struct {
	workerCount int
	provider    Provider
	sink        Sink

	mu        sync.RWMutex
	jobs      map[string]*Job
	dedupe    map[string]string
	cancels   map[string]context.CancelFunc
	idCounter uint64
	started   bool

	pendingIDs chan string
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewQueue creates a correction queue. workerCount defaults to one.
func NewQueue(workerCount int, provider Provider, sink Sink) *Queue {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Queue{
		workerCount: workerCount,
		provider:    provider,
		sink:        sink,
		jobs:        make(map[string]*Job),
		dedupe:      make(map[string]string),
		cancels:     make(map[string]context.CancelFunc),
		pendingIDs:  make(chan string, 1024),
		stopCh:      make(chan struct{}),
	}
}

func dedupeKey(req Request) string {
	return fmt.Sprintf("%d|%d", req.TabID, req.EntryID)
}

// Enqueue submits a request. Returns the job snapshot and whether a new
// job was created; an in-flight job for the same entry is returned
// instead of queueing a duplicate.
func (q *Queue) Enqueue(req Request) (*Job, bool) {
	now := time.Now()

	q.mu.Lock()
	key := dedupeKey(req)
	if id, ok := q.dedupe[key]; ok {
		if existing, exists := q.jobs[id]; exists && (existing.Status == StatusPending || existing.Status == StatusRunning) {
			snapshot := cloneJob(existing)
			q.mu.Unlock()
			return snapshot, false
		}
		delete(q.dedupe, key)
	}

	id := fmt.Sprintf("correction-%d", atomic.AddUint64(&q.idCounter, 1))
	job := &Job{
		ID:        id,
		Request:   req,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.jobs[id] = job
	q.dedupe[key] = id
	started := q.started
	snapshot := cloneJob(job)
	q.mu.Unlock()

	if started {
		select {
		case q.pendingIDs <- id:
		default:
			log.Warn("correction queue backlog full, dropping job %s", id)
			q.setStatus(id, StatusFailed, "queue backlog full")
		}
	}
	return snapshot, true
}

// Get returns a job snapshot by id.
func (q *Queue) Get(id string) (*Job, bool) {
	q.mu.RLock()
	job, ok := q.jobs[id]
	q.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns snapshots of all known jobs.
func (q *Queue) List() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret
}

// Start launches the worker pool and feeds it any jobs enqueued before
// startup. Calling Start twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	pending := make([]string, 0)
	for id, job := range q.jobs {
		if job.Status == StatusPending {
			pending = append(pending, id)
		}
	}
	q.mu.Unlock()

	for _, id := range pending {
		select {
		case q.pendingIDs <- id:
		default:
		}
	}

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Stop cancels all running corrections and waits for the workers.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
		q.mu.Lock()
		for _, cancel := range q.cancels {
			cancel()
		}
		q.mu.Unlock()
		q.wg.Wait()
	})
}

// Cancel aborts one pending or running job.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return false
	}
	switch job.Status {
	case StatusPending:
		job.Status = StatusCanceled
		job.UpdatedAt = time.Now()
		return true
	case StatusRunning:
		if cancel, ok := q.cancels[id]; ok {
			cancel()
		}
		return true
	}
	return false
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.pendingIDs:
			q.run(id)
		}
	}
}

func (q *Queue) run(id string) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		q.mu.Unlock()
		return
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now()
	req := job.Request

	ctx, cancel := context.WithCancel(context.Background())
	q.cancels[id] = cancel
	q.mu.Unlock()

	result, err := q.provider.Correct(ctx, req)
	canceled := ctx.Err() != nil

	q.mu.Lock()
	delete(q.cancels, id)
	q.mu.Unlock()
	cancel()

	switch {
	case canceled:
		q.setStatus(id, StatusCanceled, "")
	case err != nil:
		log.Error("correction for entry %d failed: %v", req.EntryID, err)
		q.setStatus(id, StatusFailed, err.Error())
	case !result.HasDifference:
		q.setStatus(id, StatusSkipped, "")
	default:
		// The sink tolerates entries and tabs that no longer exist.
		q.sink.SetCorrectionSuggestion(req.TabID, req.EntryID, result.CorrectedText)
		q.setStatus(id, StatusSuccess, "")
	}
}

func (q *Queue) setStatus(id string, status Status, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[id]; ok {
		job.Status = status
		job.Error = errMsg
		job.UpdatedAt = time.Now()
	}
}

func cloneJob(job *Job) *Job {
	clone := *job
	return &clone
}
