package domain

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// TokenPool bounds the parallelism of all build and test subprocesses.
type TokenPool struct {
	sem   *semaphore.Weighted
	size  int
	share int
}

// NewTokenPool sizes the pool to tasks, or the CPU count when tasks <= 0,
// and splits it evenly between jobs workers.
func NewTokenPool(tasks, jobs int) *TokenPool {
	if tasks <= 0 {
		tasks = runtime.NumCPU()
	}

	if jobs <= 0 {
		jobs = 1
	}

	return &TokenPool{
		sem:   semaphore.NewWeighted(int64(tasks)),
		size:  tasks,
		share: max(1, tasks/jobs),
	}
}

// Size is the total number of tokens.
func (p *TokenPool) Size() int {
	return p.size
}

// Share is how many tokens each subprocess takes, passed to it as -p and GOMAXPROCS.
func (p *TokenPool) Share() int {
	return p.share
}

// Acquire blocks until a share is available and returns its release func.
func (p *TokenPool) Acquire(ctx context.Context) (func(), error) {
	n := int64(min(p.share, p.size))
	if err := p.sem.Acquire(ctx, n); err != nil {
		return nil, err
	}

	return func() { p.sem.Release(n) }, nil
}
