package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResult struct {
	value int
	err   error
}

func (r *mockResult) GetError() error {
	return r.err
}

type mockJob struct {
	value int
	err   error
}

func (j *mockJob) Execute(ctx context.Context) Result {
	return &mockResult{value: j.value * 2, err: j.err}
}

func TestNewPool(t *testing.T) {
	assert.Equal(t, 4, NewPool(4).Workers())
	assert.Equal(t, 1, NewPool(0).Workers(), "zero input falls back to one worker")
}

func TestPool_ResultsInJobOrder(t *testing.T) {
	pool := NewPool(3)

	jobs := make([]Job, 50)
	for i := range jobs {
		jobs[i] = &mockJob{value: i}
	}

	results := pool.Run(context.Background(), jobs)
	require.Len(t, results, len(jobs))
	for i, r := range results {
		assert.Equal(t, i*2, r.(*mockResult).value, "result %d", i)
	}
}

type concurrencyJob struct {
	active *int32
	peak   *int32
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	n := atomic.AddInt32(j.active, 1)
	for {
		peak := atomic.LoadInt32(j.peak)
		if n <= peak || atomic.CompareAndSwapInt32(j.peak, peak, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(j.active, -1)
	return &mockResult{}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	var active, peak int32
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = &concurrencyJob{active: &active, peak: &peak}
	}

	NewPool(4).Run(context.Background(), jobs)

	assert.LessOrEqual(t, peak, int32(4), "too many concurrent jobs")
	assert.GreaterOrEqual(t, peak, int32(2), "jobs did not overlap")
}

func TestPool_ErrorsStayPerJob(t *testing.T) {
	boom := errors.New("boom")
	jobs := []Job{&mockJob{value: 1}, &mockJob{value: 2, err: boom}, &mockJob{value: 3}}

	results := NewPool(2).Run(context.Background(), jobs)

	assert.NoError(t, results[0].GetError())
	assert.NoError(t, results[2].GetError())
	assert.ErrorIs(t, results[1].GetError(), boom)
}

func TestPool_Empty(t *testing.T) {
	assert.Empty(t, NewPool(2).Run(context.Background(), nil))
}
