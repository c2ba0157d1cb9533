package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name    string
	runs    atomic.Int32
	block   chan struct{}
	failure error
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run() error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.failure
}

func TestAddJob_RejectsBadSchedule(t *testing.T) {
	// GIVEN: A scheduler
	// WHEN: Registering a job with a malformed cron spec
	// THEN: Registration fails

	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &fakeJob{name: "import"})
	assert.Error(t, err)

	assert.NoError(t, s.AddJob("0 2 * * *", &fakeJob{name: "import"}))
}

func TestTick_SkipsWhileRunning(t *testing.T) {
	// GIVEN: A job still in flight from the previous tick
	// WHEN: The next tick fires
	// THEN: The tick is dropped instead of running concurrently

	s := New(zerolog.Nop())
	job := &fakeJob{name: "import", block: make(chan struct{})}
	tick := s.tick(job)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tick()
	}()

	// Wait for the first tick to enter Run.
	for job.runs.Load() == 0 {
	}

	tick() // returns immediately, skipped
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	wg.Wait()

	// The guard resets once the job finishes.
	tick()
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestTick_JobFailureDoesNotPoisonGuard(t *testing.T) {
	// GIVEN: A job that returns an error
	// WHEN: Ticking twice
	// THEN: Both ticks run; failures are logged, not sticky

	s := New(zerolog.Nop())
	job := &fakeJob{name: "import", failure: errors.New("boom")}
	tick := s.tick(job)

	tick()
	tick()
	require.Equal(t, int32(2), job.runs.Load())
}

func TestRunNow_ReturnsJobError(t *testing.T) {
	// GIVEN: A failing job
	// WHEN: Running it immediately
	// THEN: The error propagates to the caller

	s := New(zerolog.Nop())
	err := s.RunNow(&fakeJob{name: "import", failure: errors.New("boom")})
	assert.EqualError(t, err, "boom")
}
