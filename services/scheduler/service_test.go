package schedsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/quiz"
	inmemdb "github.com/mprata/pollclass/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type fakeRunner struct {
	mu  sync.Mutex
	ran []string
	err error
}

func (r *fakeRunner) RunJob(ctx context.Context, job quiz.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, job.ID)
	return r.err
}

func (r *fakeRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ran)
}

func (r *fakeRunner) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

type jobStore interface {
	quiz.JobRepository
	Jobs() []quiz.Job
}

func newTestService() (*Service, jobStore) {
	repo := inmemdb.NewJobRepository(inmemdb.NewDB())
	conf := &core.Config{
		Scheduler: core.SchedulerConfig{
			PollInterval: 10 * time.Millisecond,
			JobTimeout:   time.Second,
		},
	}
	return NewService(repo, conf, nopLogger{}), repo
}

func Test_Service_Enqueue(t *testing.T) {
	svc, repo := newTestService()

	at := time.Now().Add(time.Hour)
	job, err := svc.Enqueue(context.Background(), quiz.Job{ChatID: 12345, ExecuteAt: at})

	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, quiz.JobPending, job.Status)
	assert.True(t, job.ExecuteAt.Equal(at))
	require.Len(t, repo.Jobs(), 1)
}

func Test_Service_Enqueue_defaultsToNow(t *testing.T) {
	svc, _ := newTestService()

	before := time.Now()
	job, err := svc.Enqueue(context.Background(), quiz.Job{ChatID: 12345})

	require.NoError(t, err)
	assert.False(t, job.ExecuteAt.Before(before))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func Test_Service_Start_runsDueJobs(t *testing.T) {
	svc, repo := newTestService()
	runner := &fakeRunner{}

	due, err := svc.Enqueue(context.Background(), quiz.Job{ChatID: 1, ExecuteAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	notDue, err := svc.Enqueue(context.Background(), quiz.Job{ChatID: 2, ExecuteAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx, runner)

	waitFor(t, time.Second, func() bool { return runner.runCount() == 1 })
	cancel()

	assert.Equal(t, []string{due.ID}, runner.snapshot())
	for _, job := range repo.Jobs() {
		switch job.ID {
		case due.ID:
			assert.Equal(t, quiz.JobDone, job.Status)
			assert.Equal(t, 1, job.Attempts)
		case notDue.ID:
			assert.Equal(t, quiz.JobPending, job.Status)
		}
	}
}

func Test_Service_Start_marksFailures(t *testing.T) {
	svc, repo := newTestService()
	runner := &fakeRunner{err: errors.New("telegram down")}

	job, err := svc.Enqueue(context.Background(), quiz.Job{ChatID: 1, ExecuteAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Start(ctx, runner)

	waitFor(t, time.Second, func() bool {
		for _, j := range repo.Jobs() {
			if j.ID == job.ID && j.Status == quiz.JobFailed {
				return true
			}
		}
		return false
	})

	jobs := repo.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "telegram down", jobs[0].LastError)
}

func Test_Service_Stop(t *testing.T) {
	svc, _ := newTestService()
	runner := &fakeRunner{}

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background(), runner)
		close(done)
	}()

	svc.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}
