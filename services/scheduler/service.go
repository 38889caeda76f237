package schedsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/quiz"
)

// claimBatchSize caps how many due jobs one tick picks up.
const claimBatchSize = 10

// Runner executes a claimed job.
type Runner interface {
	RunJob(ctx context.Context, job quiz.Job) error
}

// Service is a quiz.Scheduler backed by the scheduled_jobs table: Enqueue
// persists the job, and a polling worker claims and runs due jobs. Jobs
// survive process restarts; execution is at-or-after ExecuteAt, best-effort,
// with no dedup key, so a claim that dies mid-flight may be re-run.
type Service struct {
	repo   quiz.JobRepository
	conf   *core.Config
	logger core.Logger
	stop   chan struct{}
}

var _ quiz.Scheduler = (*Service)(nil)

func NewService(repo quiz.JobRepository, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:   repo,
		conf:   conf,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

func (svc *Service) Enqueue(ctx context.Context, job quiz.Job) (quiz.Job, error) {
	if job.ExecuteAt.IsZero() {
		job.ExecuteAt = time.Now()
	}
	job.Status = quiz.JobPending
	return svc.repo.CreateJob(ctx, job)
}

// Start polls for due jobs until ctx is canceled or Stop is called.
func (svc *Service) Start(ctx context.Context, runner Runner) {
	ticker := time.NewTicker(svc.conf.Scheduler.PollInterval)
	defer ticker.Stop()

	svc.logger.Info(fmt.Sprintf("scheduler started, polling every %v", svc.conf.Scheduler.PollInterval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-svc.stop:
			return
		case now := <-ticker.C:
			svc.runDueJobs(ctx, runner, now)
		}
	}
}

func (svc *Service) Stop() {
	close(svc.stop)
}

func (svc *Service) runDueJobs(ctx context.Context, runner Runner, now time.Time) {
	jobs, err := svc.repo.ClaimDueJobs(ctx, now, claimBatchSize)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("claiming due jobs: %v", err), err)
		return
	}

	for _, job := range jobs {
		svc.runJob(ctx, runner, job)
	}
}

func (svc *Service) runJob(ctx context.Context, runner Runner, job quiz.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, svc.conf.Scheduler.JobTimeout)
	defer cancel()

	if err := runner.RunJob(jobCtx, job); err != nil {
		svc.logger.Error(fmt.Sprintf("job %s failed: %v", job.ID, err), err)
		if mErr := svc.repo.MarkJobFailed(ctx, job.ID, err.Error()); mErr != nil {
			svc.logger.Error(fmt.Sprintf("marking job %s failed: %v", job.ID, mErr), mErr)
		}
		return
	}
	if err := svc.repo.MarkJobDone(ctx, job.ID); err != nil {
		svc.logger.Error(fmt.Sprintf("marking job %s done: %v", job.ID, err), err)
	}
}
