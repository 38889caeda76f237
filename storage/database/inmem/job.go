package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mprata/pollclass/core/quiz"
)

type jobRepository struct {
	db *DB
}

var _ quiz.JobRepository = (*jobRepository)(nil)

func NewJobRepository(db *DB) *jobRepository {
	return &jobRepository{db: db}
}

func (repo *jobRepository) CreateJob(ctx context.Context, job quiz.Job) (quiz.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	job.ID = uuid.New().String()
	job.CreatedAt = now
	job.UpdatedAt = now
	repo.db.jobs[job.ID] = &job
	return job, nil
}

func (repo *jobRepository) ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]quiz.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var due []*quiz.Job
	for _, job := range repo.db.jobs {
		if job.Status == quiz.JobPending && !job.ExecuteAt.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ExecuteAt.Before(due[j].ExecuteAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]quiz.Job, 0, len(due))
	for _, job := range due {
		job.Status = quiz.JobRunning
		job.Attempts++
		job.UpdatedAt = time.Now().UTC()
		claimed = append(claimed, *job)
	}
	return claimed, nil
}

func (repo *jobRepository) MarkJobDone(ctx context.Context, id string) error {
	return repo.setStatus(id, quiz.JobDone, "")
}

func (repo *jobRepository) MarkJobFailed(ctx context.Context, id, errText string) error {
	return repo.setStatus(id, quiz.JobFailed, errText)
}

func (repo *jobRepository) setStatus(id, status, errText string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	job, ok := repo.db.jobs[id]
	if !ok {
		return nil
	}
	job.Status = status
	job.LastError = errText
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// Jobs returns a snapshot of all jobs, ordered by creation time. Test helper.
func (repo *jobRepository) Jobs() []quiz.Job {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	jobs := make([]quiz.Job, 0, len(repo.db.jobs))
	for _, job := range repo.db.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs
}
