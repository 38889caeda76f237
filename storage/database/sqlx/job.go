package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core/quiz"
)

type jobRow struct {
	ID        string    `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Questions []byte    `db:"questions"`
	ExecuteAt time.Time `db:"execute_at"`
	Status    string    `db:"status"`
	Attempts  int       `db:"attempts"`
	LastError string    `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r jobRow) toJob() (quiz.Job, error) {
	job := quiz.Job{
		ID:        r.ID,
		ChatID:    r.ChatID,
		ExecuteAt: r.ExecuteAt,
		Status:    r.Status,
		Attempts:  r.Attempts,
		LastError: r.LastError,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Questions, &job.Questions); err != nil {
		return quiz.Job{}, errors.Wrapf(err, "decoding questions of job %s", r.ID)
	}
	return job, nil
}

type jobRepository struct {
	db *sqlx.DB
}

var _ quiz.JobRepository = (*jobRepository)(nil)

func NewJobRepository(db *sqlx.DB) *jobRepository {
	return &jobRepository{db: db}
}

func (repo *jobRepository) CreateJob(ctx context.Context, job quiz.Job) (quiz.Job, error) {
	now := time.Now().UTC()
	job.ID = uuid.New().String()
	job.CreatedAt = now
	job.UpdatedAt = now

	questions, err := json.Marshal(job.Questions)
	if err != nil {
		return quiz.Job{}, errors.Wrap(err, "encoding questions")
	}

	q := `
	INSERT INTO scheduled_jobs (id, chat_id, questions, execute_at, status, attempts, last_error, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = repo.db.ExecContext(ctx, q,
		job.ID, job.ChatID, questions, job.ExecuteAt, job.Status,
		job.Attempts, job.LastError, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return quiz.Job{}, errors.Wrap(err, "inserting job")
	}
	return job, nil
}

// ClaimDueJobs moves due pending jobs to running in one statement. SKIP LOCKED
// keeps concurrent workers from claiming the same job.
func (repo *jobRepository) ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]quiz.Job, error) {
	q := `
	UPDATE scheduled_jobs
	SET status = $1, attempts = attempts + 1, updated_at = $2
	WHERE id IN (
		SELECT id FROM scheduled_jobs
		WHERE status = $3 AND execute_at <= $4
		ORDER BY execute_at
		LIMIT $5
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, chat_id, questions, execute_at, status, attempts, last_error, created_at, updated_at`

	rows, err := repo.db.QueryxContext(ctx, q, quiz.JobRunning, time.Now().UTC(), quiz.JobPending, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, "claiming due jobs")
	}
	defer func() { _ = rows.Close() }()

	var jobs []quiz.Job
	for rows.Next() {
		var row jobRow
		if err = rows.StructScan(&row); err != nil {
			return nil, errors.Wrap(err, "scanning job")
		}
		job, err := row.toJob()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "claiming due jobs")
	}
	return jobs, nil
}

func (repo *jobRepository) MarkJobDone(ctx context.Context, id string) error {
	q := "UPDATE scheduled_jobs SET status = $2, updated_at = $3 WHERE id = $1"
	if _, err := repo.db.ExecContext(ctx, q, id, quiz.JobDone, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "marking job done")
	}
	return nil
}

func (repo *jobRepository) MarkJobFailed(ctx context.Context, id, errText string) error {
	q := "UPDATE scheduled_jobs SET status = $2, last_error = $3, updated_at = $4 WHERE id = $1"
	if _, err := repo.db.ExecContext(ctx, q, id, quiz.JobFailed, errText, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "marking job failed")
	}
	return nil
}
