package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
)

// Outcome messages. User-facing, pt-BR like the rest of the API surface.
const (
	MsgQuizSentNow         = "Quizzes enviados imediatamente."
	MsgQuizScheduled       = "Quizzes agendados para %s."
	MsgQuizScheduleFailed  = "Erro ao agendar envio dos quizzes."
	MsgPollSent            = "Enquete enviada com sucesso."
	MsgTelegramAPIError    = "Erro na API do Telegram."
	MsgTelegramUnreachable = "Falha na comunicação com o Telegram."
)

// scheduleDisplayFormat renders the combined schedule timestamp in outcome
// messages (day/month/year hour:minute).
const scheduleDisplayFormat = "02/01/2006 15:04"

var NowFunc = time.Now // mockable

type (
	// Gateway delivers messages and polls to the Telegram Bot API. Calls are
	// blocking I/O with no built-in retry; failures come back as *GatewayError.
	Gateway interface {
		SendPoll(ctx context.Context, chatID int64, question string, options []string) error
		SendMessage(ctx context.Context, chatID int64, text string, buttons ...WebAppButton) error
	}

	// Scheduler accepts a Job for execution at or after Job.ExecuteAt.
	// Enqueueing is the asynchronous hand-off: it returns once the job is
	// accepted, not once it is delivered.
	Scheduler interface {
		Enqueue(ctx context.Context, job Job) (Job, error)
	}

	// JobRepository persists scheduled jobs so they survive process restarts.
	JobRepository interface {
		CreateJob(ctx context.Context, job Job) (Job, error)
		// ClaimDueJobs atomically moves up to `limit` due pending jobs to the
		// running state and returns them.
		ClaimDueJobs(ctx context.Context, now time.Time, limit int) ([]Job, error)
		MarkJobDone(ctx context.Context, id string) error
		MarkJobFailed(ctx context.Context, id, errText string) error
	}

	ServiceInterface interface {
		SubmitQuiz(ctx context.Context, req QuizSendRequest) DeliveryOutcome
		SendPoll(ctx context.Context, req PollSendRequest) DeliveryOutcome
	}

	Service struct {
		gw     Gateway
		sched  Scheduler
		conf   *core.Config
		logger core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(gw Gateway, sched Scheduler, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		gw:     gw,
		sched:  sched,
		conf:   conf,
		logger: logger,
	}
}

// SubmitQuiz validates nothing (callers validate the request first); it only
// decides when the quiz runs. Both schedule fields present: the job is
// enqueued for their combined timestamp in the configured timezone. Otherwise
// the job is enqueued for immediate execution and the caller is told
// "submitted", not "delivered".
func (svc *Service) SubmitQuiz(ctx context.Context, req QuizSendRequest) DeliveryOutcome {
	job := Job{ChatID: req.ChatID, Questions: req.Questions}

	if req.Scheduled() {
		at, err := svc.combineSchedule(req.ScheduleDate, req.ScheduleTime)
		if err == nil {
			job.ExecuteAt = at
			_, err = svc.sched.Enqueue(ctx, job)
		}
		if err != nil {
			return DeliveryOutcome{Message: MsgQuizScheduleFailed, Errors: err.Error()}
		}
		return DeliveryOutcome{
			Success: true,
			Message: fmt.Sprintf(MsgQuizScheduled, at.Format(scheduleDisplayFormat)),
		}
	}

	job.ExecuteAt = NowFunc().In(svc.conf.Location())
	if _, err := svc.sched.Enqueue(ctx, job); err != nil {
		return DeliveryOutcome{Message: MsgQuizScheduleFailed, Errors: err.Error()}
	}
	return DeliveryOutcome{Success: true, Message: MsgQuizSentNow}
}

// SendPoll sends a single poll synchronously. Transport faults are converted
// into a failure outcome; they never propagate to the caller.
func (svc *Service) SendPoll(ctx context.Context, req PollSendRequest) DeliveryOutcome {
	if err := svc.gw.SendPoll(ctx, req.ChatID, req.Question, req.Options); err != nil {
		if gwErr, ok := errors.Cause(err).(*GatewayError); ok && !gwErr.Transport() {
			return DeliveryOutcome{Message: MsgTelegramAPIError, Errors: gwErr.Detail}
		}
		return DeliveryOutcome{
			Message: MsgTelegramUnreachable,
			Errors:  map[string]string{"exception": err.Error()},
		}
	}
	return DeliveryOutcome{Success: true, Message: MsgPollSent}
}

// RunJob delivers a deferred quiz: one poll per question, each sent
// independently. A failed question does not stop the remaining ones.
func (svc *Service) RunJob(ctx context.Context, job Job) error {
	var failed int
	var firstErr error
	for _, q := range job.Questions {
		if err := svc.gw.SendPoll(ctx, job.ChatID, q.Text, q.Options); err != nil {
			svc.logger.Error(fmt.Sprintf("job %s: sending poll %q to chat %d: %v", job.ID, q.Text, job.ChatID, err), err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if failed > 0 {
		return errors.Wrapf(firstErr, "%d/%d polls failed", failed, len(job.Questions))
	}
	return nil
}

func (svc *Service) combineSchedule(date, clock string) (time.Time, error) {
	at, err := time.ParseInLocation(
		core.DateFormat+" "+core.TimeFormat,
		date+" "+clock,
		svc.conf.Location(),
	)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "combining schedule date and time")
	}
	return at, nil
}
