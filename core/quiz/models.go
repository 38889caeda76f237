package quiz

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Question is a single multiple-choice question sent as a native Telegram poll.
type Question struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectOption int      `json:"correct"`
}

// QuizSendRequest asks for an ordered sequence of Questions to be delivered to
// a Telegram chat, either immediately or at a future date/time.
// schedule_date and schedule_time are mutually dependent: scheduled delivery
// only triggers when both are present; otherwise delivery is immediate.
type QuizSendRequest struct {
	ChatID       int64      `json:"chatId" validate:"required"`
	Questions    []Question `json:"questions" validate:"required,min=1,dive"`
	ScheduleDate string     `json:"schedule_date" validate:"omitempty,dateformat"`
	ScheduleTime string     `json:"schedule_time" validate:"omitempty,timeformat"`
}

// Scheduled reports whether both schedule fields are present.
func (r *QuizSendRequest) Scheduled() bool {
	return r.ScheduleDate != "" && r.ScheduleTime != ""
}

func (r *QuizSendRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// PollSendRequest is the simpler, immediate-only variant: one question, sent
// synchronously.
type PollSendRequest struct {
	ChatID   int64    `json:"chatId" validate:"required"`
	Question string   `json:"question" validate:"required"`
	Options  []string `json:"options" validate:"required,min=2,dive,required"`
}

func (r *PollSendRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// DeliveryOutcome reports the result of a dispatch back to the caller. It is
// transient; the scheduled path has no feedback channel to the original caller.
type DeliveryOutcome struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Job statuses
const (
	JobPending = "pending"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job is a quiz dispatch deferred to the scheduler. It is executed at or after
// ExecuteAt, best-effort, with no exactness or dedup guarantee.
type Job struct {
	ID        string     `json:"id"`
	ChatID    int64      `json:"chat_id"`
	Questions []Question `json:"questions"`
	ExecuteAt time.Time  `json:"execute_at"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"` // UTC
	UpdatedAt time.Time  `json:"updated_at"` // UTC
}

// WebAppButton is an inline keyboard button deep-linking to a web app.
type WebAppButton struct {
	Text string
	URL  string
}

// GatewayError is a failed Telegram Bot API call. Either Detail is set (the
// decoded non-200 response body) or Err is set (a transport-level failure).
type GatewayError struct {
	Detail interface{}
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("telegram API error: %v", e.Detail)
}

// Transport reports whether the call failed before reaching the Telegram API.
func (e *GatewayError) Transport() bool {
	return e.Err != nil
}
