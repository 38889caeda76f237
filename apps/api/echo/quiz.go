package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/quiz"
)

const msgSendValidation = "Erro de validação nos dados enviados."

type quizApi struct {
	conf       *core.Config
	svc        quiz.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerQuizAPI(app *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{
		conf:       deps.Conf,
		svc:        deps.QuizSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	app.POST("/poll/send", api.sendPoll, jwt, professorMiddleware())
	app.POST("/quiz/send", api.sendQuiz, jwt, professorMiddleware())
}

type (
	// pollPayload echoes the delivered poll back on success.
	pollPayload struct {
		quiz.DeliveryOutcome
		Poll *pollEcho `json:"poll,omitempty"`
	}

	pollEcho struct {
		ChatID   int64    `json:"chat_id"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
)

// Handlers

func (api *quizApi) sendPoll(ctx echo.Context) error {
	var data quiz.PollSendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PollSendRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		if fldErrs := fieldErrors(err, api.translator); fldErrs != nil {
			return &apiFailError{code: http.StatusBadRequest, message: msgSendValidation, errors: fldErrs}
		}
		return err
	}

	outcome := api.svc.SendPoll(ctx.Request().Context(), data)

	payload := pollPayload{DeliveryOutcome: outcome}
	code := http.StatusOK
	if outcome.Success {
		payload.Poll = &pollEcho{ChatID: data.ChatID, Question: data.Question, Options: data.Options}
	} else {
		code = http.StatusInternalServerError
	}
	return ctx.JSON(code, dataResponse{Data: payload})
}

func (api *quizApi) sendQuiz(ctx echo.Context) error {
	var data quiz.QuizSendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizSendRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		if fldErrs := fieldErrors(err, api.translator); fldErrs != nil {
			return &apiFailError{code: http.StatusBadRequest, message: msgSendValidation, errors: fldErrs}
		}
		return err
	}

	outcome := api.svc.SubmitQuiz(ctx.Request().Context(), data)

	code := http.StatusOK
	if !outcome.Success {
		code = http.StatusInternalServerError
	}
	return ctx.JSON(code, dataResponse{Data: outcome})
}
