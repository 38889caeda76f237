package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/user"
)

var errHTTPForbidden = core.NewPermissionError(errors.New("Permissão negada."))

type (
	// dataResponse is the envelope wrapping every API response body.
	dataResponse struct {
		Data interface{} `json:"data"`
	}

	failPayload struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Errors  interface{} `json:"errors,omitempty"`
	}

	// apiFailError carries a ready-to-serialize failure payload from a handler
	// to the error handler.
	apiFailError struct {
		code    int
		message string
		errors  interface{}
	}
)

func (e *apiFailError) Error() string { return e.message }

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders all
// errors in the response envelope.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		payload := failPayload{Message: http.StatusText(http.StatusInternalServerError)}

		switch origErr := errors.Cause(err).(type) {
		case *apiFailError:
			code = origErr.code
			payload.Message = origErr.message
			payload.Errors = origErr.errors
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				payload.Message = fmt.Sprintf("%v", origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			payload.Message = fmt.Sprintf("%v", origErr.Message)
		case *core.ValidationError:
			code = http.StatusBadRequest
			payload.Message = origErr.Error()
			if origErr.Fields != nil {
				payload.Errors = fieldsToMap(origErr.Fields)
			}
		case *core.AuthenticationError:
			code = http.StatusUnauthorized
			payload.Message = origErr.Error()
			if origErr.Fields != nil {
				payload.Errors = fieldsToMap(origErr.Fields)
			}
		case *core.PermissionError:
			code = http.StatusForbidden
			payload.Message = origErr.Error()
			if origErr.Fields != nil {
				payload.Errors = fieldsToMap(origErr.Fields)
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			payload.Message = origErr.Error()
		default: // any other error is a server error
			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Name = claims.Name
				usr.Email = claims.Email
			}
			logger.Error(payload.Message, errors.Wrap(err, payload.Message), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, dataResponse{Data: payload})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// fieldErrors flattens a validation error into the {"field": ["msg", ...]}
// shape the API reports. A nil return means err is not a validation error.
func fieldErrors(err error, translator ut.Translator) map[string][]string {
	switch vErrs := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := make(map[string][]string, len(vErrs))
		for _, vErr := range vErrs {
			fldErrs[vErr.Field()] = append(fldErrs[vErr.Field()], vErr.Translate(translator))
		}
		return fldErrs
	case *core.ValidationError:
		return fieldsToMap(vErrs.Fields)
	}
	return nil
}

func fieldsToMap(fields []core.FieldError) map[string][]string {
	fldErrs := make(map[string][]string, len(fields))
	for _, fErr := range fields {
		fldErrs[fErr.Field] = append(fldErrs[fErr.Field], fErr.Error)
	}
	return fldErrs
}
