package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprata/pollclass/core/quiz"
	"github.com/mprata/pollclass/core/user"
)

func findJobs(chatID int64) []quiz.Job {
	var jobs []quiz.Job
	for _, job := range jobRepo.Jobs() {
		if job.ChatID == chatID {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func Test_quizApi_authorization(t *testing.T) {
	professor := createUser(t, "Prof Auth", "prof.auth@uni.br", "xK9#wQv2Tz", []string{user.RoleProfessor}, true)
	student := createUser(t, "Student Auth", "student.auth@uni.br", "xK9#wQv2Tz", []string{user.RoleStudent}, true)

	body := marchallObj(t, map[string]interface{}{
		"chatId":   int64(900001),
		"question": "2+2?",
		"options":  []string{"3", "4"},
	})

	tests := []httpTest{
		{
			name:     "missing token",
			path:     "/poll/send",
			wantCode: http.StatusUnauthorized,
			wantData: envelope(t, failData{Message: "missing or malformed jwt"}),
		},
		{
			name:     "student token",
			path:     "/poll/send",
			token:    getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: envelope(t, failData{Message: "Permissão negada."}),
		},
		{
			name:     "student token on quiz",
			path:     "/quiz/send",
			token:    getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: envelope(t, failData{Message: "Permissão negada."}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway.reset(nil)
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
			assert.Empty(t, gateway.sentPolls())
		})
	}

	t.Run("professor token accepted", func(t *testing.T) {
		gateway.reset(nil)
		req, rec := newAuthRequest(http.MethodPost, "/poll/send", getToken(t, professor), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_quizApi_sendPoll(t *testing.T) {
	professor := createUser(t, "Prof Poll", "prof.poll@uni.br", "xK9#wQv2Tz", []string{user.RoleProfessor}, true)
	token := getToken(t, professor)

	t.Run("validation error", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"chatId": int64(900002), "options": []string{"only one"}})
		req, rec := newAuthRequest(http.MethodPost, "/poll/send", token, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var data failData
		decodeData(t, rec, &data)
		assert.Equal(t, "Erro de validação nos dados enviados.", data.Message)
		assert.Contains(t, data.Errors, "question")
		assert.Contains(t, data.Errors, "options")
	})

	t.Run("success", func(t *testing.T) {
		gateway.reset(nil)
		body := marchallObj(t, map[string]interface{}{
			"chatId":   int64(900003),
			"question": "Qual a capital do Brasil?",
			"options":  []string{"Rio de Janeiro", "Brasília", "São Paulo"},
		})
		req, rec := newAuthRequest(http.MethodPost, "/poll/send", token, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: envelope(t, map[string]interface{}{
				"success": true,
				"message": "Enquete enviada com sucesso.",
				"poll": map[string]interface{}{
					"chat_id":  int64(900003),
					"question": "Qual a capital do Brasil?",
					"options":  []string{"Rio de Janeiro", "Brasília", "São Paulo"},
				},
			}),
		}
		checkCodeAndData(t, tt, rec)

		polls := gateway.sentPolls()
		require.Len(t, polls, 1)
		assert.Equal(t, int64(900003), polls[0].chatID)
		assert.Equal(t, "Qual a capital do Brasil?", polls[0].question)
	})

	t.Run("telegram API error", func(t *testing.T) {
		gateway.reset(&quiz.GatewayError{Detail: map[string]interface{}{
			"ok":          false,
			"error_code":  400,
			"description": "Bad Request: chat not found",
		}})
		defer gateway.reset(nil)

		body := marchallObj(t, map[string]interface{}{
			"chatId":   int64(900004),
			"question": "2+2?",
			"options":  []string{"3", "4"},
		})
		req, rec := newAuthRequest(http.MethodPost, "/poll/send", token, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: envelope(t, map[string]interface{}{
				"success": false,
				"message": "Erro na API do Telegram.",
				"errors": map[string]interface{}{
					"ok":          false,
					"error_code":  400,
					"description": "Bad Request: chat not found",
				},
			}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("telegram unreachable", func(t *testing.T) {
		gateway.reset(&quiz.GatewayError{Err: errors.New("connection refused")})
		defer gateway.reset(nil)

		body := marchallObj(t, map[string]interface{}{
			"chatId":   int64(900005),
			"question": "2+2?",
			"options":  []string{"3", "4"},
		})
		req, rec := newAuthRequest(http.MethodPost, "/poll/send", token, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var data struct {
			Success bool              `json:"success"`
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		decodeData(t, rec, &data)
		assert.False(t, data.Success)
		assert.Equal(t, "Falha na comunicação com o Telegram.", data.Message)
		assert.Contains(t, data.Errors["exception"], "connection refused")
	})
}

func Test_quizApi_sendQuiz(t *testing.T) {
	professor := createUser(t, "Prof Quiz", "prof.quiz@uni.br", "xK9#wQv2Tz", []string{user.RoleProfessor}, true)
	token := getToken(t, professor)

	questions := []map[string]interface{}{
		{"text": "2+2?", "options": []string{"3", "4"}, "correct": 1},
		{"text": "3*3?", "options": []string{"9", "6"}, "correct": 0},
	}

	t.Run("validation error", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"chatId": int64(910001),
			"questions": []map[string]interface{}{
				{"text": "2+2?", "options": []string{"3", "4"}, "correct": 5},
			},
		})
		req, rec := newAuthRequest(http.MethodPost, "/quiz/send", token, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var data failData
		decodeData(t, rec, &data)
		assert.Equal(t, "Erro de validação nos dados enviados.", data.Message)
		assert.Empty(t, findJobs(910001))
	})

	t.Run("bad schedule date", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"chatId":        int64(910002),
			"questions":     questions,
			"schedule_date": "01/12/2026",
			"schedule_time": "14:30",
		})
		req, rec := newAuthRequest(http.MethodPost, "/quiz/send", token, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var data failData
		decodeData(t, rec, &data)
		assert.Contains(t, data.Errors, "schedule_date")
		assert.Empty(t, findJobs(910002))
	})

	t.Run("immediate", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"chatId":    int64(910003),
			"questions": questions,
		})
		req, rec := newAuthRequest(http.MethodPost, "/quiz/send", token, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: envelope(t, map[string]interface{}{
				"success": true,
				"message": "Quizzes enviados imediatamente.",
			}),
		}
		checkCodeAndData(t, tt, rec)

		jobs := findJobs(910003)
		require.Len(t, jobs, 1)
		assert.Equal(t, quiz.JobPending, jobs[0].Status)
		assert.Len(t, jobs[0].Questions, 2)
		assert.WithinDuration(t, time.Now(), jobs[0].ExecuteAt, time.Minute)
	})

	t.Run("scheduled", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"chatId":        int64(910004),
			"questions":     questions,
			"schedule_date": "2026-12-01",
			"schedule_time": "14:30",
		})
		req, rec := newAuthRequest(http.MethodPost, "/quiz/send", token, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: envelope(t, map[string]interface{}{
				"success": true,
				"message": "Quizzes agendados para 01/12/2026 14:30.",
			}),
		}
		checkCodeAndData(t, tt, rec)

		jobs := findJobs(910004)
		require.Len(t, jobs, 1)
		assert.Equal(t, quiz.JobPending, jobs[0].Status)
		want := time.Date(2026, time.December, 1, 14, 30, 0, 0, conf.Location())
		assert.True(t, jobs[0].ExecuteAt.Equal(want), "ExecuteAt = %v; want %v", jobs[0].ExecuteAt, want)
	})

	t.Run("date without time is immediate", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"chatId":        int64(910005),
			"questions":     questions,
			"schedule_date": "2026-12-01",
		})
		req, rec := newAuthRequest(http.MethodPost, "/quiz/send", token, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var data failData
		decodeData(t, rec, &data)
		assert.Equal(t, "Quizzes enviados imediatamente.", data.Message)

		jobs := findJobs(910005)
		require.Len(t, jobs, 1)
		assert.WithinDuration(t, time.Now(), jobs[0].ExecuteAt, time.Minute)
	})
}
