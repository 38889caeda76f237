package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	. "github.com/mprata/pollclass/apps/api/echo"
	"github.com/mprata/pollclass/core/quiz"
	"github.com/mprata/pollclass/core/user"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type (
	sentPoll struct {
		chatID   int64
		question string
		options  []string
	}

	sentMessage struct {
		chatID  int64
		text    string
		buttons []quiz.WebAppButton
	}

	fakeGateway struct {
		mu       sync.Mutex
		err      error
		polls    []sentPoll
		messages []sentMessage
	}
)

var _ quiz.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) SendPoll(ctx context.Context, chatID int64, question string, options []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.polls = append(g.polls, sentPoll{chatID: chatID, question: question, options: options})
	return nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, chatID int64, text string, buttons ...quiz.WebAppButton) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.messages = append(g.messages, sentMessage{chatID: chatID, text: text, buttons: buttons})
	return nil
}

func (g *fakeGateway) reset(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
	g.polls = nil
	g.messages = nil
}

func (g *fakeGateway) sentPolls() []sentPoll {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentPoll(nil), g.polls...)
}

func (g *fakeGateway) sentMessages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.messages...)
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(t *testing.T, name, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	tokens, err := GenerateTokenPair(conf, usr)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return tokens.AccessToken
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

// envelope wraps the expected payload in the response envelope.
func envelope(t *testing.T, payload interface{}) []byte {
	return marchallObj(t, map[string]interface{}{"data": payload})
}

type failData struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

type tokensData struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Tokens  struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var res struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decodeData(): %v; body %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		t.Fatalf("decodeData(): %v; data %s", err, string(res.Data))
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
