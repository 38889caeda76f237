package telegramsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/quiz"
)

const (
	sendMessageEndpoint = "/sendMessage"
	sendPollEndpoint    = "/sendPoll"
)

type (
	sendPollRequest struct {
		ChatID      int64    `json:"chat_id"`
		Question    string   `json:"question"`
		Options     []string `json:"options"`
		IsAnonymous bool     `json:"is_anonymous"`
	}

	sendMessageRequest struct {
		ChatID      int64        `json:"chat_id"`
		Text        string       `json:"text"`
		ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
	}

	replyMarkup struct {
		InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
	}

	inlineButton struct {
		Text   string  `json:"text"`
		WebApp *webApp `json:"web_app,omitempty"`
	}

	webApp struct {
		URL string `json:"url"`
	}

	service struct {
		baseURL string
		client  *http.Client
	}
)

var _ quiz.Gateway = (*service)(nil)

// NewService returns a quiz.Gateway backed by the Telegram Bot API at
// conf.Telegram.BaseURL with the bot token appended. Calls block for at most
// conf.Telegram.Timeout.
func NewService(conf *core.Config) *service {
	return &service{
		baseURL: conf.Telegram.BaseURL + conf.Telegram.BotToken,
		client:  &http.Client{Timeout: conf.Telegram.Timeout},
	}
}

func (svc *service) SendPoll(ctx context.Context, chatID int64, question string, options []string) error {
	return svc.post(ctx, sendPollEndpoint, sendPollRequest{
		ChatID:      chatID,
		Question:    question,
		Options:     options,
		IsAnonymous: false,
	})
}

func (svc *service) SendMessage(ctx context.Context, chatID int64, text string, buttons ...quiz.WebAppButton) error {
	req := sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}
	if len(buttons) > 0 {
		row := make([]inlineButton, 0, len(buttons))
		for _, b := range buttons {
			row = append(row, inlineButton{Text: b.Text, WebApp: &webApp{URL: b.URL}})
		}
		req.ReplyMarkup = &replyMarkup{InlineKeyboard: [][]inlineButton{row}}
	}
	return svc.post(ctx, sendMessageEndpoint, req)
}

// post sends one JSON-encoded request and interprets the HTTP status code:
// 200 is success, anything else is a *quiz.GatewayError carrying the decoded
// response body. Transport faults come back as a *quiz.GatewayError with Err
// set. No retries.
func (svc *service) post(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := svc.client.Do(req)
	if err != nil {
		return &quiz.GatewayError{Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		var detail interface{}
		if err = json.NewDecoder(res.Body).Decode(&detail); err != nil {
			detail = map[string]string{"status": res.Status}
		}
		return &quiz.GatewayError{Detail: detail}
	}
	return nil
}
