package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mprata/pollclass/core"
	"github.com/mprata/pollclass/core/quiz"
	"github.com/mprata/pollclass/core/user"
)

const (
	startCommand      = "/start"
	msgWebhookWelcome = "Vamos começar 🖥️\nUse o botão abaixo para criar uma enquete!"
	webhookButtonText = "Criar enquete"
)

type webhookApi struct {
	conf    *core.Config
	logger  core.Logger
	gw      quiz.Gateway
	tgUsers user.TelegramUserRepository
}

func registerWebhookAPI(app *echo.Echo, deps ServerDeps) {
	api := webhookApi{
		conf:    deps.Conf,
		logger:  deps.Logger,
		gw:      deps.Gateway,
		tgUsers: deps.TgUserRepo,
	}

	app.POST("/telegram/webhook", api.receive)
}

// telegramUpdate is the slice of the Bot API update payload we care about.
type telegramUpdate struct {
	Message struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			ID        int64  `json:"id"`
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
		} `json:"from"`
	} `json:"message"`
}

// receive always acknowledges with 200 so Telegram does not retry; processing
// failures are logged, never surfaced.
func (api *webhookApi) receive(ctx echo.Context) error {
	var update telegramUpdate
	if err := ctx.Bind(&update); err == nil && update.Message.Text == startCommand {
		api.handleStart(ctx.Request().Context(), update)
	}
	return ctx.JSON(http.StatusOK, dataResponse{Data: echo.Map{"status": "ok"}})
}

func (api *webhookApi) handleStart(ctx context.Context, update telegramUpdate) {
	nickname := update.Message.From.Username
	if nickname == "" {
		nickname = update.Message.From.FirstName
	}
	if update.Message.From.ID != 0 {
		tgUsr := user.TelegramUser{TelegramID: update.Message.From.ID, Nickname: nickname}
		if _, err := api.tgUsers.UpsertTelegramUser(ctx, tgUsr); err != nil {
			api.logger.Error(fmt.Sprintf("recording telegram user %d: %v", tgUsr.TelegramID, err), err)
		}
	}

	button := quiz.WebAppButton{Text: webhookButtonText, URL: api.conf.WebAppURL}
	if err := api.gw.SendMessage(ctx, update.Message.Chat.ID, msgWebhookWelcome, button); err != nil {
		api.logger.Error(fmt.Sprintf("sending welcome to chat %d: %v", update.Message.Chat.ID, err), err)
	}
}
