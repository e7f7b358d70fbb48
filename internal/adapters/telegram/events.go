package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"hotel_scout/internal/app"
)

// Loop pulls updates from Telegram long polling and dispatches them to the
// conversation controller. Updates are handled sequentially; the controller
// finishes one event before the next is read.
type Loop struct {
	bot  *tgbotapi.BotAPI
	ctrl *app.Controller
	log  zerolog.Logger
}

func NewLoop(bot *tgbotapi.BotAPI, ctrl *app.Controller, log zerolog.Logger) *Loop {
	return &Loop{bot: bot, ctrl: ctrl, log: log.With().Str("component", "telegram").Logger()}
}

// Run blocks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := l.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			l.bot.StopReceivingUpdates()
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			l.dispatch(ctx, upd)
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		cb := upd.CallbackQuery
		// ack so the client stops the spinner, even if handling fails
		if _, err := l.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			l.log.Warn().Err(err).Msg("callback ack failed")
		}
		if cb.Message == nil {
			return
		}
		chatID := cb.Message.Chat.ID
		if err := l.ctrl.HandleChoice(ctx, chatID, cb.Data); err != nil {
			l.log.Error().Int64("chat_id", chatID).Str("data", cb.Data).Err(err).Msg("choice handling failed")
		}
	case upd.Message != nil:
		msg := upd.Message
		chatID := msg.Chat.ID
		profile := profileOf(msg.From)
		var err error
		switch {
		case msg.IsCommand() && msg.Command() == "start":
			err = l.ctrl.HandleStart(ctx, chatID, profile)
		case msg.IsCommand() && msg.Command() == "help":
			err = l.ctrl.HandleHelp(ctx, chatID)
		case msg.IsCommand():
			err = l.ctrl.HandleHelp(ctx, chatID)
		default:
			err = l.ctrl.HandleText(ctx, chatID, profile, msg.Text)
		}
		if err != nil {
			l.log.Error().Int64("chat_id", chatID).Err(err).Msg("message handling failed")
		}
	}
}

func profileOf(from *tgbotapi.User) app.Profile {
	if from == nil {
		return app.Profile{}
	}
	return app.Profile{
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.UserName,
	}
}
