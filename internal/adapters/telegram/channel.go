package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hotel_scout/internal/domain"
)

// Channel delivers controller output over the Telegram Bot API. The session id
// is the Telegram chat id.
type Channel struct {
	bot *tgbotapi.BotAPI
}

func NewChannel(bot *tgbotapi.BotAPI) *Channel { return &Channel{bot: bot} }

func (c *Channel) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("send text to chat %d: %w", chatID, err)
	}
	return nil
}

func (c *Channel) SendChoices(ctx context.Context, chatID int64, text string, choices []domain.Choice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buildRows(choices)...)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send choices to chat %d: %w", chatID, err)
	}
	return nil
}

// SendHotelCard sends the caption with an album of photos, or plain text when
// no photos were requested.
func (c *Channel) SendHotelCard(ctx context.Context, chatID int64, caption string, photoURLs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(photoURLs) == 0 {
		return c.SendText(ctx, chatID, caption)
	}
	media := make([]interface{}, 0, len(photoURLs))
	for i, u := range photoURLs {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(u))
		if i == 0 {
			photo.Caption = caption
		}
		media = append(media, photo)
	}
	if _, err := c.bot.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media)); err != nil {
		return fmt.Errorf("send hotel card to chat %d: %w", chatID, err)
	}
	return nil
}

// buildRows lays short numeric options out in compact rows and gives longer
// labels a full row each.
func buildRows(choices []domain.Choice) [][]tgbotapi.InlineKeyboardButton {
	perRow := 1
	if allShort(choices) {
		perRow = 5
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, ch := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(ch.Label, ch.Data))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func allShort(choices []domain.Choice) bool {
	for _, ch := range choices {
		if len(ch.Label) > 3 {
			return false
		}
	}
	return true
}
