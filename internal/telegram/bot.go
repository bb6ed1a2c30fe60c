package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"stock-alert-bot/internal/commands"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
	}, nil
}

// UserName is the account the bot is logged in as.
func (b *Bot) UserName() string {
	return b.Bot.Self.UserName
}

// GetUpdatesChannel starts long polling for updates
func (b *Bot) GetUpdatesChannel() tgbotapi.UpdatesChannel {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig)
}

func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends a telegram message, as a reply when MessageID is set
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// Notify sends a direct message. Telegram private chats share the user's id.
func (b *Bot) Notify(ownerID, text string) error {
	chatID, err := strconv.ParseInt(ownerID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid telegram user id %q", ownerID)
	}
	return b.SendMessage(Message{ChatID: chatID, Text: text})
}

// NewRequest converts an incoming message for the command router.
func NewRequest(m *tgbotapi.Message) commands.Request {
	req := commands.Request{Text: m.Text}
	if m.From != nil {
		req.OwnerID = strconv.FormatInt(m.From.ID, 10)
		req.FromBot = m.From.IsBot
	}
	return req
}

// ChatName labels a chat for metrics.
func ChatName(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	return fmt.Sprintf("%s-%d", "PrivateChat", chat.ID)
}
