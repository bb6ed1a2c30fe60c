package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest(&tgbotapi.Message{
		Text: "!stock AAPL",
		From: &tgbotapi.User{ID: 123456789, IsBot: false},
	})
	assert.Equal(t, "123456789", req.OwnerID)
	assert.Equal(t, "!stock AAPL", req.Text)
	assert.False(t, req.FromBot)

	req = NewRequest(&tgbotapi.Message{
		Text: "!alert list",
		From: &tgbotapi.User{ID: 1, IsBot: true},
	})
	assert.True(t, req.FromBot)

	req = NewRequest(&tgbotapi.Message{Text: "channel post"})
	assert.Empty(t, req.OwnerID)
}

func TestChatName(t *testing.T) {
	assert.Equal(t, "traders", ChatName(&tgbotapi.Chat{ID: -100, Title: "traders"}))
	assert.Equal(t, "PrivateChat-42", ChatName(&tgbotapi.Chat{ID: 42}))
}

func TestNotifyRejectsNonNumericOwner(t *testing.T) {
	b := &Bot{}
	assert.Error(t, b.Notify("not-a-number", "hi"))
}
