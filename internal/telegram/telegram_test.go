package telegram

import (
	"testing"

	"safc/internal/conversation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEventCommand(t *testing.T) {
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 5,
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      "/search Zhang",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}},
	}}

	sid, ev, ok := ToEvent(upd)
	require.True(t, ok)
	assert.Equal(t, "42", sid)
	assert.Equal(t, conversation.EventCommand, ev.Kind)
	assert.Equal(t, "search", ev.Command)
	assert.Equal(t, "Zhang", ev.Text)
	assert.Equal(t, conversation.Address{ChatID: 42, MessageID: 5}, ev.Address)
}

func TestToEventText(t *testing.T) {
	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 6,
		Chat:      &tgbotapi.Chat{ID: -100},
		Text:      "清华大学",
	}}

	sid, ev, ok := ToEvent(upd)
	require.True(t, ok)
	assert.Equal(t, "-100", sid)
	assert.Equal(t, conversation.TextEvent("清华大学").Kind, ev.Kind)
	assert.Equal(t, "清华大学", ev.Text)
}

func TestToEventCallback(t *testing.T) {
	upd := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "r.2s",
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: 42}},
	}}

	sid, ev, ok := ToEvent(upd)
	require.True(t, ok)
	assert.Equal(t, "42", sid)
	assert.Equal(t, conversation.EventCallback, ev.Kind)
	assert.Equal(t, "r.2s", ev.Data)
	assert.Equal(t, conversation.Address{ChatID: 42, MessageID: 9, CallbackID: "cb1"}, ev.Address)
}

func TestToEventIgnored(t *testing.T) {
	for _, upd := range []tgbotapi.Update{
		{},
		{CallbackQuery: &tgbotapi.CallbackQuery{ID: "inline", Data: "r.1"}},
		{EditedMessage: &tgbotapi.Message{Text: "edited"}},
	} {
		_, _, ok := ToEvent(upd)
		assert.False(t, ok)
	}
}

func TestReplyMarkup(t *testing.T) {
	assert.Nil(t, replyMarkup(conversation.Keyboard{}))

	remove, ok := replyMarkup(conversation.Keyboard{Kind: conversation.KeyboardRemove}).(tgbotapi.ReplyKeyboardRemove)
	require.True(t, ok)
	assert.True(t, remove.RemoveKeyboard)

	reply, ok := replyMarkup(conversation.Keyboard{
		Kind:  conversation.KeyboardReply,
		Reply: [][]string{{"985", "211", "双一流"}, {"其他"}},
	}).(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, reply.Keyboard, 2)
	assert.Len(t, reply.Keyboard[0], 3)
	assert.Equal(t, "其他", reply.Keyboard[1][0].Text)
	assert.True(t, reply.OneTimeKeyboard)

	inline, ok := replyMarkup(conversation.Keyboard{
		Kind:   conversation.KeyboardInline,
		Inline: [][]conversation.Button{{{Text: "1", Data: "p0.1"}, {Text: "2", Data: "p1.1"}}, {{Text: "⬅ 返回", Data: "b.1"}}},
	}).(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, inline.InlineKeyboard, 2)
	require.NotNil(t, inline.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "p1.1", *inline.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "⬅ 返回", inline.InlineKeyboard[1][0].Text)
}

func TestNotModified(t *testing.T) {
	assert.True(t, notModified(&tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}))
	assert.False(t, notModified(&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}))
}
