package telegram

import (
	"context"
	"strconv"

	"safc/internal/conversation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler consumes one inbound event for one session.
type Handler interface {
	Handle(ctx context.Context, sessionID string, ev conversation.Event) error
}

// Poll 长轮询更新。同一会话的事件按到达顺序逐条处理，
// 最多 workers 个会话并行。ctx 取消后等待已接收的事件处理完毕。
func (c *Client) Poll(ctx context.Context, h Handler, workers int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	c.serve(ctx, c.bot.GetUpdatesChan(u), h, workers)
	c.bot.StopReceivingUpdates()
	return nil
}

func (c *Client) serve(ctx context.Context, updates <-chan tgbotapi.Update, h Handler, workers int) {
	d := newDispatcher(h, workers, c.log)
	defer d.wait()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			sessionID, ev, ok := ToEvent(upd)
			if !ok {
				continue
			}
			if !d.dispatch(ctx, sessionID, ev) {
				return
			}
		}
	}
}

// ToEvent 将更新转换为会话事件；会话以 chat id 为键
func ToEvent(upd tgbotapi.Update) (string, conversation.Event, bool) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if cq.Message == nil || cq.Message.Chat == nil {
			return "", conversation.Event{}, false
		}
		ev := conversation.CallbackEvent(cq.Data)
		ev.Address = conversation.Address{
			ChatID:     cq.Message.Chat.ID,
			MessageID:  cq.Message.MessageID,
			CallbackID: cq.ID,
		}
		return sessionKey(ev.Address.ChatID), ev, true

	case upd.Message != nil:
		msg := upd.Message
		if msg.Chat == nil {
			return "", conversation.Event{}, false
		}
		var ev conversation.Event
		if msg.IsCommand() {
			ev = conversation.CommandEvent(msg.Command(), msg.CommandArguments())
		} else {
			ev = conversation.TextEvent(msg.Text)
		}
		ev.Address = conversation.Address{ChatID: msg.Chat.ID, MessageID: msg.MessageID}
		return sessionKey(msg.Chat.ID), ev, true
	}
	return "", conversation.Event{}, false
}

func sessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
