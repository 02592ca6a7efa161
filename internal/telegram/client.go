// Package telegram adapts the Telegram Bot API to the conversation runner.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safc/internal/conversation"
	"safc/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client 实现 conversation.Transport
type Client struct {
	bot *tgbotapi.BotAPI
	log *logger.Logger
}

func NewClient(token string, log *logger.Logger) (*Client, error) {
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	log.Info("telegram bot authorized", "username", bot.Self.UserName)
	return &Client{bot: bot, log: log}, nil
}

func (c *Client) Send(ctx context.Context, chatID int64, text string, kb conversation.Keyboard, replyTo int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if markup := replyMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Edit 只能携带内联键盘；其他键盘改为发送新消息
func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string, kb conversation.Keyboard) error {
	if kb.Kind == conversation.KeyboardReply || kb.Kind == conversation.KeyboardRemove {
		return c.Send(ctx, chatID, text, kb, 0)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var cfg tgbotapi.Chattable
	if kb.Kind == conversation.KeyboardInline {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, inlineMarkup(kb))
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := c.bot.Send(cfg); err != nil && !notModified(err) {
		return fmt.Errorf("telegram edit: %w", err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("telegram answer callback: %w", err)
	}
	return nil
}

// RegisterCommands 设置客户端的命令菜单
func (c *Client) RegisterCommands() error {
	cmds := make([]tgbotapi.BotCommand, len(Commands))
	for i, cmd := range Commands {
		cmds[i] = tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description}
	}
	if _, err := c.bot.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("telegram set commands: %w", err)
	}
	return nil
}

// Command 命令菜单条目
type Command struct {
	Name        string
	Description string
}

var Commands = []Command{
	{"start", "开始"},
	{"cancel", "终止对话"},
	{"help", "显示帮助信息"},
	{"info", "信息"},
	{"status", "统计与状态"},
	{"search", "模糊搜索导师"},
	{"find", "模糊搜索评价"},
	{"id", "按 id 打开客体或回复评价"},
}

// 重复编辑同一内容时 Telegram 返回 400
func notModified(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && strings.Contains(tgErr.Message, "message is not modified")
}

// replyMarkup 把会话键盘转换为 Bot API 的 reply_markup；无键盘时返回 nil
func replyMarkup(kb conversation.Keyboard) interface{} {
	switch kb.Kind {
	case conversation.KeyboardReply:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Reply))
		for _, r := range kb.Reply {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, text := range r {
				row = append(row, tgbotapi.NewKeyboardButton(text))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.OneTimeKeyboard = true
		markup.ResizeKeyboard = true
		return markup
	case conversation.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	case conversation.KeyboardInline:
		return inlineMarkup(kb)
	default:
		return nil
	}
}

func inlineMarkup(kb conversation.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Inline))
	for _, r := range kb.Inline {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
