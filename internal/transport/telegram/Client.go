package telegram

import (
	"context"
	"gatebot/internal/models"
	"gatebot/internal/structures"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

func NewBotAPI(conf *structures.Config) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(conf.Telegram.Token)
	if err != nil {
		return nil, err
	}
	api.Debug = conf.Debug
	return api, nil
}

// Client implements interfaces.TransportInterface on the Bot API. The
// library does not take a context, so ctx only marks the call as blocking.
type Client struct {
	api BotAPI
}

func NewClient(api BotAPI) *Client {
	return &Client{api: api}
}

func (c *Client) SendText(_ context.Context, chatID int64, text string, kb models.Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := replyMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) EditText(_ context.Context, chatID int64, messageID int, text string, kb models.Keyboard) error {
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if !kb.IsReply() && len(kb) > 0 {
		markup := inlineMarkup(kb)
		cfg.ReplyMarkup = &markup
	}
	_, err := c.api.Request(cfg)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func (c *Client) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (c *Client) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	_, err := c.api.Request(cfg)
	return err
}

// GetChatMember looks the user up in a public channel given as "@name".
func (c *Client) GetChatMember(_ context.Context, channelRef string, userID int64) (string, error) {
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channelRef,
			UserID:             userID,
		},
	})
	if err != nil {
		return "", err
	}
	return member.Status, nil
}

func (c *Client) SendVideo(_ context.Context, chatID int64, path, caption string) (int, error) {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true
	sent, err := c.api.Send(video)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func replyMarkup(kb models.Keyboard) interface{} {
	if len(kb) == 0 {
		return nil
	}
	if kb.IsReply() {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb))
		for _, row := range kb {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	}
	return inlineMarkup(kb)
}

func inlineMarkup(kb models.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
