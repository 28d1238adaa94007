package telegram

import (
	"context"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/structures"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Poller struct {
	api    BotAPI
	config *structures.Config
	logger providers.Logger
}

func NewPoller(api BotAPI, conf *structures.Config, logger providers.Logger) *Poller {
	return &Poller{api: api, config: conf, logger: logger}
}

// Run long-polls for updates and hands each convertible one to deliver
// until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context, deliver func(models.Event)) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.config.Telegram.PollTimeout
	updates := p.api.GetUpdatesChan(u)
	p.logger.Infof(providers.TypeBot, "Polling for updates")

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			p.logger.Infof(providers.TypeBot, "Stopped polling")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			ev, ok := ToEvent(update)
			if !ok {
				p.logger.Debugf(providers.TypeBot, "Skipping update %d", update.UpdateID)
				continue
			}
			deliver(ev)
		}
	}
}

// ToEvent converts text messages and callback queries. Everything else
// is reported as not convertible.
func ToEvent(update tgbotapi.Update) (models.Event, bool) {
	if msg := update.Message; msg != nil && msg.From != nil && msg.Chat != nil {
		return models.Event{
			ChatID:    msg.Chat.ID,
			UserID:    msg.From.ID,
			MessageID: msg.MessageID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			Text:      msg.Text,
		}, true
	}
	if cb := update.CallbackQuery; cb != nil && cb.From != nil {
		ev := models.Event{
			ChatID:     cb.From.ID,
			UserID:     cb.From.ID,
			Username:   cb.From.UserName,
			FirstName:  cb.From.FirstName,
			CallbackID: cb.ID,
			Data:       cb.Data,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		return ev, true
	}
	return models.Event{}, false
}
