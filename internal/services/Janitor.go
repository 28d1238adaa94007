package services

import (
	"context"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/scheduler"
	"gatebot/internal/store"
	"time"
)

// Janitor deletes chat messages, now or after a delay.
type Janitor struct {
	transport interfaces.TransportInterface
	deferred  scheduler.DeferredSchedulerInterface
	store     store.StateStoreInterface
	logger    providers.Logger
}

func NewJanitor(transport interfaces.TransportInterface, deferred scheduler.DeferredSchedulerInterface, stateStore store.StateStoreInterface, logger providers.Logger) *Janitor {
	j := &Janitor{
		transport: transport,
		deferred:  deferred,
		store:     stateStore,
		logger:    logger,
	}
	deferred.Register(scheduler.KindMessageDeletion, j.handle)
	return j
}

// ScheduleDeletion queues a message for removal. A zero delay uses the
// configured deletion time. Nothing is queued while auto deletion is off.
func (j *Janitor) ScheduleDeletion(chatID int64, messageID int, delay time.Duration) bool {
	settings := j.store.Settings()
	if !settings.AutoDeleteEnabled {
		return false
	}
	if delay <= 0 {
		delay = time.Duration(settings.MessageDeletionTime) * time.Second
	}
	j.deferred.Schedule(scheduler.MessageKey(chatID, messageID), scheduler.KindMessageDeletion, delay, scheduler.Payload{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return true
}

// Delete removes a message right away and drops any pending deletion of it.
func (j *Janitor) Delete(ctx context.Context, chatID int64, messageID int) bool {
	j.deferred.Cancel(scheduler.MessageKey(chatID, messageID))
	if err := j.transport.DeleteMessage(ctx, chatID, messageID); err != nil {
		j.logger.Warnf(providers.TypeBot, "Unable to delete message %d in chat %d: %s", messageID, chatID, err)
		return false
	}
	return true
}

// SendTransient sends text and schedules it for deletion.
func (j *Janitor) SendTransient(ctx context.Context, chatID int64, text string, kb models.Keyboard, delay time.Duration) (int, error) {
	id, err := j.transport.SendText(ctx, chatID, text, kb)
	if err != nil {
		j.logger.Warnf(providers.TypeBot, "Unable to send message to chat %d: %s", chatID, err)
		return 0, err
	}
	j.ScheduleDeletion(chatID, id, delay)
	return id, nil
}

func (j *Janitor) handle(ctx context.Context, task scheduler.Task) {
	p := task.Payload
	if err := j.transport.DeleteMessage(ctx, p.ChatID, p.MessageID); err != nil {
		j.logger.Warnf(providers.TypeScheduler, "Scheduled deletion of message %d in chat %d failed: %s", p.MessageID, p.ChatID, err)
	}
}
