package services

import (
	"context"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/store"
	"strings"
	"time"
)

const warningLifetime = 30 * time.Second

type Moderation struct {
	store   store.StateStoreInterface
	janitor *Janitor
	metrics providers.MetricsProviderInterface
	logger  providers.Logger
}

func NewModeration(stateStore store.StateStoreInterface, janitor *Janitor, metrics providers.MetricsProviderInterface, logger providers.Logger) *Moderation {
	return &Moderation{
		store:   stateStore,
		janitor: janitor,
		metrics: metrics,
		logger:  logger,
	}
}

// Scan returns the banned words contained in text, ignoring case.
func (m *Moderation) Scan(text string) []string {
	settings := m.store.Settings()
	if !settings.BannedWordsEnabled || len(settings.BannedWords) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for _, w := range settings.BannedWords {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			hits = append(hits, w)
		}
	}
	return hits
}

// Enforce removes the message when it contains a banned word and posts a
// short-lived warning. It reports whether the event was consumed.
func (m *Moderation) Enforce(ctx context.Context, ev models.Event) bool {
	hits := m.Scan(ev.Text)
	if len(hits) == 0 {
		return false
	}
	m.metrics.IncModerationHits()
	m.logger.Infof(providers.TypeBot, "Removed message %d from user %d: %d banned words", ev.MessageID, ev.UserID, len(hits))

	m.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
	_, _ = m.janitor.SendTransient(ctx, ev.ChatID, textBannedWordWarning, nil, warningLifetime)
	return true
}
