package services

import (
	"context"
	"crypto/subtle"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/scheduler"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"strings"
	"sync"
	"time"
)

const pinErrorLifetime = 60 * time.Second

// AuthGate moves a user from idle to awaiting_pin on the trigger phrase
// and from awaiting_pin to elevated on a matching PIN. Elevation lasts
// admin.elevationTTL; zero keeps it until the user exits.
type AuthGate struct {
	config    *structures.Config
	store     store.StateStoreInterface
	users     *UserService
	conv      *Conversations
	janitor   *Janitor
	views     *Views
	transport interfaces.TransportInterface
	deferred  scheduler.DeferredSchedulerInterface
	logger    providers.Logger
	now       func() time.Time

	mu       sync.Mutex
	elevated map[int64]time.Time
}

func NewAuthGate(conf *structures.Config, stateStore store.StateStoreInterface, users *UserService, conv *Conversations, janitor *Janitor, views *Views, transport interfaces.TransportInterface, deferred scheduler.DeferredSchedulerInterface, logger providers.Logger) *AuthGate {
	a := &AuthGate{
		config:    conf,
		store:     stateStore,
		users:     users,
		conv:      conv,
		janitor:   janitor,
		views:     views,
		transport: transport,
		deferred:  deferred,
		logger:    logger,
		now:       time.Now,
		elevated:  make(map[int64]time.Time),
	}
	deferred.Register(scheduler.KindElevationExpiry, a.handle)
	return a
}

func (a *AuthGate) IsTrigger(text string) bool {
	phrase := a.config.Admin.TriggerPhrase
	return phrase != "" && strings.TrimSpace(text) == phrase
}

// OnTriggerPhrase hides the trigger and asks for the PIN.
func (a *AuthGate) OnTriggerPhrase(ctx context.Context, ev models.Event) {
	a.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
	if a.conv.IsActive(ev.UserID) {
		_, _ = a.janitor.SendTransient(ctx, ev.ChatID, textFlowBusy, nil, warningLifetime)
		return
	}

	promptID, err := a.transport.SendText(ctx, ev.ChatID, textPINPrompt, nil)
	if err != nil {
		a.logger.Warnf(providers.TypeBot, "Unable to send PIN prompt to chat %d: %s", ev.ChatID, err)
		return
	}
	err = a.conv.Begin(ev.UserID, models.ConversationState{
		Flow:      models.FlowAdminPIN,
		ChatID:    ev.ChatID,
		MessageID: promptID,
		StartedAt: a.now(),
	})
	if err != nil {
		a.janitor.Delete(ctx, ev.ChatID, promptID)
		return
	}
	a.janitor.ScheduleDeletion(ev.ChatID, promptID, 0)
	a.logger.Infof(providers.TypeBot, "Admin PIN requested by user %d", ev.UserID)
}

// HandlePIN completes an awaiting_pin flow. The input is deleted before it
// is checked and never logged.
func (a *AuthGate) HandlePIN(ctx context.Context, ev models.Event, state models.ConversationState) bool {
	a.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
	if state.MessageID != 0 {
		a.janitor.Delete(ctx, state.ChatID, state.MessageID)
	}

	if !a.matches(strings.TrimSpace(ev.Text)) {
		_ = a.users.LogCommand(ev.UserID, "admin_access_denied")
		a.logger.Warnf(providers.TypeBot, "Admin access denied for user %d", ev.UserID)
		_, _ = a.janitor.SendTransient(ctx, ev.ChatID, textPINDenied, nil, pinErrorLifetime)
		return false
	}

	a.Elevate(ev.UserID)
	_ = a.users.LogCommand(ev.UserID, "admin_access_granted")
	a.logger.Infof(providers.TypeBot, "Admin access granted to user %d", ev.UserID)

	text, kb, _ := a.views.Render(ViewDashboard)
	if _, err := a.transport.SendText(ctx, ev.ChatID, text, kb); err != nil {
		a.logger.Warnf(providers.TypeBot, "Unable to send dashboard to chat %d: %s", ev.ChatID, err)
	}
	return true
}

func (a *AuthGate) Elevate(userID int64) {
	ttl := a.config.Admin.ElevationTTL
	var until time.Time
	if ttl > 0 {
		until = a.now().Add(ttl)
	}

	a.mu.Lock()
	a.elevated[userID] = until
	a.mu.Unlock()

	if ttl > 0 {
		a.deferred.Schedule(scheduler.ElevationKey(userID), scheduler.KindElevationExpiry, ttl, scheduler.Payload{UserID: userID})
	}
}

func (a *AuthGate) Revoke(userID int64) {
	a.deferred.Cancel(scheduler.ElevationKey(userID))
	a.mu.Lock()
	delete(a.elevated, userID)
	a.mu.Unlock()
}

func (a *AuthGate) IsElevated(userID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	until, ok := a.elevated[userID]
	if !ok {
		return false
	}
	if !until.IsZero() && !a.now().Before(until) {
		delete(a.elevated, userID)
		return false
	}
	return true
}

func (a *AuthGate) matches(pin string) bool {
	if pin == "" {
		return false
	}
	if equalPIN(pin, a.config.Admin.PIN) {
		return true
	}
	stored := a.store.Settings().AdminPIN
	return stored != "" && equalPIN(pin, stored)
}

func equalPIN(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (a *AuthGate) handle(_ context.Context, task scheduler.Task) {
	a.mu.Lock()
	delete(a.elevated, task.Payload.UserID)
	a.mu.Unlock()
	a.logger.Infof(providers.TypeBot, "Admin session of user %d expired", task.Payload.UserID)
}
