package services

import (
	"context"
	"errors"
	"fmt"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"strings"
	"time"
)

const (
	returnDelay          = 3 * time.Second
	returnDelayPINChange = 5 * time.Second
)

var flowPrompts = map[models.FlowTag]string{
	models.FlowNewPIN:           "🔑 Send the new 6-digit PIN.\n\n/cancel to abort.",
	models.FlowBannedWord:       "🚫 Send the word to ban.\n\n/cancel to abort.",
	models.FlowPromotionChannel: "📢 Send the new promotion channel (https://t.me/... or @name).\n\n/cancel to abort.",
	models.FlowHelpChannel:      "💬 Send the new help channel (https://t.me/... or @name).\n\n/cancel to abort.",
	models.FlowAdminBroadcast:   "💬 Send the message for %s.\n\n/cancel to abort.",
}

var flowHomes = map[models.FlowTag]string{
	models.FlowNewPIN:           ViewDashboard,
	models.FlowBannedWord:       ViewBannedWords,
	models.FlowPromotionChannel: ViewChannelSettings,
	models.FlowHelpChannel:      ViewChannelSettings,
}

// Flows runs the admin input flows that follow a prompt: the next text
// from the user completes the flow exactly once.
type Flows struct {
	conv      *Conversations
	settings  *SettingsService
	users     *UserService
	views     *Views
	janitor   *Janitor
	transport interfaces.TransportInterface
	logger    providers.Logger
	now       func() time.Time
}

func NewFlows(conv *Conversations, settings *SettingsService, users *UserService, views *Views, janitor *Janitor, transport interfaces.TransportInterface, logger providers.Logger) *Flows {
	return &Flows{
		conv:      conv,
		settings:  settings,
		users:     users,
		views:     views,
		janitor:   janitor,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
}

// Start turns the callback's message into the prompt of flow. target is
// the recipient of a broadcast and is ignored otherwise.
func (f *Flows) Start(ctx context.Context, ev models.Event, flow models.FlowTag, target *models.User) error {
	prompt, ok := flowPrompts[flow]
	if !ok {
		return ErrUnsupportedFlow
	}
	state := models.ConversationState{
		Flow:      flow,
		ChatID:    ev.ChatID,
		MessageID: ev.MessageID,
		StartedAt: f.now(),
	}
	if flow == models.FlowAdminBroadcast {
		if target == nil {
			return ErrUserNotFound
		}
		state.TargetUserID = target.UserID
		state.TargetName = target.DisplayName()
		prompt = fmt.Sprintf(prompt, state.TargetName)
	}
	if err := f.conv.Begin(ev.UserID, state); err != nil {
		return err
	}
	return f.transport.EditText(ctx, ev.ChatID, ev.MessageID, prompt, nil)
}

// Complete applies the input that ends state. Validation failures end the
// flow too; the admin starts it again from the panel.
func (f *Flows) Complete(ctx context.Context, ev models.Event, state models.ConversationState) {
	f.janitor.Delete(ctx, ev.ChatID, ev.MessageID)

	var (
		text  string
		home  = homeOf(state)
		delay = returnDelay
		err   error
	)
	switch state.Flow {
	case models.FlowNewPIN:
		err = f.settings.SetPIN(strings.TrimSpace(ev.Text))
		text = "✅ Admin PIN updated. Use the new PIN next time."
		delay = returnDelayPINChange
	case models.FlowBannedWord:
		var word string
		word, err = f.settings.AddBannedWord(ev.Text)
		text = fmt.Sprintf("✅ Added banned word: %s", word)
	case models.FlowPromotionChannel, models.FlowHelpChannel:
		var ref string
		ref, err = f.settings.SetChannel(state.Flow, ev.Text)
		text = fmt.Sprintf("✅ Channel updated: %s", ref)
	case models.FlowAdminBroadcast:
		text, err = f.broadcast(ctx, ev, state)
	default:
		err = ErrUnsupportedFlow
	}

	if err != nil {
		f.logger.Infof(providers.TypeBot, "Flow %s of user %d rejected: %s", state.Flow, ev.UserID, err)
		var kb models.Keyboard
		if home != "" {
			kb = backTo("🔙 Back", home)
		}
		f.edit(ctx, state, flowErrorText(err), kb)
		return
	}
	f.logger.Infof(providers.TypeBot, "Flow %s of user %d completed", state.Flow, ev.UserID)
	f.edit(ctx, state, text, nil)
	f.views.ReturnLater(state.ChatID, state.MessageID, home, delay)
}

// Cancel drops the user's flow and restores its prompt.
func (f *Flows) Cancel(ctx context.Context, ev models.Event) bool {
	state, ok := f.conv.Consume(ev.UserID)
	if !ok {
		return false
	}
	f.janitor.Delete(ctx, ev.ChatID, ev.MessageID)
	f.edit(ctx, state, textFlowCancelled, nil)
	if home := homeOf(state); home != "" {
		f.views.ReturnLater(state.ChatID, state.MessageID, home, returnDelay)
	}
	return true
}

func (f *Flows) broadcast(ctx context.Context, ev models.Event, state models.ConversationState) (string, error) {
	body := strings.TrimSpace(ev.Text)
	if body == "" {
		return "", ErrEmptyBroadcast
	}
	if _, err := f.transport.SendText(ctx, state.TargetUserID, "📨 Message from the administrator:\n\n"+body, nil); err != nil {
		f.logger.Warnf(providers.TypeBot, "Unable to deliver admin message to user %d: %s", state.TargetUserID, err)
		return "", fmt.Errorf("%w: %s", errDeliveryFailed, state.TargetName)
	}
	return fmt.Sprintf("✅ Message sent to %s.", state.TargetName), nil
}

var errDeliveryFailed = errors.New("failed to send")

func homeOf(state models.ConversationState) string {
	if state.Flow == models.FlowAdminBroadcast {
		return PrefixUserDetails + models.UserKey(state.TargetUserID)
	}
	return flowHomes[state.Flow]
}

func (f *Flows) edit(ctx context.Context, state models.ConversationState, text string, kb models.Keyboard) {
	if state.MessageID == 0 {
		return
	}
	if err := f.transport.EditText(ctx, state.ChatID, state.MessageID, text, kb); err != nil {
		f.logger.Warnf(providers.TypeBot, "Unable to update prompt %d in chat %d: %s", state.MessageID, state.ChatID, err)
	}
}

func flowErrorText(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPIN):
		return "❌ Invalid PIN. It must be exactly 6 digits."
	case errors.Is(err, ErrEmptyWord):
		return "❌ The word is empty."
	case errors.Is(err, ErrDuplicateWord):
		return "❌ That word is already banned."
	case errors.Is(err, ErrInvalidChannel):
		return "❌ Invalid channel. Use https://t.me/name or @name."
	case errors.Is(err, ErrEmptyBroadcast):
		return textBroadcastEmpty
	case errors.Is(err, errDeliveryFailed):
		return "❌ Failed to send the message. The user may have blocked the bot."
	default:
		return "❌ Something went wrong. Please try again."
	}
}
