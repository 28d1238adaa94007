package models

import "time"

type FlowTag string

const (
	FlowAdminPIN         FlowTag = "awaiting_admin_pin"
	FlowNewPIN           FlowTag = "awaiting_new_pin"
	FlowBannedWord       FlowTag = "awaiting_banned_word"
	FlowPromotionChannel FlowTag = "awaiting_promotion_channel"
	FlowHelpChannel      FlowTag = "awaiting_help_channel"
	FlowAdminBroadcast   FlowTag = "awaiting_admin_broadcast"
)

// ConversationState is the single pending-input slot of one user.
// MessageID is the prompt to edit once the flow completes; the target
// fields are only set for a broadcast.
type ConversationState struct {
	Flow         FlowTag
	ChatID       int64
	MessageID    int
	TargetUserID int64
	TargetName   string
	StartedAt    time.Time
}
