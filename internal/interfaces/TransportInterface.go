package interfaces

import (
	"context"
	"gatebot/internal/models"
)

// TransportInterface is the chat platform as seen by the bot core. Every
// call is a remote request that can fail.
type TransportInterface interface {
	SendText(ctx context.Context, chatID int64, text string, kb models.Keyboard) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, kb models.Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	GetChatMember(ctx context.Context, channelRef string, userID int64) (string, error)
	SendVideo(ctx context.Context, chatID int64, path, caption string) (int, error)
}
