package scheduler

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindMessageDeletion Kind = "message_deletion"
	KindFileExpiry      Kind = "file_expiry"
	KindViewReturn      Kind = "view_return"
	KindElevationExpiry Kind = "elevation_expiry"
)

// Payload is the data a handler needs at fire time. Tasks carry no
// closures; the handler registered for the kind resolves the action.
type Payload struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Path      string
	SizeBytes int64
	View      string
}

type Task struct {
	Key      string
	Kind     Kind
	Delay    time.Duration
	Deadline time.Time
	Payload  Payload
}

func (t Task) Remaining(now time.Time) time.Duration {
	if d := t.Deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

func MessageKey(chatID int64, messageID int) string {
	return fmt.Sprintf("msg:%d:%d", chatID, messageID)
}

func FileKey(path string) string {
	return "file:" + path
}

func ViewKey(chatID int64, messageID int) string {
	return fmt.Sprintf("view:%d:%d", chatID, messageID)
}

func ElevationKey(userID int64) string {
	return fmt.Sprintf("admin:%d", userID)
}
