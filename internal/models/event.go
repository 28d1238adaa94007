package models

// Event is the internal form of an inbound update. Messages and callback
// queries both produce one, so handlers never care which path delivered it.
type Event struct {
	ChatID     int64
	UserID     int64
	MessageID  int
	Username   string
	FirstName  string
	Text       string
	CallbackID string
	Data       string
}

func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}
