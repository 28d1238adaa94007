package models

// Button is a callback button (Data), a link button (URL) or, with
// neither set, a plain reply button that sends its text back.
type Button struct {
	Text string
	Data string
	URL  string
}

type Keyboard [][]Button

// IsReply reports whether the keyboard is made of plain reply buttons and
// should be shown as a persistent menu rather than attached inline.
func (k Keyboard) IsReply() bool {
	if len(k) == 0 {
		return false
	}
	for _, row := range k {
		for _, b := range row {
			if b.Data != "" || b.URL != "" {
				return false
			}
		}
	}
	return true
}

func Row(buttons ...Button) []Button {
	return buttons
}

func CallbackButton(text, data string) Button {
	return Button{Text: text, Data: data}
}

func LinkButton(text, url string) Button {
	return Button{Text: text, URL: url}
}

func TextButton(text string) Button {
	return Button{Text: text}
}
