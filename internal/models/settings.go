package models

const (
	DefaultMessageDeletionSeconds = 300
	DefaultLinkThreshold          = 5
	DefaultMaxFileSizeMB          = 200
	DefaultBaseRemovalMinutes     = 30
	DefaultPromotionChannel       = "https://t.me/follwnowo"
	DefaultHelpChannel            = "https://t.me/+enYm2HitF0BkNTZl"
)

type AdminSettings struct {
	MessageDeletionTime    int      `json:"message_deletion_time"`
	AutoDeleteEnabled      bool     `json:"auto_delete_enabled"`
	BannedWords            []string `json:"banned_words"`
	BannedWordsEnabled     bool     `json:"banned_words_enabled"`
	ChannelJoinRequired    bool     `json:"channel_join_required"`
	ChannelJoinAfterLinks  int      `json:"channel_join_after_links"`
	PromotionChannel       string   `json:"promotion_channel"`
	HelpChannel            string   `json:"help_channel"`
	MaxFileSizeMB          int      `json:"max_file_size_mb"`
	AutoRemovalEnabled     bool     `json:"auto_removal_enabled"`
	BaseRemovalTimeMinutes int      `json:"base_removal_time_minutes"`
	AdminPIN               string   `json:"admin_pin,omitempty"`
	AnonymousTextRemoval   bool     `json:"anonymous_text_removal"`
}

func DefaultAdminSettings() AdminSettings {
	return AdminSettings{
		MessageDeletionTime:    DefaultMessageDeletionSeconds,
		AutoDeleteEnabled:      true,
		BannedWords:            []string{},
		BannedWordsEnabled:     true,
		ChannelJoinRequired:    true,
		ChannelJoinAfterLinks:  DefaultLinkThreshold,
		PromotionChannel:       DefaultPromotionChannel,
		HelpChannel:            DefaultHelpChannel,
		MaxFileSizeMB:          DefaultMaxFileSizeMB,
		AutoRemovalEnabled:     true,
		BaseRemovalTimeMinutes: DefaultBaseRemovalMinutes,
		AnonymousTextRemoval:   true,
	}
}

func (s AdminSettings) Clone() AdminSettings {
	s.BannedWords = append([]string(nil), s.BannedWords...)
	return s
}

// Channels returns the configured membership channels, skipping blanks.
func (s AdminSettings) Channels() []string {
	out := make([]string, 0, 2)
	for _, ch := range []string{s.PromotionChannel, s.HelpChannel} {
		if ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

func (s AdminSettings) HasBannedWord(word string) bool {
	for _, w := range s.BannedWords {
		if w == word {
			return true
		}
	}
	return false
}
