package services

import (
	"fmt"
	"gatebot/internal/models"
	"gatebot/internal/store"
	"strings"
)

type Toggle string

const (
	ToggleAutoDelete      Toggle = "auto_delete"
	ToggleBannedWords     Toggle = "banned_words"
	ToggleChannelJoin     Toggle = "channel_join"
	ToggleAutoRemoval     Toggle = "auto_removal"
	ToggleAnonymousRemove Toggle = "anonymous_removal"
)

type SettingsService struct {
	store store.StateStoreInterface
}

func NewSettingsService(stateStore store.StateStoreInterface) *SettingsService {
	return &SettingsService{store: stateStore}
}

func (s *SettingsService) Current() models.AdminSettings {
	return s.store.Settings()
}

// Flip inverts one boolean setting and returns its new value.
func (s *SettingsService) Flip(t Toggle) (bool, error) {
	var value bool
	err := s.update(func(a *models.AdminSettings) error {
		var field *bool
		switch t {
		case ToggleAutoDelete:
			field = &a.AutoDeleteEnabled
		case ToggleBannedWords:
			field = &a.BannedWordsEnabled
		case ToggleChannelJoin:
			field = &a.ChannelJoinRequired
		case ToggleAutoRemoval:
			field = &a.AutoRemovalEnabled
		case ToggleAnonymousRemove:
			field = &a.AnonymousTextRemoval
		default:
			return fmt.Errorf("%w: toggle %q", ErrInvalidSetting, t)
		}
		*field = !*field
		value = *field
		return nil
	})
	return value, err
}

func (s *SettingsService) SetDeletionTime(seconds int) error {
	return s.positive(seconds, func(a *models.AdminSettings) { a.MessageDeletionTime = seconds })
}

// SetLinkThreshold changes how many links a user may post before joining.
// Users already marked as joined stay joined.
func (s *SettingsService) SetLinkThreshold(links int) error {
	return s.positive(links, func(a *models.AdminSettings) { a.ChannelJoinAfterLinks = links })
}

func (s *SettingsService) SetBaseRemovalTime(minutes int) error {
	return s.positive(minutes, func(a *models.AdminSettings) { a.BaseRemovalTimeMinutes = minutes })
}

func (s *SettingsService) SetMaxFileSize(mb int) error {
	return s.positive(mb, func(a *models.AdminSettings) { a.MaxFileSizeMB = mb })
}

// AddBannedWord stores the trimmed, lower-cased word.
func (s *SettingsService) AddBannedWord(word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", ErrEmptyWord
	}
	return word, s.update(func(a *models.AdminSettings) error {
		if a.HasBannedWord(word) {
			return ErrDuplicateWord
		}
		a.BannedWords = append(a.BannedWords, word)
		return nil
	})
}

func (s *SettingsService) RemoveBannedWord(word string) error {
	return s.update(func(a *models.AdminSettings) error {
		for i, w := range a.BannedWords {
			if w == word {
				a.BannedWords = append(a.BannedWords[:i], a.BannedWords[i+1:]...)
				return nil
			}
		}
		return ErrUnknownWord
	})
}

func (s *SettingsService) SetPIN(pin string) error {
	if !ValidPIN(pin) {
		return ErrInvalidPIN
	}
	return s.update(func(a *models.AdminSettings) error {
		a.AdminPIN = pin
		return nil
	})
}

// SetChannel replaces the promotion or help channel depending on flow.
func (s *SettingsService) SetChannel(flow models.FlowTag, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !ValidChannel(ref) {
		return "", ErrInvalidChannel
	}
	return ref, s.update(func(a *models.AdminSettings) error {
		switch flow {
		case models.FlowPromotionChannel:
			a.PromotionChannel = ref
		case models.FlowHelpChannel:
			a.HelpChannel = ref
		default:
			return ErrUnsupportedFlow
		}
		return nil
	})
}

func ValidPIN(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func ValidChannel(ref string) bool {
	switch {
	case strings.HasPrefix(ref, "https://t.me/"):
		return len(ref) > len("https://t.me/")
	case strings.HasPrefix(ref, "@"):
		return len(ref) > 1
	default:
		return false
	}
}

func (s *SettingsService) positive(v int, apply func(a *models.AdminSettings)) error {
	if v <= 0 {
		return ErrInvalidSetting
	}
	return s.update(func(a *models.AdminSettings) error {
		apply(a)
		return nil
	})
}

func (s *SettingsService) update(fn func(a *models.AdminSettings) error) error {
	return s.store.Mutate(func(doc *models.Document) error {
		return fn(&doc.AdminSettings)
	})
}
