package services

import (
	"gatebot/internal/models"
	"gatebot/internal/store"
	"sort"
	"time"
)

type UserService struct {
	store store.StateStoreInterface
	now   func() time.Time
}

func NewUserService(stateStore store.StateStoreInterface) *UserService {
	return &UserService{store: stateStore, now: time.Now}
}

// Touch registers the sender on first contact and refreshes the profile
// on every later one. It returns a copy of the stored user.
func (s *UserService) Touch(ev models.Event) (*models.User, error) {
	var out *models.User
	err := s.store.Mutate(func(doc *models.Document) error {
		now := s.now()
		u, ok := doc.User(ev.UserID)
		if !ok {
			u = models.NewUser(ev.UserID, ev.Username, ev.FirstName, now)
			doc.Users[models.UserKey(ev.UserID)] = u
			doc.BotStats.TotalUsers++
		} else {
			if ev.Username != "" {
				u.Username = ev.Username
			}
			if ev.FirstName != "" {
				u.FirstName = ev.FirstName
			}
			u.LastActivity = now
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (s *UserService) Get(userID int64) (*models.User, bool) {
	return s.store.User(userID)
}

func (s *UserService) LogCommand(userID int64, command string) error {
	return s.update(userID, func(u *models.User, _ *models.Document) {
		u.CommandsUsed[command]++
		u.LastActivity = s.now()
	})
}

// LogDownload appends rec to the user history and to both rollups.
func (s *UserService) LogDownload(userID int64, rec models.DownloadRecord) error {
	return s.update(userID, func(u *models.User, doc *models.Document) {
		u.Downloads = append(u.Downloads, rec)
		u.TotalDownloads++
		u.TotalMBDownloaded += rec.FileSizeMB
		u.LastActivity = s.now()

		doc.BotStats.TotalDownloads++
		doc.BotStats.TotalMBDownloaded += rec.FileSizeMB
	})
}

func (s *UserService) Ban(userID int64) error {
	return s.update(userID, func(u *models.User, _ *models.Document) {
		now := s.now()
		u.Status = models.UserBanned
		u.BanDate = &now
	})
}

func (s *UserService) Unban(userID int64) error {
	return s.update(userID, func(u *models.User, _ *models.Document) {
		u.Status = models.UserActive
		u.BanDate = nil
	})
}

func (s *UserService) Delete(userID int64) error {
	return s.store.Mutate(func(doc *models.Document) error {
		key := models.UserKey(userID)
		if _, ok := doc.Users[key]; !ok {
			return ErrUserNotFound
		}
		delete(doc.Users, key)
		if doc.BotStats.TotalUsers > 0 {
			doc.BotStats.TotalUsers--
		}
		return nil
	})
}

// ResetStats clears the personal download history and command counters.
// Global rollups keep what was already counted, and the link counter and
// link history stay because gating reads them.
func (s *UserService) ResetStats(userID int64) error {
	return s.update(userID, func(u *models.User, _ *models.Document) {
		u.Downloads = []models.DownloadRecord{}
		u.TotalDownloads = 0
		u.TotalMBDownloaded = 0
		u.CommandsUsed = map[string]int{}
	})
}

// Page returns one page of users, most recently active first, and the
// total number of pages. page is 1-based and clamped to the valid range.
func (s *UserService) Page(page, perPage int) ([]*models.User, int, int) {
	doc := s.store.Get()
	users := make([]*models.User, 0, len(doc.Users))
	for _, u := range doc.Users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].LastActivity.Equal(users[j].LastActivity) {
			return users[i].UserID < users[j].UserID
		}
		return users[i].LastActivity.After(users[j].LastActivity)
	})

	if perPage <= 0 {
		perPage = 10
	}
	pages := (len(users) + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(users) {
		end = len(users)
	}
	return users[start:end], page, pages
}

func (s *UserService) update(userID int64, fn func(u *models.User, doc *models.Document)) error {
	return s.store.Mutate(func(doc *models.Document) error {
		u, ok := doc.User(userID)
		if !ok {
			return ErrUserNotFound
		}
		fn(u, doc)
		return nil
	})
}
