package services

import (
	"gatebot/internal/models"
	"gatebot/internal/store"
	"sort"
)

const recentDownloads = 5

type SummaryServiceInterface interface {
	UserSummary(id int64) (models.UserSummary, error)
	Users() []models.UserSummary
	AdminSummary() models.AdminSummary
	ScheduledRemovals() []models.ScheduledRemoval
}

// SummaryService builds the read-only views served over HTTP.
type SummaryService struct {
	store  store.StateStoreInterface
	expiry *ExpiryManager
}

func NewSummaryService(stateStore store.StateStoreInterface, expiry *ExpiryManager) SummaryServiceInterface {
	return &SummaryService{store: stateStore, expiry: expiry}
}

func (s *SummaryService) UserSummary(id int64) (models.UserSummary, error) {
	u, ok := s.store.User(id)
	if !ok {
		return models.UserSummary{}, ErrUserNotFound
	}
	return summarize(u), nil
}

func (s *SummaryService) Users() []models.UserSummary {
	doc := s.store.Get()
	out := make([]models.UserSummary, 0, len(doc.Users))
	for _, u := range doc.Users {
		out = append(out, summarize(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// AdminSummary never exposes the stored PIN.
func (s *SummaryService) AdminSummary() models.AdminSummary {
	doc := s.store.Get()
	sum := models.AdminSummary{
		TotalUsers:        doc.BotStats.TotalUsers,
		TotalDownloads:    doc.BotStats.TotalDownloads,
		TotalMBDownloaded: doc.BotStats.TotalMBDownloaded,
		StartDate:         doc.BotStats.StartDate,
		LastUpdated:       doc.BotStats.LastUpdated,
		ScheduledRemovals: len(s.expiry.Scheduled()),
		Settings:          doc.AdminSettings,
	}
	sum.Settings.AdminPIN = ""
	for _, u := range doc.Users {
		if u.IsBanned() {
			sum.BannedUsers++
		} else {
			sum.ActiveUsers++
		}
	}
	return sum
}

func (s *SummaryService) ScheduledRemovals() []models.ScheduledRemoval {
	return s.expiry.Scheduled()
}

func summarize(u *models.User) models.UserSummary {
	return models.UserSummary{
		UserID:            u.UserID,
		Name:              u.DisplayName(),
		Username:          u.Username,
		Status:            u.Status,
		JoinDate:          u.JoinDate,
		LastActivity:      u.LastActivity,
		TotalDownloads:    u.TotalDownloads,
		TotalMBDownloaded: u.TotalMBDownloaded,
		LinkCount:         u.LinkCount,
		ChannelJoined:     u.ChannelJoined,
		PendingDownload:   u.PendingDownloadURL != "",
		CommandsUsed:      u.CommandsUsed,
		RecentDownloads:   lastDownloads(u.Downloads, recentDownloads),
	}
}
