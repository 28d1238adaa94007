package models

import "time"

type UserSummary struct {
	UserID            int64            `json:"user_id"`
	Name              string           `json:"name"`
	Username          string           `json:"username,omitempty"`
	Status            UserStatus       `json:"status"`
	JoinDate          time.Time        `json:"join_date"`
	LastActivity      time.Time        `json:"last_activity"`
	TotalDownloads    int              `json:"total_downloads"`
	TotalMBDownloaded float64          `json:"total_mb_downloaded"`
	LinkCount         int              `json:"link_count"`
	ChannelJoined     bool             `json:"channel_joined"`
	PendingDownload   bool             `json:"pending_download"`
	CommandsUsed      map[string]int   `json:"commands_used"`
	RecentDownloads   []DownloadRecord `json:"recent_downloads"`
}

type AdminSummary struct {
	TotalUsers        int           `json:"total_users"`
	ActiveUsers       int           `json:"active_users"`
	BannedUsers       int           `json:"banned_users"`
	TotalDownloads    int           `json:"total_downloads"`
	TotalMBDownloaded float64       `json:"total_mb_downloaded"`
	StartDate         time.Time     `json:"start_date"`
	LastUpdated       time.Time     `json:"last_updated"`
	ScheduledRemovals int           `json:"scheduled_removals"`
	Settings          AdminSettings `json:"settings"`
}
