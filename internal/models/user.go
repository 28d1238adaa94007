package models

import (
	"strconv"
	"time"
)

type UserStatus string

const (
	UserActive UserStatus = "active"
	UserBanned UserStatus = "banned"
)

type DownloadRecord struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Platform   string    `json:"platform"`
	FileSizeMB float64   `json:"file_size_mb"`
	Timestamp  time.Time `json:"timestamp"`
}

type LinkRecord struct {
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type User struct {
	UserID             int64            `json:"user_id"`
	Username           string           `json:"username,omitempty"`
	FirstName          string           `json:"first_name,omitempty"`
	JoinDate           time.Time        `json:"join_date"`
	LastActivity       time.Time        `json:"last_activity"`
	Downloads          []DownloadRecord `json:"downloads"`
	TotalDownloads     int              `json:"total_downloads"`
	TotalMBDownloaded  float64          `json:"total_mb_downloaded"`
	CommandsUsed       map[string]int   `json:"commands_used"`
	Status             UserStatus       `json:"status"`
	BanDate            *time.Time       `json:"ban_date,omitempty"`
	LinkCount          int              `json:"link_count"`
	AllLinks           []LinkRecord     `json:"all_links"`
	ChannelJoined      bool             `json:"channel_joined"`
	LastChannelCheck   *time.Time       `json:"last_channel_check"`
	PendingDownloadURL string           `json:"pending_download_url,omitempty"`
}

func NewUser(id int64, username, firstName string, now time.Time) *User {
	return &User{
		UserID:       id,
		Username:     username,
		FirstName:    firstName,
		JoinDate:     now,
		LastActivity: now,
		Downloads:    []DownloadRecord{},
		CommandsUsed: map[string]int{},
		Status:       UserActive,
		AllLinks:     []LinkRecord{},
	}
}

func (u *User) IsBanned() bool {
	return u.Status == UserBanned
}

// DisplayName prefers the first name, then the handle, then the numeric id.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return strconv.FormatInt(u.UserID, 10)
	}
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Downloads = append([]DownloadRecord(nil), u.Downloads...)
	c.AllLinks = append([]LinkRecord(nil), u.AllLinks...)
	c.CommandsUsed = make(map[string]int, len(u.CommandsUsed))
	for k, v := range u.CommandsUsed {
		c.CommandsUsed[k] = v
	}
	if u.BanDate != nil {
		t := *u.BanDate
		c.BanDate = &t
	}
	if u.LastChannelCheck != nil {
		t := *u.LastChannelCheck
		c.LastChannelCheck = &t
	}
	return &c
}

// Normalize fills collections that older documents may lack.
func (u *User) Normalize() {
	if u.Downloads == nil {
		u.Downloads = []DownloadRecord{}
	}
	if u.AllLinks == nil {
		u.AllLinks = []LinkRecord{}
	}
	if u.CommandsUsed == nil {
		u.CommandsUsed = map[string]int{}
	}
	if u.Status == "" {
		u.Status = UserActive
	}
}
