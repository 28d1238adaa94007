package models

import (
	"strconv"
	"time"
)

type BotStats struct {
	TotalDownloads    int       `json:"total_downloads"`
	TotalUsers        int       `json:"total_users"`
	TotalMBDownloaded float64   `json:"total_mb_downloaded"`
	StartDate         time.Time `json:"start_date"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Document is the whole persisted bot state, written as one unit.
type Document struct {
	Users         map[string]*User `json:"users"`
	BotStats      BotStats         `json:"bot_stats"`
	AdminSettings AdminSettings    `json:"admin_settings"`
}

func NewDocument(now time.Time) *Document {
	return &Document{
		Users: map[string]*User{},
		BotStats: BotStats{
			StartDate:   now,
			LastUpdated: now,
		},
		AdminSettings: DefaultAdminSettings(),
	}
}

func UserKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (d *Document) User(id int64) (*User, bool) {
	u, ok := d.Users[UserKey(id)]
	return u, ok
}

func (d *Document) Clone() *Document {
	c := &Document{
		Users:         make(map[string]*User, len(d.Users)),
		BotStats:      d.BotStats,
		AdminSettings: d.AdminSettings.Clone(),
	}
	for k, u := range d.Users {
		c.Users[k] = u.Clone()
	}
	return c
}

// Normalize repairs a freshly decoded document so handlers never see nil
// collections or zeroed thresholds.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = map[string]*User{}
	}
	for _, u := range d.Users {
		u.Normalize()
	}
	if d.AdminSettings.BannedWords == nil {
		d.AdminSettings.BannedWords = []string{}
	}
	if d.AdminSettings.MessageDeletionTime <= 0 {
		d.AdminSettings.MessageDeletionTime = DefaultMessageDeletionSeconds
	}
	if d.AdminSettings.ChannelJoinAfterLinks <= 0 {
		d.AdminSettings.ChannelJoinAfterLinks = DefaultLinkThreshold
	}
	if d.AdminSettings.MaxFileSizeMB <= 0 {
		d.AdminSettings.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if d.AdminSettings.BaseRemovalTimeMinutes <= 0 {
		d.AdminSettings.BaseRemovalTimeMinutes = DefaultBaseRemovalMinutes
	}
}
