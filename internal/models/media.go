package models

import "time"

type MediaInfo struct {
	Title           string
	Uploader        string
	DurationSeconds int
	Platform        string
}

// Artifact is a fetched file waiting for delivery and expiry.
type Artifact struct {
	Path            string
	SizeBytes       int64
	Title           string
	Platform        string
	DurationSeconds int
}

func (a Artifact) SizeMB() float64 {
	return float64(a.SizeBytes) / (1024 * 1024)
}

// ScheduledRemoval describes a pending artifact expiry.
type ScheduledRemoval struct {
	Path      string    `json:"path"`
	SizeMB    float64   `json:"size_mb"`
	Delay     string    `json:"delay"`
	Deadline  time.Time `json:"deadline"`
	Remaining string    `json:"remaining"`
}
