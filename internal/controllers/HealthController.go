package controllers

import (
	"fmt"
	"gatebot/internal/services"
	"gatebot/internal/store"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	service   services.SummaryServiceInterface
	store     store.StateStoreInterface
	startTime time.Time
}

type healthResponse struct {
	Status            string  `json:"status"`
	Uptime            string  `json:"uptime"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	Users             int     `json:"users"`
	ScheduledRemovals int     `json:"scheduled_removals"`
	PendingWrite      bool    `json:"pending_write"`
}

// Health reports "degraded" while the last document write has failed.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	sum := hc.service.AdminSummary()
	resp := healthResponse{
		Status:            "ok",
		Uptime:            formatDuration(uptime),
		UptimeSeconds:     uptime.Seconds(),
		Users:             sum.TotalUsers,
		ScheduledRemovals: sum.ScheduledRemovals,
		PendingWrite:      hc.store.Dirty(),
	}
	if resp.PendingWrite {
		resp.Status = "degraded"
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.SummaryServiceInterface, stateStore store.StateStoreInterface) *HealthController {
	return &HealthController{
		service:   service,
		store:     stateStore,
		startTime: time.Now(),
	}
}
