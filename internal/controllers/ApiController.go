package controllers

import (
	"errors"
	"gatebot/internal/providers"
	"gatebot/internal/services"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
)

// Cache keys. Every committed state change clears the cache.
const (
	keySummary  = "summary"
	keyUsers    = "users"
	keyUser     = "user:"
	keyRemovals = "removals"
)

type ApiController struct {
	logger  providers.Logger
	service services.SummaryServiceInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.SummaryServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, data)
		return
	}

	result, err := compute()
	if errors.Is(err, services.ErrUserNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "Error computing %s: %s", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "Error encoding %s: %s", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, gson)
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (ac *ApiController) GetSummary(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, keySummary, func() (any, error) {
		return ac.service.AdminSummary(), nil
	})
}

func (ac *ApiController) GetUsers(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, keyUsers, func() (any, error) {
		return ac.service.Users(), nil
	})
}

func (ac *ApiController) GetUser(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	ac.serveFromCacheOrCompute(w, r, keyUser+raw, func() (any, error) {
		return ac.service.UserSummary(id)
	})
}

// GetRemovals reports remaining times, so it is never cached.
func (ac *ApiController) GetRemovals(w http.ResponseWriter, r *http.Request) {
	gson, err := json.Marshal(ac.service.ScheduledRemovals())
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "Error encoding removals: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, gson)
}
