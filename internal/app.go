package internal

import (
	"context"
	"fmt"
	"gatebot/internal/controllers"
	"gatebot/internal/interfaces"
	"gatebot/internal/models"
	"gatebot/internal/providers"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"gatebot/internal/transport/telegram"
	"gatebot/internal/worker"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer *http.Server
}

func NewApp(
	apiController *controllers.ApiController,
	healthController *controllers.HealthController,
	maintenance interfaces.SchedulerInterface,
	stateStore store.StateStoreInterface,
	poller *telegram.Poller,
	queue *worker.ChatQueue,
	cache providers.CacheProviderInterface,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, router, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	stateStore.OnCommit(func(doc *models.Document) {
		cache.Clear()
		metrics.SetUsersTotal(doc.BotStats.TotalUsers)
	})

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	err := maintenance.Restore()
	if err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
		return nil, fmt.Errorf("restore state: %w", err)
	}
	if err = os.MkdirAll(conf.Downloads.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	maintenance.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	pollCtx, stopPolling := context.WithCancel(context.Background())
	polling := make(chan struct{})
	go func() {
		defer close(polling)
		poller.Run(pollCtx, func(ev models.Event) { queue.Enqueue(ev) })
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		stopPolling()
		queue.Stop()
		maintenance.Stop()
		return nil, fmt.Errorf("server error: %w", err)
	}

	stopPolling()
	<-polling
	queue.Stop()
	maintenance.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}
	err = maintenance.Persist()
	if err != nil {
		return nil, err
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
