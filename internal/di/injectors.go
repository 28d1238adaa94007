//go:build wireinject
// +build wireinject

package di

import (
	"gatebot/internal"
	"gatebot/internal/controllers"
	"gatebot/internal/interfaces"
	"gatebot/internal/providers"
	"gatebot/internal/scheduler"
	"gatebot/internal/services"
	"gatebot/internal/store"
	"gatebot/internal/structures"
	"gatebot/internal/transport/media"
	"gatebot/internal/transport/telegram"
	"gatebot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		store.NewCompressor,
		store.NewFileManager,
		store.NewStateStore,
		scheduler.NewDeferredScheduler,
		scheduler.NewMaintenance,

		telegram.NewBotAPI,
		wire.Bind(new(telegram.BotAPI), new(*tgbotapi.BotAPI)),
		telegram.NewClient,
		wire.Bind(new(interfaces.TransportInterface), new(*telegram.Client)),
		telegram.NewPoller,
		media.NewYtDlpFetcher,
		wire.Bind(new(interfaces.MediaFetcherInterface), new(*media.YtDlpFetcher)),

		services.NewUserService,
		services.NewSettingsService,
		services.NewConversations,
		services.NewJanitor,
		services.NewExpiryManager,
		services.NewViews,
		services.NewModeration,
		services.NewGating,
		services.NewAuthGate,
		services.NewFlows,
		services.NewDownloader,
		services.NewDispatcher,
		services.NewSummaryService,
		wire.Bind(new(worker.Handler), new(services.BotServiceInterface)),
		worker.NewChatQueue,

		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
