package internal

import (
	"gatebot/internal/controllers"
	"gatebot/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/summary", http.HandlerFunc(apiController.GetSummary))
	routers.Get("/users", http.HandlerFunc(apiController.GetUsers))
	routers.Get("/user", http.HandlerFunc(apiController.GetUser))
	routers.Get("/removals", http.HandlerFunc(apiController.GetRemovals))
	return routers
}
