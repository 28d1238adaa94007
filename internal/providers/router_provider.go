package providers

import (
	"gatebot/internal/structures"
	"net/http"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
}

type RouterProvider struct {
	routes []structures.Route
}

// Get registers a read route; HEAD is answered by the same handler.
func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(url, handler, http.MethodGet, http.MethodHead)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(url, handler, http.MethodPost)
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

func (rp *RouterProvider) add(url string, handler http.Handler, methods ...string) {
	rp.routes = append(rp.routes, structures.Route{
		Url:     url,
		Method:  methods[0],
		Handler: methodHandler(handler, methods...),
	})
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}

func methodHandler(handler http.Handler, methods ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				handler.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Allow", methods[0])
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
}
