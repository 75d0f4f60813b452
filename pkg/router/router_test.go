package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmchain/farmchain/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestGroupsAndNamedRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api")
	api.Get("/products/{id}", "products.show", ok)
	api.Patch("/orders/{id}/status", "orders.status", ok)

	path, found := r.Path("products.show")
	require.True(t, found)
	assert.Equal(t, "/api/products/{id}", path)

	url, err := r.URL("orders.status", map[string]string{"id": "12"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/12/status", url)

	_, err = r.URL("orders.status", nil)
	assert.Error(t, err)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/12/status", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGroupMiddlewareOrder(t *testing.T) {
	var trace []string
	mw := func(tag string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	g := r.Group("/api", mw("outer")).Group("/orders", mw("inner"))
	g.Post("/", "orders.store", ok, mw("route"))

	r.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/orders", nil))
	assert.Equal(t, []string{"outer", "inner", "route"}, trace)
}

func TestRoutesListing(t *testing.T) {
	r := router.New()
	r.Get("/b", "b", ok)
	r.Delete("/a", "a.delete", ok)
	r.Get("/a", "a.show", ok)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, router.RouteInfo{Method: "DELETE", Path: "/a", Name: "a.delete"}, routes[0])
	assert.Equal(t, "GET", routes[1].Method)
	assert.Equal(t, "/b", routes[2].Path)
}
