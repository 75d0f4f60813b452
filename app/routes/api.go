// Package routes holds the route table.
package routes

import (
	"net/http"

	"github.com/farmchain/farmchain/app/controllers"
	"github.com/farmchain/farmchain/pkg/ctx"
	"github.com/farmchain/farmchain/pkg/middleware"
	"github.com/farmchain/farmchain/pkg/rbac"
	"github.com/farmchain/farmchain/pkg/router"
	"github.com/farmchain/farmchain/pkg/ws"
)

// Handlers are the endpoints the route table needs.
type Handlers struct {
	Auth     *controllers.AuthController
	Users    *controllers.UserController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Hub      *ws.Hub
	GraphQL  http.Handler
	Metrics  http.Handler
	// Files serves the local storage disk; nil when uploads go to S3.
	Files http.Handler
}

func RegisterAPI(r *router.Router, h Handlers) {
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", "auth.register", ctx.Wrap(h.Auth.Register))
	authGroup.Post("/login", "auth.login", ctx.Wrap(h.Auth.Login))
	authGroup.Post("/token", "auth.token", ctx.Wrap(h.Auth.Token))
	authGroup.Post("/logout", "auth.logout", ctx.Wrap(h.Auth.Logout))
	authGroup.Get("/me", "auth.me", ctx.Wrap(h.Auth.Me), middleware.Authenticate)

	api.Get("/categories", "categories.index", ctx.Wrap(h.Products.Categories))
	api.Get("/products", "products.index", ctx.Wrap(h.Products.Index))
	api.Get("/products/{id}", "products.show", ctx.Wrap(h.Products.Show))
	api.Get("/products/{id}/reviews", "products.reviews.index", ctx.Wrap(h.Products.Reviews))
	api.Get("/farmers", "farmers.index", ctx.Wrap(h.Users.Farmers))

	protected := api.Group("", middleware.Authenticate)

	protected.Patch("/users/profile", "users.profile", ctx.Wrap(h.Users.UpdateProfile))
	protected.Post("/users/profile/image", "users.profile.image", ctx.Wrap(h.Users.UploadProfileImage))

	farmer := rbac.Farmer("Only farmers can create products")
	protected.Post("/products", "products.store", ctx.Wrap(h.Products.Store), farmer)
	protected.Patch("/products/{id}", "products.update", ctx.Wrap(h.Products.Update))
	protected.Delete("/products/{id}", "products.destroy", ctx.Wrap(h.Products.Destroy))
	protected.Post("/products/{id}/image", "products.image", ctx.Wrap(h.Products.UploadImage))
	protected.Post("/products/{id}/reviews", "products.reviews.store", ctx.Wrap(h.Products.StoreReview))

	protected.Get("/orders", "orders.index", ctx.Wrap(h.Orders.Index))
	protected.Post("/orders", "orders.store", ctx.Wrap(h.Orders.Store), rbac.Buyer("Only buyers can place orders"))
	protected.Get("/orders/{id}", "orders.show", ctx.Wrap(h.Orders.Show))
	protected.Patch("/orders/{id}/status", "orders.status", ctx.Wrap(h.Orders.UpdateStatus))

	if h.Hub != nil {
		protected.Get("/ws", "realtime", func(w http.ResponseWriter, r *http.Request) {
			id, _ := middleware.UserIDFromCtx(r)
			h.Hub.Serve(w, r, id)
		})
		protected.Get("/events", "realtime.sse", func(w http.ResponseWriter, r *http.Request) {
			id, _ := middleware.UserIDFromCtx(r)
			h.Hub.ServeEvents(w, r, id)
		})
	}
	if h.GraphQL != nil {
		r.Mount("/graphql", "graphql", h.GraphQL)
	}
	if h.Metrics != nil {
		r.Get("/metrics", "metrics", h.Metrics.ServeHTTP)
	}
	if h.Files != nil {
		r.Mount("/storage", "storage", http.StripPrefix("/storage", h.Files))
	}
}
