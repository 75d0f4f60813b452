// Package kernel assembles the HTTP application: repositories, services,
// event listeners, controllers, the global middleware stack and routes.
package kernel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/farmchain/farmchain/app/controllers"
	appgraphql "github.com/farmchain/farmchain/app/graphql"
	"github.com/farmchain/farmchain/app/listeners"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/routes"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/config"
	"github.com/farmchain/farmchain/pkg/cache"
	"github.com/farmchain/farmchain/pkg/event"
	"github.com/farmchain/farmchain/pkg/graphql"
	"github.com/farmchain/farmchain/pkg/metrics"
	"github.com/farmchain/farmchain/pkg/middleware"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/farmchain/farmchain/pkg/reqid"
	"github.com/farmchain/farmchain/pkg/response"
	"github.com/farmchain/farmchain/pkg/router"
	"github.com/farmchain/farmchain/pkg/session"
	"github.com/farmchain/farmchain/pkg/storage"
	"github.com/farmchain/farmchain/pkg/ws"
	"gorm.io/gorm"
)

// Deps are the infrastructure handles the kernel is built on. Optional
// fields may be left nil.
type Deps struct {
	DB       *gorm.DB
	Sessions session.Store
	Disk     storage.Disk

	// Cache enables read-through product caching.
	Cache cache.Store
	// Events defaults to an inline dispatcher.
	Events *event.Dispatcher
	// Queue receives notification mail jobs.
	Queue listeners.Queue
	// OrderWebhook also queues webhook jobs for order events.
	OrderWebhook bool
	// Hub enables GET /api/ws.
	Hub *ws.Hub
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int
	// SessionOptions defaults to config-derived options.
	SessionOptions *session.Options
}

// Kernel owns the built router and the long-lived pieces behind it.
type Kernel struct {
	router  *router.Router
	limiter *middleware.Limiter
	events  *event.Dispatcher
}

// New wires every layer and registers the routes.
func New(d Deps) (*Kernel, error) {
	if d.DB == nil || d.Sessions == nil || d.Disk == nil {
		return nil, fmt.Errorf("kernel: DB, Sessions and Disk are required")
	}

	events := d.Events
	if events == nil {
		events = event.New(nil)
	}

	q := orm.New(d.DB)
	users := repositories.NewUserRepository(q)
	categories := repositories.NewCategoryRepository(q)
	orders := repositories.NewOrderRepository(q)
	reviews := repositories.NewReviewRepository(q)
	var products repositories.ProductRepository = repositories.NewProductRepository(q)
	if d.Cache != nil {
		products = repositories.NewCachedProductRepository(products, d.Cache, config.CacheTTL())
	}

	authSvc := services.NewAuthService(users)
	userSvc := services.NewUserService(users, d.Disk)
	catalogSvc := services.NewCatalogService(categories, products, d.Disk)
	orderSvc := services.NewOrderService(q, orders, products, events)
	reviewSvc := services.NewReviewService(reviews, products)

	var pusher listeners.Pusher
	if d.Hub != nil {
		pusher = d.Hub
	}
	var opts []listeners.Option
	if d.OrderWebhook {
		opts = append(opts, listeners.WithWebhook())
	}
	listeners.Register(events, pusher, d.Queue, opts...)

	schema, err := appgraphql.NewSchema(catalogSvc, reviewSvc)
	if err != nil {
		return nil, fmt.Errorf("kernel: graphql schema: %w", err)
	}

	k := &Kernel{router: router.New(), events: events}

	sessOpts := session.DefaultOptions()
	if d.SessionOptions != nil {
		sessOpts = *d.SessionOptions
	} else {
		sessOpts.CookieName = config.SessionCookie()
		sessOpts.TTL = config.SessionTTL()
		sessOpts.Secure = config.IsProduction()
	}

	// Outermost first.
	k.router.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
	)
	if d.RateLimit > 0 {
		k.limiter = middleware.NewLimiter(d.RateLimit, time.Minute)
		k.router.Use(k.limiter.Middleware)
	}
	k.router.Use(session.Middleware(d.Sessions, sessOpts))

	k.router.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	k.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	h := routes.Handlers{
		Auth:     controllers.NewAuthController(authSvc),
		Users:    controllers.NewUserController(userSvc),
		Products: controllers.NewProductController(catalogSvc, reviewSvc),
		Orders:   controllers.NewOrderController(orderSvc),
		Hub:      d.Hub,
		GraphQL:  graphql.Handler(schema),
		Metrics:  metrics.Handler(),
	}
	if local, ok := d.Disk.(*storage.LocalDisk); ok {
		h.Files = http.FileServer(http.Dir(local.Root()))
	}
	routes.RegisterAPI(k.router, h)

	return k, nil
}

// Handler is the root http.Handler.
func (k *Kernel) Handler() http.Handler { return k.router.Handler() }

// Router exposes the route table, e.g. for route:list.
func (k *Kernel) Router() *router.Router { return k.router }

// Events is the dispatcher the services fire into.
func (k *Kernel) Events() *event.Dispatcher { return k.events }

// Background runs housekeeping (rate limiter sweeps) until ctx ends.
func (k *Kernel) Background(ctx context.Context) {
	if k.limiter != nil {
		go k.limiter.Sweep(ctx, time.Minute)
	}
}
