package main

import (
	"context"
	"fmt"
	"time"

	"github.com/farmchain/farmchain/app/jobs"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/config"
	"github.com/farmchain/farmchain/pkg/cache"
	"github.com/farmchain/farmchain/pkg/database"
	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/mail"
	"github.com/farmchain/farmchain/pkg/notification"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/farmchain/farmchain/pkg/queue"
	"github.com/farmchain/farmchain/pkg/schedule"
	"github.com/farmchain/farmchain/pkg/session"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// runtime holds the connections shared by every command.
type runtime struct {
	db      *gorm.DB
	rdb     *redis.Client
	closers []func()
}

// boot opens the database, and Redis when any driver asks for it or
// REDIS_ADDR is set.
func boot(ctx context.Context) (*runtime, error) {
	rt := &runtime{}

	if uri := config.MongoURI(); uri != "" {
		closeMongo, err := logger.AttachMongo(uri)
		if err != nil {
			logger.Warn("boot: mongo log sink disabled", "error", err)
		} else {
			rt.closers = append(rt.closers, closeMongo)
		}
	}

	if err := database.Connect(); err != nil {
		return nil, err
	}
	rt.db = database.DB
	rt.closers = append(rt.closers, func() { _ = database.Close(rt.db) })

	needRedis := config.SessionDriver() == "redis" || config.QueueDriver() == "redis"
	if needRedis || config.RedisAddr() != "" {
		rdb, err := cache.Connect(ctx)
		switch {
		case err == nil:
			rt.rdb = rdb
			rt.closers = append(rt.closers, func() { _ = rdb.Close() })
		case needRedis:
			rt.Close()
			return nil, err
		default:
			logger.Warn("boot: redis unavailable, using in-process cache", "error", err)
		}
	}
	return rt, nil
}

// Close releases connections in reverse order.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// sessions returns the configured store. The memory store is also
// returned on its own so maintenance can prune it.
func (rt *runtime) sessions() (session.Store, *session.MemoryStore) {
	if config.SessionDriver() == "redis" && rt.rdb != nil {
		return session.NewRedisStore(rt.rdb), nil
	}
	mem := session.NewMemoryStore(config.SessionTTL(), 10*time.Minute)
	return mem, mem
}

func (rt *runtime) cache() cache.Store {
	if rt.rdb != nil {
		return cache.NewRedis(rt.rdb, "farmchain:cache:")
	}
	return cache.NewMemory(config.CacheTTL(), time.Minute)
}

// queue builds the job manager on the configured driver, with the mail
// jobs registered and failures recorded in failed_jobs.
func (rt *runtime) queue() (*queue.Manager, queue.Driver, error) {
	var driver queue.Driver
	switch d := config.QueueDriver(); d {
	case "redis":
		if rt.rdb == nil {
			return nil, nil, fmt.Errorf("queue: redis driver needs REDIS_ADDR")
		}
		driver = queue.NewRedisDriver(rt.rdb)
	case "memory", "":
		driver = queue.NewMemoryDriver(config.Int("QUEUE_BUFFER", 1024))
	default:
		return nil, nil, fmt.Errorf("queue: unsupported QUEUE_DRIVER %q", d)
	}

	m := queue.New(driver,
		queue.WithMaxRetry(config.Int("QUEUE_MAX_RETRY", 3)),
		queue.WithFailedStore(queue.NewGormFailedStore(rt.db)),
	)
	q := orm.New(rt.db)
	jobs.Register(m, jobs.Deps{
		Users:   repositories.NewUserRepository(q),
		Orders:  repositories.NewOrderRepository(q),
		Mailer:  mail.FromConfig(),
		Webhook: notification.FromConfig(),
	})
	return m, driver, nil
}

// startDriver runs driver-side loops, such as promoting delayed redis jobs.
func startDriver(ctx context.Context, driver queue.Driver) {
	if rd, ok := driver.(*queue.RedisDriver); ok {
		go rd.PromoteDelayed(ctx)
	}
}

// maintenance registers the periodic housekeeping tasks. store is the
// product cache the reconciler invalidates; mem may be nil.
func (rt *runtime) maintenance(store cache.Store, mem *session.MemoryStore) *schedule.Scheduler {
	s := schedule.New()
	products := repositories.NewCachedProductRepository(repositories.NewProductRepository(orm.New(rt.db)), store, config.CacheTTL())

	s.Every(time.Hour, "stock:reconcile", func(ctx context.Context) error {
		ids, err := products.ReconcileStock(ctx)
		if err == nil && len(ids) > 0 {
			logger.Info("schedule: marked products out of stock", "count", len(ids), "ids", ids)
		}
		return err
	}).WithoutOverlapping()

	if mem != nil {
		s.Every(10*time.Minute, "sessions:prune", func(context.Context) error {
			if n := mem.Prune(); n > 0 {
				logger.Info("schedule: pruned sessions", "count", n, "remaining", mem.Len())
			}
			return nil
		})
	}
	return s
}
