package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/farmchain/farmchain/config"
	"github.com/farmchain/farmchain/database/migrations"
	"github.com/farmchain/farmchain/internal/kernel"
	"github.com/farmchain/farmchain/internal/server"
	"github.com/farmchain/farmchain/pkg/database"
	"github.com/farmchain/farmchain/pkg/event"
	"github.com/farmchain/farmchain/pkg/grpc"
	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/migration"
	"github.com/farmchain/farmchain/pkg/storage"
	"github.com/farmchain/farmchain/pkg/workerpool"
	"github.com/farmchain/farmchain/pkg/ws"
	"github.com/spf13/cobra"
)

// farmchain serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server, queue workers and maintenance scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		if config.Bool("AUTO_MIGRATE", false) {
			if _, err := migration.New(rt.db, migrations.All()).Run(ctx); err != nil {
				return err
			}
		}

		disk, err := storage.Open(ctx)
		if err != nil {
			return err
		}
		jobs, driver, err := rt.queue()
		if err != nil {
			return err
		}
		sessions, mem := rt.sessions()

		pool := workerpool.New(config.Int("EVENT_WORKERS", 8))
		defer pool.Shutdown()
		hub := ws.NewHub(nil)
		defer hub.Close()
		productCache := rt.cache()

		k, err := kernel.New(kernel.Deps{
			DB:           rt.db,
			Sessions:     sessions,
			Disk:         disk,
			Cache:        productCache,
			Events:       event.New(pool),
			Queue:        jobs,
			OrderWebhook: config.WebhookURL() != "",
			Hub:          hub,
			RateLimit:    config.RateLimit(),
		})
		if err != nil {
			return err
		}
		k.Background(ctx)

		jobs.Start(ctx, config.Int("QUEUE_WORKERS", 2))
		startDriver(ctx, driver)
		sched := rt.maintenance(productCache, mem)
		sched.Start(ctx)

		var grpcSrv *grpc.Server
		if config.GRPCPort() != "" {
			grpcSrv = grpc.New(func(ctx context.Context) error { return database.Ping(ctx, rt.db) })
		}

		err = server.Run(ctx, server.Options{
			Addr:     ":" + config.AppPort(),
			Handler:  k.Handler(),
			GRPC:     grpcSrv,
			GRPCPort: config.GRPCPort(),
			// hub.Close ends websocket pumps and SSE handlers so Shutdown
			// does not wait on them.
			OnShutdown: hub.Close,
		})
		stop()
		jobs.Wait()
		sched.Wait()
		logger.Info("serve: stopped")
		return err
	},
}

// farmchain route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		disk, err := storage.Open(ctx)
		if err != nil {
			return err
		}
		sessions, _ := rt.sessions()
		k, err := kernel.New(kernel.Deps{DB: rt.db, Sessions: sessions, Disk: disk, Hub: ws.NewHub(nil)})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range k.Router().Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
