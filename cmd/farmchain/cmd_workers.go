package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	queueWorkersFlag int
	scheduleOnceFlag bool
)

// farmchain queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued notification jobs",
	Long:  "Runs job workers against QUEUE_DRIVER. Only the redis driver is shared with the server process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		m, driver, err := rt.queue()
		if err != nil {
			return err
		}
		m.Start(ctx, queueWorkersFlag)
		startDriver(ctx, driver)

		<-ctx.Done()
		m.Wait()
		logger.Info("queue: worker stopped")
		return nil
	},
}

// farmchain schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run database maintenance tasks",
	Long:  "Runs stock reconciliation on its schedule, or once with --once. Session pruning runs inside serve, which owns the in-memory session store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		s := rt.maintenance(rt.cache(), nil)
		if scheduleOnceFlag {
			return s.RunAll(ctx)
		}

		for _, name := range s.List() {
			logger.Info("schedule: registered", "task", name)
		}
		s.Start(ctx)
		<-ctx.Done()
		s.Wait()
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 2, "Number of concurrent workers")
	scheduleRunCmd.Flags().BoolVar(&scheduleOnceFlag, "once", false, "Run every task once and exit")
}
