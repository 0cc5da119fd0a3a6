package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/ghadwa-checkout/internal/app/api"
	platformobservability "github.com/Apurer/ghadwa-checkout/internal/platform/observability"
	notificationactivities "github.com/Apurer/ghadwa-checkout/internal/platform/temporal/activities/notifications"
	notificationworkflows "github.com/Apurer/ghadwa-checkout/internal/platform/temporal/workflows/notifications"
)

func main() {
	ctx := context.Background()
	const serviceName = "ghadwa-notifications-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.LogConfig{File: cfg.LogFile, Level: cfg.SlogLevel()})
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	dispatcher := api.BuildDispatcher(cfg, instruments)
	notificationActivities := notificationactivities.NewActivities(dispatcher)

	temporalClient, err := api.DialTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, notificationworkflows.OrderNotificationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(notificationworkflows.OrderNotificationWorkflow,
		workflow.RegisterOptions{Name: notificationworkflows.OrderNotificationWorkflowName})
	w.RegisterActivityWithOptions(notificationActivities.DispatchOrderNotification,
		activity.RegisterOptions{Name: notificationactivities.DispatchOrderNotificationActivityName})

	logger.Info("worker listening", slog.String("taskQueue", notificationworkflows.OrderNotificationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
