package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/core/events"
	"github.com/frahmantamala/crew-timekeeping/internal/notification"
	"github.com/frahmantamala/crew-timekeeping/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for background services",
	Long:  `Start and manage worker pools, currently the notification delivery pool.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start notification delivery worker pool",
	Long:  `Start the notification worker pool that delivers timesheet lifecycle events to the configured webhook`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	webhookURL   string
)

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	notificationConfig := notification.Config{
		Enabled:         config.Notification.Enabled,
		WebhookURL:      getStringFlag(webhookURL, config.Notification.WebhookURL),
		DeliveryTimeout: config.Notification.DeliveryTimeout,
		MaxWorkers:      getIntFlag(maxWorkers, config.Notification.MaxWorkers),
		JobQueueSize:    getIntFlag(jobQueueSize, config.Notification.JobQueueSize),
		WorkerPoolSize:  config.Notification.WorkerPoolSize,
	}

	logger.Info("starting notification worker",
		"max_workers", notificationConfig.MaxWorkers,
		"job_queue_size", notificationConfig.JobQueueSize,
		"webhook_url", notificationConfig.WebhookURL)

	eventBus := events.NewEventBus(logger)
	dispatcher := notification.NewDispatcher(notificationConfig, logger)
	dispatcher.RegisterHandlers(eventBus)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("notification worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	logger.Info("received signal, shutting down notification worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		dispatcher.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		logger.Info("notification worker shutdown complete")
	case <-ctx.Done():
		logger.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Notification webhook URL (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
