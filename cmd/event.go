package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/core/events"
	"github.com/frahmantamala/crew-timekeeping/pkg/logger"
	"github.com/spf13/cobra"
)

var timesheetEventTypes = []string{
	events.EventTypeTimesheetFinalized,
	events.EventTypeTimesheetClientApproved,
	events.EventTypeTimesheetManagerApproved,
	events.EventTypeTimesheetRejected,
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the timesheet event bus: publish lifecycle events and watch handlers fire`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a timesheet lifecycle event",
	Long: `Publish a timesheet lifecycle event to the in-process bus and log its delivery.

Known event types:
  ` + strings.Join(timesheetEventTypes, "\n  "),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eventType := events.EventTypeTimesheetFinalized
		if len(args) > 0 {
			eventType = args[0]
		}
		publishTimesheetEvent(eventType)
	},
}

var (
	eventShiftID     int64
	eventTimesheetID int64
)

func publishTimesheetEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	event := events.BaseEvent{
		ID:        fmt.Sprintf("cli-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"timesheet_id": eventTimesheetID,
			"shift_id":     eventShiftID,
			"source":       "cli-command",
		},
	}

	logger.Info("publishing event", "event_type", eventType, "event_id", event.ID)

	if err := eventBus.PublishSync(context.Background(), event); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	logger.Info("event delivered to all handlers")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventShiftID, "shift-id", 1, "Shift the event refers to")
	publishEventCmd.Flags().Int64Var(&eventTimesheetID, "timesheet-id", 1, "Timesheet the event refers to")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
