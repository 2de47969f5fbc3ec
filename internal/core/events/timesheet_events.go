package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTimesheetFinalized       = "timesheet.finalized"
	EventTypeTimesheetClientApproved  = "timesheet.client_approved"
	EventTypeTimesheetManagerApproved = "timesheet.manager_approved"
	EventTypeTimesheetRejected        = "timesheet.rejected"
)

// TimesheetEvent is emitted after a successful state transition. It is a
// read-only projection for notification/export listeners; they never write
// back.
type TimesheetEvent struct {
	BaseEvent
	TimesheetID int64   `json:"timesheet_id"`
	ShiftID     int64   `json:"shift_id"`
	ActorID     int64   `json:"actor_id"`
	Status      string  `json:"status"`
	Recipients  []int64 `json:"recipients,omitempty"`
}

func newTimesheetEvent(eventType string, timesheetID, shiftID, actorID int64, status string, recipients []int64) *TimesheetEvent {
	return &TimesheetEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"timesheet_id": timesheetID,
				"shift_id":     shiftID,
				"actor_id":     actorID,
				"status":       status,
			},
		},
		TimesheetID: timesheetID,
		ShiftID:     shiftID,
		ActorID:     actorID,
		Status:      status,
		Recipients:  recipients,
	}
}

func NewTimesheetFinalizedEvent(timesheetID, shiftID, actorID int64, recipients []int64) *TimesheetEvent {
	return newTimesheetEvent(EventTypeTimesheetFinalized, timesheetID, shiftID, actorID, "pending_client_approval", recipients)
}

func NewTimesheetClientApprovedEvent(timesheetID, shiftID, actorID int64, recipients []int64) *TimesheetEvent {
	return newTimesheetEvent(EventTypeTimesheetClientApproved, timesheetID, shiftID, actorID, "pending_manager_approval", recipients)
}

func NewTimesheetManagerApprovedEvent(timesheetID, shiftID, actorID int64, recipients []int64) *TimesheetEvent {
	return newTimesheetEvent(EventTypeTimesheetManagerApproved, timesheetID, shiftID, actorID, "completed", recipients)
}

func NewTimesheetRejectedEvent(timesheetID, shiftID, actorID int64, reason string, recipients []int64) *TimesheetEvent {
	ev := newTimesheetEvent(EventTypeTimesheetRejected, timesheetID, shiftID, actorID, "rejected", recipients)
	ev.Data["reason"] = reason
	return ev
}
