package timeclock

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/frahmantamala/crew-timekeeping/internal/transport"
	"github.com/frahmantamala/crew-timekeeping/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ClockIn(actor *auth.User, assignmentID int64, at time.Time) (*ClockEntry, error)
	ClockOut(actor *auth.User, assignmentID int64, at time.Time) (*ClockEntry, error)
	EndShift(actor *auth.User, shiftID int64) (int64, error)
	PreviewAdjustments(actor *auth.User, shiftID int64) ([]*AdjustedEntry, ChangeSummary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	h.clockAction(w, r, h.Service.ClockIn)
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.clockAction(w, r, h.Service.ClockOut)
}

func (h *Handler) clockAction(w http.ResponseWriter, r *http.Request, action func(*auth.User, int64, time.Time) (*ClockEntry, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("clock action: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	assignmentIDStr := chi.URLParam(r, "id")
	assignmentID, err := strconv.ParseInt(assignmentIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("clock action: invalid assignment ID", "id", assignmentIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid assignment ID")
		return
	}

	// Body is optional; an empty body means "use the server clock".
	var dto ClockActionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && err != io.EOF {
		h.Logger.Error("clock action: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := action(user, assignmentID, dto.At)
	if err != nil {
		h.Logger.Error("clock action: service error", "error", err, "assignment_id", assignmentID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ClockEntryResponse{Entry: entry})
}

func (h *Handler) EndShift(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("EndShift: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shiftIDStr := chi.URLParam(r, "id")
	shiftID, err := strconv.ParseInt(shiftIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("EndShift: invalid shift ID", "id", shiftIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid shift ID")
		return
	}

	ended, err := h.Service.EndShift(user, shiftID)
	if err != nil {
		h.Logger.Error("EndShift: service error", "error", err, "shift_id", shiftID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("EndShift: shift ended", "shift_id", shiftID, "assignments_ended", ended, "user_id", user.ID)
	h.WriteJSON(w, http.StatusOK, EndShiftResponse{ShiftID: shiftID, AssignmentsEnded: ended})
}

func (h *Handler) GetAdjustments(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("GetAdjustments: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shiftIDStr := chi.URLParam(r, "id")
	shiftID, err := strconv.ParseInt(shiftIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetAdjustments: invalid shift ID", "id", shiftIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid shift ID")
		return
	}

	entries, summary, err := h.Service.PreviewAdjustments(user, shiftID)
	if err != nil {
		h.Logger.Error("GetAdjustments: service error", "error", err, "shift_id", shiftID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, AdjustmentsResponse{ShiftID: shiftID, Entries: entries, Summary: summary})
}
