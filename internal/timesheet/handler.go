package timesheet

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	"github.com/frahmantamala/crew-timekeeping/internal/transport"
	"github.com/frahmantamala/crew-timekeeping/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Finalize(actor *auth.User, shiftID int64) (*Timesheet, error)
	ClientApprove(actor *auth.User, timesheetID int64, dto ApproveDTO) (*Timesheet, error)
	ManagerApprove(actor *auth.User, timesheetID int64, dto ApproveDTO) (*Timesheet, error)
	Reject(actor *auth.User, timesheetID int64, dto RejectDTO) (*Timesheet, error)
	GetProjection(timesheetID int64) (*Projection, error)
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

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("Finalize: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shiftID, ok := h.pathID(w, r, "shift ID")
	if !ok {
		return
	}

	ts, err := h.Service.Finalize(user, shiftID)
	if err != nil {
		h.Logger.Error("Finalize: service error", "error", err, "shift_id", shiftID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ts)
}

func (h *Handler) ClientApprove(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, "ClientApprove", h.Service.ClientApprove)
}

func (h *Handler) ManagerApprove(w http.ResponseWriter, r *http.Request) {
	h.approve(w, r, "ManagerApprove", h.Service.ManagerApprove)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request, op string, action func(*auth.User, int64, ApproveDTO) (*Timesheet, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error(op + ": user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	timesheetID, ok := h.pathID(w, r, "timesheet ID")
	if !ok {
		return
	}

	var dto ApproveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error(op+": invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts, err := action(user, timesheetID, dto)
	if err != nil {
		h.Logger.Error(op+": service error", "error", err, "timesheet_id", timesheetID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("Reject: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	timesheetID, ok := h.pathID(w, r, "timesheet ID")
	if !ok {
		return
	}

	var dto RejectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Reject: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts, err := h.Service.Reject(user, timesheetID, dto)
	if err != nil {
		h.Logger.Error("Reject: service error", "error", err, "timesheet_id", timesheetID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ts)
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.Logger.Error("GetTimesheet: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	timesheetID, ok := h.pathID(w, r, "timesheet ID")
	if !ok {
		return
	}

	projection, err := h.Service.GetProjection(timesheetID)
	if err != nil {
		h.Logger.Error("GetTimesheet: service error", "error", err, "timesheet_id", timesheetID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, projection)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, label string) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.Logger.Error("invalid "+label, "id", raw)
		h.WriteError(w, http.StatusBadRequest, "invalid "+label)
		return 0, false
	}
	return id, true
}
