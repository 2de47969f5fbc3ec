package permission

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
	Resolve(actor *auth.User, shiftID int64) (Resolution, error)
	CreateGrant(actor *auth.User, dto CreateGrantDTO) (*Grant, error)
	RevokeGrant(actor *auth.User, grantID int64) error
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

// CheckPermission resolves the caller's authority over a shift; the UI uses
// this to decide which actions to offer.
func (h *Handler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CheckPermission: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	shiftIDStr := chi.URLParam(r, "id")
	shiftID, err := strconv.ParseInt(shiftIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("CheckPermission: invalid shift ID", "id", shiftIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid shift ID")
		return
	}

	resolution, err := h.Service.Resolve(user, shiftID)
	if err != nil {
		h.Logger.Error("CheckPermission: service error", "error", err, "shift_id", shiftID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ResolutionResponse{
		ShiftID:    shiftID,
		ActorID:    user.ID,
		Resolution: resolution,
	})
}

func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateGrant: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateGrant: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grant, err := h.Service.CreateGrant(user, dto)
	if err != nil {
		h.Logger.Error("CreateGrant: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateGrant: permission granted",
		"grant_id", grant.ID,
		"grantee_id", grant.GrantedToUserID,
		"granted_by", user.ID)

	h.WriteJSON(w, http.StatusCreated, grant)
}

func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("RevokeGrant: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	grantIDStr := chi.URLParam(r, "id")
	grantID, err := strconv.ParseInt(grantIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("RevokeGrant: invalid grant ID", "id", grantIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid grant ID")
		return
	}

	if err := h.Service.RevokeGrant(user, grantID); err != nil {
		h.Logger.Error("RevokeGrant: service error", "error", err, "grant_id", grantID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
