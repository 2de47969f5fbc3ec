package permission

import (
	"github.com/frahmantamala/crew-timekeeping/internal"
	permissionDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/permission"
)

type CreateGrantDTO struct {
	GrantedToUserID int64  `json:"granted_to_user_id"`
	Scope           string `json:"scope"`
	TargetID        int64  `json:"target_id"`
}

func (dto CreateGrantDTO) Validate() error {
	if dto.GrantedToUserID <= 0 {
		return internal.NewValidationFieldError("granted_to_user_id", "granted_to_user_id is required", internal.ErrCodeValidationFailed)
	}
	switch dto.Scope {
	case permissionDatamodel.ScopeShift, permissionDatamodel.ScopeJob, permissionDatamodel.ScopeClient:
	default:
		return internal.NewValidationFieldError("scope", "scope must be one of shift, job, client", internal.ErrCodeInvalidScope)
	}
	if dto.TargetID <= 0 {
		return internal.NewValidationFieldError("target_id", "target_id is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ResolutionResponse struct {
	ShiftID    int64      `json:"shift_id"`
	ActorID    int64      `json:"actor_id"`
	Resolution Resolution `json:"resolution"`
}
