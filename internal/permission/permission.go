package permission

import (
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	permissionDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/permission"
)

// Source reports why a resolution allowed (or denied) the actor, from the
// strongest claim downward. UI affordances render it directly.
type Source string

const (
	SourceAdmin      Source = "admin"
	SourceDesignated Source = "designated"
	SourceShift      Source = "shift"
	SourceJob        Source = "job"
	SourceClient     Source = "client"
	SourceNone       Source = "none"
)

// Resolution is the outcome of a permission check for one actor on one shift.
type Resolution struct {
	Allowed bool   `json:"allowed"`
	Source  Source `json:"source"`
}

// Grant is the domain view of a crew-chief permission row.
type Grant struct {
	ID              int64     `json:"id"`
	GrantedToUserID int64     `json:"granted_to_user_id"`
	Scope           string    `json:"scope"`
	TargetID        int64     `json:"target_id"`
	GrantedByUserID int64     `json:"granted_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

var (
	ErrGrantNotFound     = internal.NewNotFoundError("Crew chief permission not found", internal.ErrCodeGrantNotFound)
	ErrIneligibleGrantee = internal.NewValidationError(
		"crew chief permissions may only be granted to employees or crew chiefs",
		internal.ErrCodeInvalidRole)
	ErrManagementRequired = internal.NewForbiddenError("manager or admin role required", internal.ErrCodeUnauthorizedActor)
)

func FromDataModel(g *permissionDatamodel.CrewChiefPermission) *Grant {
	return &Grant{
		ID:              g.ID,
		GrantedToUserID: g.GrantedToUserID,
		Scope:           g.Scope,
		TargetID:        g.TargetID,
		GrantedByUserID: g.GrantedByUserID,
		CreatedAt:       g.CreatedAt,
	}
}
