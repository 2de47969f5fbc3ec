package permission

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/crew-timekeeping/internal"
	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	permissionDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/permission"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
)

// Repository defines the data access methods for permission resolution and
// grant management.
type Repository interface {
	GetShift(shiftID int64) (*shiftDatamodel.Shift, error)
	ListGrants(userID int64) ([]*permissionDatamodel.CrewChiefPermission, error)
	GetGrant(id int64) (*permissionDatamodel.CrewChiefPermission, error)
	CreateGrant(grant *permissionDatamodel.CrewChiefPermission) error
	DeleteGrant(id int64) error
	GetUserRole(userID int64) (auth.Role, error)
}

// Resolver is the single authority on who may manage time entries and drive
// the approval flow for a shift. No call site re-implements role checks.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger,
	}
}

// Resolve applies the fixed precedence: management roles always win, clients
// are always denied regardless of any grant row, then the shift's designated
// crew chief, then the most specific surviving grant (shift > job > client).
func (r *Resolver) Resolve(actor *auth.User, shiftID int64) (Resolution, error) {
	if actor.Role.IsManagement() {
		return Resolution{Allowed: true, Source: SourceAdmin}, nil
	}

	if actor.Role == auth.RoleClient {
		return Resolution{Allowed: false, Source: SourceNone}, nil
	}

	shift, err := r.repo.GetShift(shiftID)
	if err != nil {
		return Resolution{}, internal.ErrShiftNotFound
	}

	if shift.CrewChiefID != nil && *shift.CrewChiefID == actor.ID {
		return Resolution{Allowed: true, Source: SourceDesignated}, nil
	}

	grants, err := r.repo.ListGrants(actor.ID)
	if err != nil {
		r.logger.Error("failed to list crew chief grants", "error", err, "user_id", actor.ID)
		return Resolution{}, internal.NewStorageError("failed to list crew chief grants", err)
	}

	for _, scope := range []struct {
		name   string
		target int64
		source Source
	}{
		{permissionDatamodel.ScopeShift, shift.ID, SourceShift},
		{permissionDatamodel.ScopeJob, shift.JobID, SourceJob},
		{permissionDatamodel.ScopeClient, shift.ClientID, SourceClient},
	} {
		for _, g := range grants {
			if g.Scope == scope.name && g.TargetID == scope.target {
				return Resolution{Allowed: true, Source: scope.source}, nil
			}
		}
	}

	return Resolution{Allowed: false, Source: SourceNone}, nil
}

// CreateGrant records a crew-chief permission. Only management may grant, and
// the grantee must hold a role that can carry crew-chief authority.
func (r *Resolver) CreateGrant(actor *auth.User, dto CreateGrantDTO) (*Grant, error) {
	if !actor.Role.IsManagement() {
		r.logger.Warn("grant creation denied: management role required", "actor_id", actor.ID, "role", actor.Role)
		return nil, ErrManagementRequired
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	granteeRole, err := r.repo.GetUserRole(dto.GrantedToUserID)
	if err != nil {
		r.logger.Error("failed to look up grantee role", "error", err, "user_id", dto.GrantedToUserID)
		return nil, internal.NewValidationError("grantee does not exist", internal.ErrCodeValidationFailed)
	}
	if !granteeRole.CanHoldCrewChiefGrant() {
		r.logger.Warn("grant creation rejected: ineligible grantee role",
			"grantee_id", dto.GrantedToUserID,
			"grantee_role", granteeRole)
		return nil, ErrIneligibleGrantee
	}

	row := &permissionDatamodel.CrewChiefPermission{
		GrantedToUserID: dto.GrantedToUserID,
		Scope:           dto.Scope,
		TargetID:        dto.TargetID,
		GrantedByUserID: actor.ID,
		CreatedAt:       time.Now(),
	}
	if err := r.repo.CreateGrant(row); err != nil {
		r.logger.Error("failed to create crew chief grant", "error", err)
		return nil, internal.NewStorageError("failed to create crew chief grant", err)
	}

	r.logger.Info("crew chief permission granted",
		"grant_id", row.ID,
		"grantee_id", row.GrantedToUserID,
		"scope", row.Scope,
		"target_id", row.TargetID,
		"granted_by", actor.ID)

	return FromDataModel(row), nil
}

// RevokeGrant removes a grant; management only.
func (r *Resolver) RevokeGrant(actor *auth.User, grantID int64) error {
	if !actor.Role.IsManagement() {
		r.logger.Warn("grant revocation denied: management role required", "actor_id", actor.ID, "role", actor.Role)
		return ErrManagementRequired
	}

	if _, err := r.repo.GetGrant(grantID); err != nil {
		return ErrGrantNotFound
	}

	if err := r.repo.DeleteGrant(grantID); err != nil {
		r.logger.Error("failed to delete crew chief grant", "error", err, "grant_id", grantID)
		return internal.NewStorageError("failed to delete crew chief grant", err)
	}

	r.logger.Info("crew chief permission revoked", "grant_id", grantID, "revoked_by", actor.ID)
	return nil
}
