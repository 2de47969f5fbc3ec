package postgres

import (
	"errors"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	permissionDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/permission"
	shiftDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/shift"
	userDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/user"
	"github.com/frahmantamala/crew-timekeeping/internal/permission"
	"gorm.io/gorm"
)

// PermissionRepository implements the permission.Repository interface using GORM
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.Repository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetShift(shiftID int64) (*shiftDatamodel.Shift, error) {
	var shift shiftDatamodel.Shift
	if err := r.db.Where("id = ?", shiftID).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *PermissionRepository) ListGrants(userID int64) ([]*permissionDatamodel.CrewChiefPermission, error) {
	var grants []*permissionDatamodel.CrewChiefPermission
	err := r.db.Where("granted_to_user_id = ?", userID).Find(&grants).Error
	return grants, err
}

func (r *PermissionRepository) GetGrant(id int64) (*permissionDatamodel.CrewChiefPermission, error) {
	var grant permissionDatamodel.CrewChiefPermission
	if err := r.db.Where("id = ?", id).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *PermissionRepository) CreateGrant(grant *permissionDatamodel.CrewChiefPermission) error {
	return r.db.Create(grant).Error
}

func (r *PermissionRepository) DeleteGrant(id int64) error {
	return r.db.Delete(&permissionDatamodel.CrewChiefPermission{}, id).Error
}

func (r *PermissionRepository) GetUserRole(userID int64) (auth.Role, error) {
	var row userDatamodel.User
	err := r.db.Select("role").Where("id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", auth.ErrUserNotFound
		}
		return "", err
	}
	return auth.ParseRole(row.Role)
}
