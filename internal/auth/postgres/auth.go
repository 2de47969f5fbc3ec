package postgres

import (
	"errors"

	"github.com/frahmantamala/crew-timekeeping/internal/auth"
	userDatamodel "github.com/frahmantamala/crew-timekeeping/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// UserRepository implements the auth.RepositoryAPI interface using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) auth.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUserByID(userID int64) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.Where("id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	if !row.IsActive {
		return nil, auth.ErrUserInactive
	}

	role, err := auth.ParseRole(row.Role)
	if err != nil {
		return nil, auth.ErrUnknownRole
	}

	return &auth.User{
		ID:       row.ID,
		Email:    row.Email,
		Name:     row.Name,
		Role:     role,
		ClientID: row.ClientID,
	}, nil
}
