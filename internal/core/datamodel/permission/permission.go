package permission

import "time"

// Grant scopes, from most to least specific.
const (
	ScopeShift  = "shift"
	ScopeJob    = "job"
	ScopeClient = "client"
)

// CrewChiefPermission is an administratively granted crew-chief authority at
// shift, job or client scope. Designation via Shift.CrewChiefID is separate
// and always outranks a grant.
type CrewChiefPermission struct {
	ID              int64     `gorm:"primaryKey"`
	GrantedToUserID int64     `gorm:"column:granted_to_user_id;not null;index"`
	Scope           string    `gorm:"column:scope;not null"`
	TargetID        int64     `gorm:"column:target_id;not null"`
	GrantedByUserID int64     `gorm:"column:granted_by_user_id;not null"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (CrewChiefPermission) TableName() string {
	return "crew_chief_permissions"
}
