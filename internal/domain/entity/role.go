package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDSuperAdmin   = 1
	RoleIDClinicAdmin  = 2
	RoleIDDoctor       = 3
	RoleIDPatient      = 4
	RoleIDSupportAdmin = 5
)

// RoleNames constants
const (
	RoleSuperAdmin   = "super_admin"
	RoleClinicAdmin  = "clinic_admin"
	RoleDoctor       = "doctor"
	RolePatient      = "patient"
	RoleSupportAdmin = "support_admin"
)
