package models

import "time"

// EmployeeRole represents the many-to-many relationship between employees and roles.
// An employee's effective permission set is the union over all assigned roles.
type EmployeeRole struct {
	// EmployeeID is the ID of the employee in this assignment.
	EmployeeID uint64 `gorm:"primaryKey;column:employee_id"`
	// RoleID is the ID of the assigned role.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// Employee is the associated employee (loaded via foreign key).
	Employee Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was assigned (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the EmployeeRole model.
func (EmployeeRole) TableName() string {
	return "employee_roles"
}
