package models

import "time"

// EmployeeStatus represents the lifecycle state of an employee record.
type EmployeeStatus string

const (
	// StatusActive marks a current employee.
	StatusActive EmployeeStatus = "active"
	// StatusInactive marks a former or suspended employee.
	StatusInactive EmployeeStatus = "inactive"
	// StatusOnboarding marks an employee still being onboarded.
	StatusOnboarding EmployeeStatus = "onboarding"
)

// Employee is the HR record, independent of any login identity. Once a user
// is linked, the employee is the source of truth for profile fields; user
// profile fields are synchronized from it, never the reverse.
type Employee struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	FirstName    string `gorm:"size:100;not null" json:"firstName"`
	LastName     string `gorm:"size:100" json:"lastName"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Position     string `gorm:"size:150" json:"position"`
	DepartmentID *uint  `json:"departmentId"`
	// Department is the associated department (loaded via foreign key).
	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	// ManagerID references the employee this employee reports to.
	ManagerID *uint64        `gorm:"index" json:"managerId"`
	Status    EmployeeStatus `gorm:"type:varchar(20);not null;default:'onboarding'" json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// TableName specifies the database table name for the Employee model.
func (Employee) TableName() string {
	return "employees"
}

// Department groups employees for org structure.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Department model.
func (Department) TableName() string {
	return "departments"
}
