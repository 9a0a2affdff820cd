package auth

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/staffdesk/staffdesk/internal/db/models"
)

// Service provides role and permission resolution for employees.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RolesOf returns the names of all roles assigned to an employee.
// An employee without assignments yields an empty set, not an error.
func (s *Service) RolesOf(employeeID uint64) ([]string, error) {
	var roles []string

	err := s.db.Table("roles").
		Select("DISTINCT roles.name").
		Joins("JOIN employee_roles ON employee_roles.role_id = roles.id").
		Where("employee_roles.employee_id = ?", employeeID).
		Pluck("roles.name", &roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get employee roles: %w", err)
	}

	return roles, nil
}

// HasRole checks if an employee has a specific role assigned.
func (s *Service) HasRole(employeeID uint64, roleName string) (bool, error) {
	var count int64

	err := s.db.Table("roles").
		Joins("JOIN employee_roles ON employee_roles.role_id = roles.id").
		Where("employee_roles.employee_id = ? AND roles.name = ?", employeeID, roleName).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}

	return count > 0, nil
}

// HasPermission checks if any role assigned to the employee carries a
// permission row matching (resource, action) exactly. There is no wildcard
// matching.
func (s *Service) HasPermission(employeeID uint64, resource, action string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN employee_roles ON employee_roles.role_id = role_permissions.role_id").
		Where("employee_roles.employee_id = ? AND permissions.resource = ? AND permissions.action = ?",
			employeeID, resource, action).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}

	return count > 0, nil
}

// FieldLevelPermissions merges the field-level maps of all permission rows
// matching the resource across the employee's roles.
//
// Merge policy is most-restrictive-wins: a field is allowed only if every
// role that mentions it allows it. Role assignment order carries no meaning.
func (s *Service) FieldLevelPermissions(employeeID uint64, resource string) (map[string]bool, error) {
	var permissions []models.Permission

	err := s.db.Table("permissions").
		Select("permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN employee_roles ON employee_roles.role_id = role_permissions.role_id").
		Where("employee_roles.employee_id = ? AND permissions.resource = ?", employeeID, resource).
		Find(&permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get field level permissions: %w", err)
	}

	merged := make(map[string]bool)

	for _, permission := range permissions {
		if len(permission.FieldLevel) == 0 {
			continue
		}

		var fields map[string]bool
		if err := json.Unmarshal(permission.FieldLevel, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse field level blob: %w", err)
		}

		for field, allowed := range fields {
			if seen, ok := merged[field]; ok {
				merged[field] = seen && allowed
			} else {
				merged[field] = allowed
			}
		}
	}

	return merged, nil
}

// AssignRole assigns a role to an employee, ignoring duplicates.
func (s *Service) AssignRole(employeeID uint64, roleID uint) error {
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.EmployeeRole{
			EmployeeID: employeeID,
			RoleID:     roleID,
		}).Error
}
