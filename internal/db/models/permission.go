package models

import "time"

// Permission represents a specific permission in the authorization system.
// A permission is a (resource, action, scope) tuple with an optional
// field-level JSON map restricting which fields of the resource it covers.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey"`
	// Resource is the resource this permission applies to (e.g., "employees").
	Resource string `gorm:"size:100;not null;uniqueIndex:idx_resource_action_scope"`
	// Action is the action allowed on the resource (e.g., "read", "update").
	Action string `gorm:"size:50;not null;uniqueIndex:idx_resource_action_scope"`
	// Scope narrows the permission (e.g., "all", "team", "self").
	Scope string `gorm:"size:50;not null;default:'all';uniqueIndex:idx_resource_action_scope"`
	// FieldLevel is a JSON object mapping field names to booleans. Empty
	// means the permission covers all fields of the resource.
	FieldLevel []byte `gorm:"type:json"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
