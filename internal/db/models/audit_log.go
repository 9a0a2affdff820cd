package models

import "time"

// AuditLog is an append-only record of applied mutations. Written exactly
// once per applied change-request approval; the application never updates or
// deletes rows in this table.
type AuditLog struct {
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Table names the mutated table (e.g., "employees").
	Table string `gorm:"column:table_name;size:100;not null" json:"table"`
	RowID uint64 `gorm:"not null;index" json:"rowId"`
	// Action is the mutation kind (e.g., "update").
	Action string `gorm:"size:50;not null" json:"action"`
	// Diff is the applied JSON payload.
	Diff []byte `gorm:"type:json" json:"diff"`
	// ActedBy is the user id of the actor.
	ActedBy string    `gorm:"size:191;not null" json:"actedBy"`
	ActedAt time.Time `gorm:"not null" json:"actedAt"`
}

// TableName specifies the database table name for the AuditLog model.
func (AuditLog) TableName() string {
	return "audit_log"
}
