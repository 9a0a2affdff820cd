package models

import "time"

// ChangeRequestStatus is the state of a change request.
// The only legal transitions are pending→approved and pending→rejected;
// both targets are terminal.
type ChangeRequestStatus string

const (
	// ChangeRequestPending awaits a manager/admin decision.
	ChangeRequestPending ChangeRequestStatus = "pending"
	// ChangeRequestApproved was applied to the target employee.
	ChangeRequestApproved ChangeRequestStatus = "approved"
	// ChangeRequestRejected was declined; the employee record is untouched.
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// ChangeRequest is a proposed field mutation on an employee awaiting approval.
type ChangeRequest struct {
	ID               uint64 `gorm:"primaryKey" json:"id"`
	TargetEmployeeID uint64 `gorm:"not null;index" json:"targetEmployeeId"`
	// RequesterEmployeeID is nil when an admin without a linked employee
	// record submitted the request.
	RequesterEmployeeID *uint64 `gorm:"index" json:"requesterEmployeeId"`
	// Payload is a JSON object holding the partial employee diff.
	Payload []byte              `gorm:"type:json;not null" json:"payload"`
	Status  ChangeRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	// ApprovedByID is the user id of the deciding admin.
	ApprovedByID *string    `gorm:"size:191" json:"approvedById"`
	DecidedAt    *time.Time `json:"decidedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName specifies the database table name for the ChangeRequest model.
func (ChangeRequest) TableName() string {
	return "change_requests"
}
