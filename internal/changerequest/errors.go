package changerequest

import "errors"

var (
	// ErrNotFound is returned when the change request does not exist.
	ErrNotFound = errors.New("change request not found")
	// ErrEmployeeNotFound is returned when the target employee does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrInvalidTransition is returned when deciding a request that is no
	// longer pending.
	ErrInvalidTransition = errors.New("change request has already been decided")
	// ErrInvalidPayload is returned when the payload is empty, malformed or
	// contains fields that cannot be changed through a request.
	ErrInvalidPayload = errors.New("invalid change request payload")
	// ErrForbidden is returned when the requester may not propose changes for
	// the target employee.
	ErrForbidden = errors.New("not allowed to request changes for this employee")
	// ErrInvalidDecision is returned for decision values other than approved
	// or rejected.
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
)
