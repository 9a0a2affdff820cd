package changerequest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// mutableFields maps payload keys, spelled the way the API serializes
// employees, to their database columns. A payload touching any other key is
// rejected outright rather than silently filtered, so a typo surfaces at
// submission instead of at approval.
var mutableFields = map[string]string{
	"firstName":    "first_name",
	"lastName":     "last_name",
	"email":        "email",
	"position":     "position",
	"departmentId": "department_id",
	"managerId":    "manager_id",
	"status":       "status",
}

// Service manages the lifecycle of employee change requests: submission by
// the employee or their manager, and a single terminal decision by an admin.
type Service struct {
	db    *gorm.DB
	roles *auth.Service
}

// NewService creates a change request service.
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:    db,
		roles: auth.NewService(db),
	}
}

// Submit validates the payload, checks that the requester may propose changes
// for the target and creates a pending request.
//
// A requester may submit for themselves, for a direct report when they hold
// the manager role, or for anyone when they are an admin.
func (s *Service) Submit(requester *auth.CurrentUser, targetEmployeeID uint64, payload map[string]any) (*models.ChangeRequest, error) {
	if requester == nil {
		return nil, ErrForbidden
	}

	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	var target models.Employee
	err := s.db.Where("id = ?", targetEmployeeID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}

	if !s.maySubmit(requester, &target) {
		return nil, ErrForbidden
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	request := models.ChangeRequest{
		TargetEmployeeID:    target.ID,
		RequesterEmployeeID: requester.EmployeeID,
		Payload:             raw,
		Status:              models.ChangeRequestPending,
	}

	if err := s.db.Create(&request).Error; err != nil {
		return nil, fmt.Errorf("failed to create change request: %w", err)
	}

	return &request, nil
}

func (s *Service) maySubmit(requester *auth.CurrentUser, target *models.Employee) bool {
	if requester.IsAdmin {
		return true
	}

	// everything below needs an employee identity
	if requester.EmployeeID == nil {
		return false
	}

	if *requester.EmployeeID == target.ID {
		return true
	}

	if requester.HasRole(auth.RoleManager) &&
		target.ManagerID != nil && *target.ManagerID == *requester.EmployeeID {
		return true
	}

	return false
}

// List returns change requests newest first, optionally filtered by status.
func (s *Service) List(status models.ChangeRequestStatus) ([]models.ChangeRequest, error) {
	var requests []models.ChangeRequest

	query := s.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list change requests: %w", err)
	}

	return requests, nil
}

// Get returns a single change request by id.
func (s *Service) Get(id uint64) (*models.ChangeRequest, error) {
	var request models.ChangeRequest

	err := s.db.Where("id = ?", id).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &request, nil
}

// Decide moves a pending request to approved or rejected. Both targets are
// terminal; deciding an already-decided request fails with
// ErrInvalidTransition and changes nothing.
//
// Approval applies the payload to the employee and writes exactly one audit
// row, all inside one transaction: either everything lands or the request
// stays pending.
func (s *Service) Decide(id uint64, decision models.ChangeRequestStatus, decidedBy string) (*models.ChangeRequest, error) {
	if decision != models.ChangeRequestApproved && decision != models.ChangeRequestRejected {
		return nil, ErrInvalidDecision
	}

	request, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if request.Status != models.ChangeRequestPending {
		return nil, ErrInvalidTransition
	}

	now := time.Now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// the pending guard in the WHERE clause closes the race between two
		// concurrent decisions
		result := tx.Model(&models.ChangeRequest{}).
			Where("id = ? AND status = ?", request.ID, models.ChangeRequestPending).
			Updates(map[string]any{
				"status":         decision,
				"approved_by_id": decidedBy,
				"decided_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		if decision == models.ChangeRequestRejected {
			return nil
		}

		updates, err := payloadUpdates(request.Payload)
		if err != nil {
			return err
		}

		result = tx.Model(&models.Employee{}).
			Where("id = ?", request.TargetEmployeeID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEmployeeNotFound
		}

		return tx.Create(&models.AuditLog{
			Table:   models.Employee{}.TableName(),
			RowID:   request.TargetEmployeeID,
			Action:  "update",
			Diff:    request.Payload,
			ActedBy: decidedBy,
			ActedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	request.Status = decision
	request.ApprovedByID = &decidedBy
	request.DecidedAt = &now

	return request, nil
}

// validatePayload rejects empty payloads, unknown fields and values of the
// wrong shape.
func validatePayload(payload map[string]any) error {
	if len(payload) == 0 {
		return ErrInvalidPayload
	}

	for key, value := range payload {
		if _, ok := mutableFields[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidPayload, key)
		}

		switch key {
		case "departmentId", "managerId":
			// JSON numbers arrive as float64; null clears the reference
			if value == nil {
				continue
			}
			num, ok := value.(float64)
			if !ok || num != float64(uint64(num)) {
				return fmt.Errorf("%w: %s must be a positive integer", ErrInvalidPayload, key)
			}
		case "status":
			str, _ := value.(string)
			switch models.EmployeeStatus(str) {
			case models.StatusActive, models.StatusInactive, models.StatusOnboarding:
			default:
				return fmt.Errorf("%w: invalid status %q", ErrInvalidPayload, str)
			}
		default:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidPayload, key)
			}
		}
	}

	return nil
}

// payloadUpdates converts a stored payload into a column update map.
func payloadUpdates(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	updates := make(map[string]any, len(payload))
	for key, value := range payload {
		updates[mutableFields[key]] = value
	}

	return updates, nil
}
