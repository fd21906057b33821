package events

import (
	"time"

	"github.com/spec-kit/employee-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeCreated EventType = "employee_created"
	EventEmployeeUpdated EventType = "employee_updated"
	EventEmployeeDeleted EventType = "employee_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	EmployeeID string      `json:"employee_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// EmployeeCreatedPayload payload.
type EmployeeCreatedPayload struct {
	Email    string        `json:"email"`
	Gender   domain.Gender `json:"gender"`
	HasImage bool          `json:"has_image"`
}

// EmployeeUpdatedPayload payload.
type EmployeeUpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}

// EmployeeDeletedPayload payload.
type EmployeeDeletedPayload struct {
	ImageKey string `json:"image_key,omitempty"`
}
