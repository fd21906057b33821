package dto

import (
	"github.com/spec-kit/employee-service/internal/domain"
)

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Fail builds an error envelope.
func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

// CreateEmployeeRequest captures the multipart form fields; the image part
// travels separately under the "image" field.
type CreateEmployeeRequest struct {
	FirstName string        `form:"firstName"`
	LastName  string        `form:"lastName"`
	Email     string        `form:"email"`
	Address   string        `form:"address"`
	Gender    domain.Gender `form:"gender"`
	Mobile    string        `form:"mobile"`
}

// UpdateEmployeeRequest is a partial update; absent fields stay unchanged.
type UpdateEmployeeRequest struct {
	FirstName *string        `json:"firstName"`
	LastName  *string        `json:"lastName"`
	Email     *string        `json:"email"`
	Address   *string        `json:"address"`
	Gender    *domain.Gender `json:"gender"`
	Mobile    *string        `json:"mobile"`
}

// ToDomain converts the request to the domain update type.
func (r UpdateEmployeeRequest) ToDomain() domain.EmployeeUpdate {
	return domain.EmployeeUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Address:   r.Address,
		Gender:    r.Gender,
		Mobile:    r.Mobile,
	}
}
