package domain

import (
	"fmt"
	"strings"
	"time"
)

// Gender enumerates accepted gender values.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the value is one of the accepted genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Employee is the aggregate for directory records. Image holds the object
// storage key; ImageURL is derived per read and never persisted as truth.
type Employee struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Gender    Gender    `json:"gender"`
	Mobile    string    `json:"mobile"`
	Image     string    `json:"image,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks required fields and the gender enum.
func (e *Employee) Validate() error {
	required := map[string]string{
		"firstName": e.FirstName,
		"lastName":  e.LastName,
		"email":     e.Email,
		"address":   e.Address,
		"mobile":    e.Mobile,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	if !e.Gender.Valid() {
		return fmt.Errorf("gender must be %q or %q", GenderMale, GenderFemale)
	}
	return nil
}

// EmployeeUpdate carries a partial update; nil fields are left unchanged.
type EmployeeUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	Gender    *Gender `json:"gender"`
	Mobile    *string `json:"mobile"`
}

// Empty reports whether the update changes nothing.
func (u EmployeeUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.Address == nil && u.Gender == nil && u.Mobile == nil
}

// ApplyTo merges the update onto an employee in place.
func (u EmployeeUpdate) ApplyTo(e *Employee) {
	if u.FirstName != nil {
		e.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		e.LastName = *u.LastName
	}
	if u.Email != nil {
		e.Email = *u.Email
	}
	if u.Address != nil {
		e.Address = *u.Address
	}
	if u.Gender != nil {
		e.Gender = *u.Gender
	}
	if u.Mobile != nil {
		e.Mobile = *u.Mobile
	}
}
