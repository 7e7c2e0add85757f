package domain

import (
	"strings"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/validation"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// RegisterRequest is the self-registration input. Admin accounts are
// only created from configuration.
type RegisterRequest struct {
	Name     string        `json:"name" validate:"required"`
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required,min=6"`
	Phone    string        `json:"phone" validate:"required"`
	Role     identity.Role `json:"role" validate:"omitempty,oneof=customer agent"`
	Address  *Address      `json:"address"`
	Agent    *AgentProfile `json:"agent"`
}

// Validate checks the request and the agent variant.
func (r *RegisterRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	role := r.Role
	if role == "" {
		role = identity.RoleCustomer
	}
	if role == identity.RoleAgent && r.Agent == nil {
		return apperr.NewValidation("agent is required for agent accounts")
	}
	return nil
}

// LoginRequest is the credential pair.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateRequest changes profile fields. Empty fields are left unchanged and
// agent fields are ignored for other roles.
type UpdateRequest struct {
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Address *Address `json:"address"`
	Agent   *AgentUpdate `json:"agent"`
}

// AgentUpdate carries optional agent profile changes.
type AgentUpdate struct {
	AssignedArea string      `json:"assignedArea"`
	VehicleType  VehicleType `json:"vehicleType" validate:"omitempty,oneof=bike car truck van"`
	LicensePlate string      `json:"licensePlate"`
}

// Apply copies the set fields onto u.
func (r *UpdateRequest) Apply(u *User) error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if v := strings.TrimSpace(r.Name); v != "" {
		u.Name = v
	}
	if v := strings.TrimSpace(r.Phone); v != "" {
		u.Phone = v
	}
	if r.Address != nil {
		u.Address = *r.Address
	}
	if r.Agent != nil && u.Role == identity.RoleAgent && u.Agent != nil {
		if r.Agent.AssignedArea != "" {
			u.Agent.AssignedArea = r.Agent.AssignedArea
		}
		if r.Agent.VehicleType != "" {
			u.Agent.VehicleType = r.Agent.VehicleType
		}
		if r.Agent.LicensePlate != "" {
			u.Agent.LicensePlate = r.Agent.LicensePlate
		}
	}
	return u.Validate()
}

// PasswordRequest changes the caller's password.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// Validate checks both passwords are present.
func (r *PasswordRequest) Validate() error {
	return validation.Struct(r)
}

// Query filters the admin user listing.
type Query struct {
	Role   identity.Role
	Search string
	Page   int
	Limit  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// NewQuery normalizes raw listing parameters. Role "all" or empty means no filter.
func NewQuery(role, search string, page, limit int) (Query, error) {
	q := Query{Search: strings.TrimSpace(search), Page: page, Limit: limit}
	if role = strings.TrimSpace(role); role != "" && role != "all" {
		q.Role = identity.Role(role)
		if !q.Role.Valid() {
			return Query{}, apperr.NewValidation("role must be one of: all, customer, agent, admin")
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q, nil
}

// Offset is the number of rows skipped for the page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is one page of users.
type Page struct {
	Users      []User
	Total      int64
	Page       int
	TotalPages int
}
