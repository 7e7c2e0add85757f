package domain

import (
	"strings"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/validation"
)

// VehicleType is the kind of vehicle an agent drives.
type VehicleType string

const (
	VehicleBike  VehicleType = "bike"
	VehicleCar   VehicleType = "car"
	VehicleTruck VehicleType = "truck"
	VehicleVan   VehicleType = "van"
)

// AgentProfile holds the fields only agents carry.
type AgentProfile struct {
	AssignedArea string      `json:"assignedArea" validate:"required"`
	VehicleType  VehicleType `json:"vehicleType" validate:"required,oneof=bike car truck van"`
	LicensePlate string      `json:"licensePlate" validate:"required"`
}

// Address is a user's postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// User is an account. Agent is non-nil exactly when Role is agent.
type User struct {
	ID           string        `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string        `json:"name" gorm:"not null"`
	Email        string        `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string        `json:"-" gorm:"not null"`
	Phone        string        `json:"phone"`
	Role         identity.Role `json:"role" gorm:"index;not null"`
	IsActive     bool          `json:"isActive" gorm:"not null;default:true"`
	Agent        *AgentProfile `json:"agent,omitempty" gorm:"type:jsonb;serializer:json"`
	Address      Address       `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	ProfileImage string        `json:"profileImage"`
	LastLogin    *time.Time    `json:"lastLogin,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"index"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Validate checks the role and its tagged agent variant.
func (u *User) Validate() error {
	if !u.Role.Valid() {
		return apperr.NewValidation("role must be one of: customer, agent, admin")
	}
	if u.Role == identity.RoleAgent {
		if u.Agent == nil {
			return apperr.NewValidation("agent is required for agent accounts")
		}
		return validation.Struct(u.Agent)
	}
	if u.Agent != nil {
		return apperr.NewValidation("agent is only allowed for agent accounts")
	}
	return nil
}

// Contact returns the addressable part of the user.
func (u *User) Contact() identity.Contact {
	return identity.Contact{ID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
