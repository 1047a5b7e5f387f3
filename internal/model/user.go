package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfileKind identifies the role-specific profile attached to an
// organization user. Exactly one profile determines the user's role.
type ProfileKind string

const (
	ProfileKindAdmin   ProfileKind = "admin"
	ProfileKindDoctor  ProfileKind = "doctor"
	ProfileKindPatient ProfileKind = "patient"
)

// OrganizationUser is a person belonging to exactly one organization,
// specialized into admin, doctor, or patient via a linked profile.
type OrganizationUser struct {
	Base
	OrganizationID   uuid.UUID `json:"organization_id" db:"organization_id"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	RefreshTokenHash *string   `json:"-" db:"refresh_token_hash"`

	// Nullable, unique profile foreign keys. A database check constraint
	// and the service-layer guard both hold at most one non-null.
	DoctorProfileID  *uuid.UUID `json:"-" db:"doctor_profile_id"`
	PatientProfileID *uuid.UUID `json:"-" db:"patient_profile_id"`
	AdminProfileID   *uuid.UUID `json:"-" db:"admin_profile_id"`

	// Profile records resolved by an explicit query, never implicitly loaded.
	DoctorProfile  *DoctorProfile  `json:"doctor_profile,omitempty" db:"-"`
	PatientProfile *PatientProfile `json:"patient_profile,omitempty" db:"-"`
	AdminProfile   *AdminProfile   `json:"admin_profile,omitempty" db:"-"`
}

// Role reports the user's role from the attached profile reference, or
// "" if none is set.
func (u *OrganizationUser) Role() ProfileKind {
	switch {
	case u.AdminProfileID != nil:
		return ProfileKindAdmin
	case u.DoctorProfileID != nil:
		return ProfileKindDoctor
	case u.PatientProfileID != nil:
		return ProfileKindPatient
	default:
		return ""
	}
}

// ProfileCount reports how many profile kinds are referenced.
func (u *OrganizationUser) ProfileCount() int {
	n := 0
	if u.DoctorProfileID != nil {
		n++
	}
	if u.PatientProfileID != nil {
		n++
	}
	if u.AdminProfileID != nil {
		n++
	}
	return n
}

// DoctorProfile holds doctor-specific attributes, 1:1 with an
// organization user.
type DoctorProfile struct {
	Base
	Specialization string  `json:"specialization" db:"specialization"`
	LicenseNumber  string  `json:"license_number" db:"license_number"`
	Phone          *string `json:"phone,omitempty" db:"phone"`
}

// PatientProfile holds patient-specific attributes, 1:1 with an
// organization user.
type PatientProfile struct {
	Base
	DateOfBirth       time.Time `json:"date_of_birth" db:"date_of_birth"`
	Phone             string    `json:"phone" db:"phone"`
	Address           string    `json:"address" db:"address"`
	EmergencyContact  string    `json:"emergency_contact" db:"emergency_contact"`
	BloodType         string    `json:"blood_type" db:"blood_type"`
	Allergies         string    `json:"allergies" db:"allergies"`
	ChronicConditions string    `json:"chronic_conditions" db:"chronic_conditions"`
}

// AdminProfile carries no extra fields; its existence marks the role.
type AdminProfile struct {
	Base
}

// Request payloads.

type DoctorProfileInput struct {
	Specialization string  `json:"specialization" binding:"required"`
	LicenseNumber  string  `json:"license_number" binding:"required"`
	Phone          *string `json:"phone"`
}

type PatientProfileInput struct {
	DateOfBirth       time.Time `json:"date_of_birth" binding:"required"`
	Phone             string    `json:"phone" binding:"required"`
	Address           string    `json:"address" binding:"required"`
	EmergencyContact  string    `json:"emergency_contact"`
	BloodType         string    `json:"blood_type"`
	Allergies         string    `json:"allergies"`
	ChronicConditions string    `json:"chronic_conditions"`
}

type CreateOrganizationUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`

	// Exactly one profile payload must be present.
	DoctorProfile  *DoctorProfileInput  `json:"doctor_profile"`
	PatientProfile *PatientProfileInput `json:"patient_profile"`
	AdminProfile   *struct{}            `json:"admin_profile"`
}

type UpdateOrganizationUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
}

type UpdateProfileRequest struct {
	DoctorProfile  *DoctorProfileInput  `json:"doctor_profile"`
	PatientProfile *PatientProfileInput `json:"patient_profile"`
}

type OrganizationUserFilters struct {
	OrganizationID uuid.UUID
	Role           ProfileKind
	SearchTerm     string
}
