package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusApproved  AppointmentStatus = "APPROVED"
	AppointmentStatusDeclined  AppointmentStatus = "DECLINED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
)

// AppointmentAction is a caller-requested lifecycle operation.
type AppointmentAction string

const (
	AppointmentActionApprove  AppointmentAction = "approve"
	AppointmentActionDecline  AppointmentAction = "decline"
	AppointmentActionComplete AppointmentAction = "complete"
	AppointmentActionCancel   AppointmentAction = "cancel"
)

// transition describes one legal edge of the lifecycle graph and the
// participant role allowed to take it.
type transition struct {
	From  AppointmentStatus
	To    AppointmentStatus
	Actor ProfileKind
}

// Legal lifecycle edges. DECLINED, COMPLETED, and CANCELLED are terminal.
var transitions = map[AppointmentAction]transition{
	AppointmentActionApprove:  {From: AppointmentStatusPending, To: AppointmentStatusApproved, Actor: ProfileKindDoctor},
	AppointmentActionDecline:  {From: AppointmentStatusPending, To: AppointmentStatusDeclined, Actor: ProfileKindDoctor},
	AppointmentActionComplete: {From: AppointmentStatusApproved, To: AppointmentStatusCompleted, Actor: ProfileKindDoctor},
}

// cancel is the one action legal from two states.
var cancelFrom = map[AppointmentStatus]bool{
	AppointmentStatusPending:  true,
	AppointmentStatusApproved: true,
}

// ResolveTransition maps (current status, action) to the target status and
// the participant role permitted to act. ok is false for any edge outside
// the lifecycle graph.
func ResolveTransition(current AppointmentStatus, action AppointmentAction) (to AppointmentStatus, actor ProfileKind, ok bool) {
	if action == AppointmentActionCancel {
		if !cancelFrom[current] {
			return "", "", false
		}
		return AppointmentStatusCancelled, ProfileKindPatient, true
	}

	t, found := transitions[action]
	if !found || t.From != current {
		return "", "", false
	}
	return t.To, t.Actor, true
}

// Appointment links a patient and a doctor of the same organization at a
// point in time.
type Appointment struct {
	Base
	OrganizationID      uuid.UUID         `db:"organization_id" json:"organization_id"`
	PatientID           uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID            uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	AppointmentDateTime time.Time         `db:"appointment_datetime" json:"appointment_datetime"`
	Status              AppointmentStatus `db:"status" json:"status"`
	Notes               string            `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID           uuid.UUID `json:"patient_id"`
	DoctorID            uuid.UUID `json:"doctor_id" binding:"required"`
	AppointmentDateTime time.Time `json:"appointment_datetime" binding:"required"`
	Notes               string    `json:"notes" binding:"max=1000"`
}

type AppointmentFilters struct {
	OrganizationID uuid.UUID
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	Status         AppointmentStatus
	StartDate      time.Time
	EndDate        time.Time
}
