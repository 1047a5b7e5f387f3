package model

// MinOrganizationNameLen is the shortest accepted organization name.
const MinOrganizationNameLen = 4

type OrganizationStatus string

const (
	OrganizationStatusActive   OrganizationStatus = "active"
	OrganizationStatusInactive OrganizationStatus = "inactive"
)

// Organization is a tenant (clinic). It scopes users and appointments.
type Organization struct {
	Base
	Name   string             `db:"name" json:"name"`
	Status OrganizationStatus `db:"status" json:"status"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=4"`
}

type UpdateOrganizationRequest struct {
	Name   *string             `json:"name" binding:"omitempty,min=4"`
	Status *OrganizationStatus `json:"status" binding:"omitempty,oneof=active inactive"`
}
