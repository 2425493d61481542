package dto

import "github.com/google/uuid"

type CreateMemberRequest struct {
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Teams     []string   `json:"teams,omitempty"`
	ManagerID *uuid.UUID `json:"managerId,omitempty"`
	Capacity  *float64   `json:"capacity,omitempty"`
}

type UpdateMemberRequest struct {
	FullName *string  `json:"fullName,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Role     *string  `json:"role,omitempty"`
	Teams    []string `json:"teams,omitempty"`
	Capacity *float64 `json:"capacity,omitempty"`
}

// SetManagerRequest clears the manager when ManagerID is null.
type SetManagerRequest struct {
	ManagerID *uuid.UUID `json:"managerId"`
}
