package services

import "errors"

var (
	ErrNotLoaded           = errors.New("store has not been loaded")
	ErrDuplicateAllocation = errors.New("an allocation already exists for this project, member and sprint")
	ErrAllocationNotFound  = errors.New("allocation not found")
	ErrInvalidPercentage   = errors.New("percentage must be between 0 and 100")
	ErrInvalidSprint       = errors.New("invalid sprint")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")

	ErrMemberNotFound = errors.New("team member not found")
	ErrDuplicateEmail = errors.New("a team member with this email already exists")
	ErrInvalidRole    = errors.New("invalid role")
	ErrManagerCycle   = errors.New("manager assignment would create a cycle")
	ErrInvalidMember  = errors.New("full name and email are required")

	ErrProjectNotFound      = errors.New("project not found")
	ErrDuplicateProject     = errors.New("a project with this customer and name already exists")
	ErrInvalidProject       = errors.New("customer name and project name are required")
	ErrInvalidProjectType   = errors.New("invalid project type")
	ErrInvalidProjectStatus = errors.New("invalid project status")
)
