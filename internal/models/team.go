package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleProductManager Role = "Product Manager"
	RoleProductOwner   Role = "Product Owner"
	RoleDesigner       Role = "Designer"
	RoleEngineer       Role = "Engineer"
	RoleDataAnalyst    Role = "Data Analyst"
	RoleTeamLead       Role = "Team Lead"
)

var Roles = []Role{
	RoleProductManager,
	RoleProductOwner,
	RoleDesigner,
	RoleEngineer,
	RoleDataAnalyst,
	RoleTeamLead,
}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// DefaultCapacity is the percentage budget used when a member or project has none set.
const DefaultCapacity = 100.0

type TeamMember struct {
	ID        uuid.UUID  `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Teams     []string   `json:"teams"`
	ManagerID *uuid.UUID `json:"managerId,omitempty"`
	Capacity  *float64   `json:"capacity,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (m *TeamMember) EffectiveCapacity() float64 {
	if m.Capacity == nil {
		return DefaultCapacity
	}
	return *m.Capacity
}

func (m *TeamMember) InTeam(team string) bool {
	for _, t := range m.Teams {
		if strings.EqualFold(t, team) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with m.
func (m TeamMember) Clone() TeamMember {
	out := m
	if m.Teams != nil {
		out.Teams = append(make([]string, 0, len(m.Teams)), m.Teams...)
	}
	if m.ManagerID != nil {
		id := *m.ManagerID
		out.ManagerID = &id
	}
	if m.Capacity != nil {
		c := *m.Capacity
		out.Capacity = &c
	}
	return out
}
