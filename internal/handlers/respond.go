package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/middleware"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	CodeDuplicateAllocation = "DUPLICATE_ALLOCATION"
	CodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	CodePersistenceFailed   = "PERSISTENCE_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_FAILED"
	CodeDuplicate           = "DUPLICATE"
	CodeNotLoaded           = "NOT_LOADED"
	CodeInternal            = "INTERNAL_ERROR"
)

func statusFor(err error) (int, string) {
	var perr *persist.PersistenceError
	switch {
	case errors.As(err, &perr):
		return http.StatusBadGateway, CodePersistenceFailed
	case errors.Is(err, services.ErrDuplicateAllocation):
		return http.StatusConflict, CodeDuplicateAllocation
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateProject):
		return http.StatusConflict, CodeDuplicate
	case errors.Is(err, services.ErrAllocationNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, services.ErrInvalidPercentage),
		errors.Is(err, services.ErrInvalidSprint),
		errors.Is(err, services.ErrNoFieldsToUpdate),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidMember),
		errors.Is(err, services.ErrManagerCycle),
		errors.Is(err, services.ErrInvalidProject),
		errors.Is(err, services.ErrInvalidProjectType),
		errors.Is(err, services.ErrInvalidProjectStatus):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, services.ErrNotLoaded):
		return http.StatusServiceUnavailable, CodeNotLoaded
	}
	return http.StatusInternalServerError, CodeInternal
}

// respondError writes err as an ErrorResponse. applied is the allocation that
// is already in memory when err is a persistence failure.
func respondError(c *drift.Context, err error, applied *models.Allocation) {
	status, code := statusFor(err)
	body := dto.ErrorResponse{Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		body.Message = "internal error"
	}

	var perr *persist.PersistenceError
	if errors.As(err, &perr) {
		body.Message = "change applied but could not be saved"
		body.Collection = string(perr.Collection)
		body.Allocation = applied
	}
	_ = c.JSON(status, body)
}

func respondCapacityExceeded(c *drift.Context, warnings []capacity.Warning) {
	msg := warnings[0].Message()
	_ = c.JSON(http.StatusConflict, dto.ErrorResponse{
		Code:     CodeCapacityExceeded,
		Message:  msg,
		Warnings: warnings,
	})
}

func respondDuplicate(c *drift.Context, existing *models.Allocation) {
	_ = c.JSON(http.StatusConflict, dto.ErrorResponse{
		Code:     CodeDuplicateAllocation,
		Message:  services.ErrDuplicateAllocation.Error(),
		Conflict: existing,
	})
}

func requireActor(c *drift.Context) (uuid.UUID, bool) {
	actorID := middleware.GetActorID(c)
	if actorID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, false
	}
	return actorID, true
}

func parseIDParam(c *drift.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.BadRequest("invalid " + what + " id")
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalID(c *drift.Context, name string) (*uuid.UUID, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.BadRequest("invalid " + name)
		return nil, false
	}
	return &id, true
}

func parseOptionalBool(c *drift.Context, name string) (*bool, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.BadRequest("invalid " + name)
		return nil, false
	}
	return &v, true
}

func atoiField(raw, name string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

func sprintFrom(year, month, index string) (sprint.Sprint, error) {
	y, err := atoiField(year, "year")
	if err != nil {
		return sprint.Sprint{}, err
	}
	m, err := atoiField(month, "month")
	if err != nil {
		return sprint.Sprint{}, err
	}
	i, err := atoiField(index, "sprint")
	if err != nil {
		return sprint.Sprint{}, err
	}
	sp := sprint.New(y, m, i)
	if !sp.Valid() {
		return sprint.Sprint{}, services.ErrInvalidSprint
	}
	return sp, nil
}

// sprintFromParams reads the :year/:month/:sprint path segments.
func sprintFromParams(c *drift.Context) (sprint.Sprint, bool) {
	sp, err := sprintFrom(c.Param("year"), c.Param("month"), c.Param("sprint"))
	if err != nil {
		c.BadRequest(err.Error())
		return sprint.Sprint{}, false
	}
	return sp, true
}

// sprintFromQuery reads ?year&month&sprint and falls back to the sprint
// containing now when all three are absent.
func sprintFromQuery(c *drift.Context, now time.Time) (sprint.Sprint, bool) {
	year, month, index := c.QueryParam("year"), c.QueryParam("month"), c.QueryParam("sprint")
	if year == "" && month == "" && index == "" {
		return sprint.Current(now), true
	}
	sp, err := sprintFrom(year, month, index)
	if err != nil {
		c.BadRequest(err.Error())
		return sprint.Sprint{}, false
	}
	return sp, true
}
