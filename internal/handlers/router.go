package handlers

import (
	"net/http"
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	authmw "github.com/dimitrije/capacity-planner/internal/middleware"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

// PlannerStore is everything the HTTP surface needs from the Store.
type PlannerStore interface {
	MemberStoreInterface
	ProjectStoreInterface
	AllocationStoreInterface
	SprintStoreInterface
	StatusSourceInterface
}

type RouterConfig struct {
	Store      PlannerStore
	Hub        HubInterface
	JWT        *services.JWTService
	Thresholds capacity.Thresholds
	Release    bool
	Now        func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	memberHandler := NewMemberHandler(cfg.Store, cfg.Hub)
	projectHandler := NewProjectHandler(cfg.Store, cfg.Hub)
	allocationHandler := NewAllocationHandler(cfg.Store, cfg.Hub)
	sprintHandler := NewSprintHandler(cfg.Store, cfg.Hub)
	capacityHandler := NewCapacityHandler(cfg.Store, cfg.Thresholds)
	statusHandler := NewStatusHandler(cfg.Store, cfg.Hub)
	sseHandler := NewSSEHandler(cfg.Hub)
	if cfg.Now != nil {
		sprintHandler.now = cfg.Now
		capacityHandler.now = cfg.Now
	}

	app := drift.New()

	if cfg.Release {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(cfg.JWT))

	protected.Get("/members", memberHandler.List)
	protected.Post("/members", memberHandler.Create)
	protected.Get("/members/:id", memberHandler.Get)
	protected.Patch("/members/:id", memberHandler.Update)
	protected.Put("/members/:id/manager", memberHandler.SetManager)
	protected.Post("/members/:id/deactivate", memberHandler.Deactivate)
	protected.Post("/members/:id/activate", memberHandler.Activate)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)
	protected.Get("/projects/:id", projectHandler.Get)
	protected.Patch("/projects/:id", projectHandler.Update)
	protected.Post("/projects/:id/archive", projectHandler.Archive)
	protected.Post("/projects/:id/unarchive", projectHandler.Unarchive)
	protected.Get("/projects/:id/sprints/:year/:month/:sprint/requirements", sprintHandler.Requirements)
	protected.Put("/projects/:id/sprints/:year/:month/:sprint/requirements", sprintHandler.SetRequirements)

	protected.Get("/allocations", allocationHandler.List)
	protected.Post("/allocations", allocationHandler.Create)
	protected.Get("/allocations/:id", allocationHandler.Get)
	protected.Patch("/allocations/:id", allocationHandler.Update)
	protected.Delete("/allocations/:id", allocationHandler.Delete)
	protected.Get("/allocations/:id/history", allocationHandler.AllocationHistory)
	protected.Get("/history", allocationHandler.History)

	protected.Get("/sprint/current", sprintHandler.Current)
	protected.Get("/sprints/:year/:month/:sprint", sprintHandler.Get)
	protected.Get("/sprints/:year/:month/:sprint/projects", sprintHandler.Projects)
	protected.Put("/sprints/:year/:month/:sprint/projects", sprintHandler.SetProjects)

	protected.Get("/capacity/members", capacityHandler.Members)
	protected.Get("/capacity/projects", capacityHandler.Projects)
	protected.Get("/capacity/projects/:id/gaps", capacityHandler.Gaps)

	protected.Get("/status", statusHandler.Status)
	protected.Get("/events", sseHandler.Connect)

	return app
}
