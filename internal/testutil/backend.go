package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
)

// SaveCall is one recorded backend save.
type SaveCall struct {
	Collection  persist.Collection
	Members     []models.TeamMember
	Projects    []models.Project
	Allocations []models.Allocation
	History     []models.HistoryEntry
}

// RecordingBackend is an in-memory persist.Backend that records every save.
type RecordingBackend struct {
	mu      sync.Mutex
	Initial *persist.Snapshot
	calls   []SaveCall
	errs    map[persist.Collection]error
	gate    chan struct{}
	started chan persist.Collection
}

func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{
		Initial: persist.EmptySnapshot(),
		errs:    make(map[persist.Collection]error),
	}
}

// FailOn makes saves of c return err.
func (b *RecordingBackend) FailOn(c persist.Collection, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[c] = err
}

// Block makes every save wait until Release is called. Started reports each
// save as it begins.
func (b *RecordingBackend) Block() <-chan persist.Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gate = make(chan struct{})
	b.started = make(chan persist.Collection, 64)
	return b.started
}

func (b *RecordingBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gate != nil {
		close(b.gate)
		b.gate = nil
	}
}

func (b *RecordingBackend) Calls() []SaveCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallsFor returns the recorded saves of one collection.
func (b *RecordingBackend) CallsFor(c persist.Collection) []SaveCall {
	var out []SaveCall
	for _, call := range b.Calls() {
		if call.Collection == c {
			out = append(out, call)
		}
	}
	return out
}

func (b *RecordingBackend) FetchAll(ctx context.Context) (*persist.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := *b.Initial
	return snap.Normalize(), nil
}

func (b *RecordingBackend) record(c persist.Collection, call SaveCall) error {
	b.mu.Lock()
	gate, started := b.gate, b.started
	b.mu.Unlock()

	if gate != nil {
		started <- c
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	call.Collection = c
	b.calls = append(b.calls, call)
	return b.errs[c]
}

func (b *RecordingBackend) SaveTeamMembers(ctx context.Context, members []models.TeamMember) error {
	return b.record(persist.Members, SaveCall{Members: slices.Clone(members)})
}

func (b *RecordingBackend) SaveProjects(ctx context.Context, projects []models.Project) error {
	return b.record(persist.Projects, SaveCall{Projects: slices.Clone(projects)})
}

func (b *RecordingBackend) SaveAllocations(ctx context.Context, allocations []models.Allocation) error {
	return b.record(persist.Allocations, SaveCall{Allocations: slices.Clone(allocations)})
}

func (b *RecordingBackend) SaveHistory(ctx context.Context, history []models.HistoryEntry) error {
	return b.record(persist.History, SaveCall{History: slices.Clone(history)})
}

func (b *RecordingBackend) SaveSprintProjects(ctx context.Context, sprintProjects map[string][]string) error {
	return b.record(persist.SprintProjects, SaveCall{})
}

func (b *RecordingBackend) SaveSprintRoleRequirements(ctx context.Context, requirements map[string]map[string]float64) error {
	return b.record(persist.RoleRequirements, SaveCall{})
}
