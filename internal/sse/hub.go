package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const (
	EventAllocationCreated = "allocation_created"
	EventAllocationUpdated = "allocation_updated"
	EventAllocationDeleted = "allocation_deleted"
	EventMemberChanged     = "member_changed"
	EventProjectChanged    = "project_changed"
	EventSprintPlanChanged = "sprint_plan_changed"
	EventSaveStatus        = "save_status"
	EventSaveFailed        = "save_failed"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AllocationEvent struct {
	AllocationID uuid.UUID `json:"allocationId"`
	ProjectID    uuid.UUID `json:"projectId"`
	MemberID     uuid.UUID `json:"productManagerId"`
	SprintKey    string    `json:"sprintKey"`
	ChangedBy    uuid.UUID `json:"changedBy"`
}

type EntityEvent struct {
	ID        uuid.UUID `json:"id"`
	ChangedBy uuid.UUID `json:"changedBy"`
}

type SprintPlanEvent struct {
	SprintKey string     `json:"sprintKey"`
	ProjectID *uuid.UUID `json:"projectId,omitempty"`
	ChangedBy uuid.UUID  `json:"changedBy"`
}

type SaveStatusEvent struct {
	Saving bool   `json:"isSaving"`
	Error  string `json:"error,omitempty"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

// Hub fans planner events out to every connected client.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client's Send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds client. After Run has returned the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for every client. It never blocks: when the
// queue is full the event is dropped.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	select {
	case h.broadcast <- Event{Type: eventType, Data: data}:
	default:
	}
}
