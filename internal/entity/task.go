package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/GFRDINDIA/Helper/internal/common"
)

// db model
type Task struct {
	ID                 uuid.UUID           `json:"id" db:"task_id"`
	CustomerID         uuid.UUID           `json:"customerId" db:"customer_id"`
	Title              string              `json:"title" db:"title"`
	Description        string              `json:"description" db:"description"`
	Domain             common.TaskDomain   `json:"domain" db:"domain"`
	PricingModel       common.PricingModel `json:"pricingModel" db:"pricing_model"`
	Status             common.TaskStatus   `json:"status" db:"status"`
	Budget             float64             `json:"budget" db:"budget"`
	FinalPrice         *float64            `json:"finalPrice" db:"final_price"`
	Latitude           float64             `json:"latitude" db:"latitude"`
	Longitude          float64             `json:"longitude" db:"longitude"`
	Address            string              `json:"address" db:"address"`
	Images             []string            `json:"images" db:"images"`
	AssignedWorkerID   *uuid.UUID          `json:"assignedWorkerId" db:"assigned_worker_id"`
	ScheduledAt        *time.Time          `json:"scheduledAt" db:"scheduled_at"`
	CancellationReason *string             `json:"cancellationReason" db:"cancellation_reason"`
	CancelledBy        *uuid.UUID          `json:"cancelledBy" db:"cancelled_by"`
	DisputeReason      *string             `json:"disputeReason" db:"dispute_reason"`
	CreatedAt          time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time           `json:"updatedAt" db:"updated_at"`
	CompletedAt        *time.Time          `json:"completedAt" db:"completed_at"`
}

// service + repo input model
type CreateTaskInput struct {
	CustomerID   uuid.UUID
	Title        string
	Description  string
	Domain       common.TaskDomain
	PricingModel common.PricingModel
	Budget       float64
	Latitude     float64
	Longitude    float64
	Address      string
	Images       []string
	ScheduledAt  *time.Time
	// Status starts at POSTED; id and timestamps come from the store
}

// UpdateTaskInput carries a partial update. Nil fields keep their
// current value.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Budget      *float64
	Latitude    *float64
	Longitude   *float64
	Address     *string
	Images      []string
	ScheduledAt *time.Time
}

// TaskStatusPatch carries the side effects of a single status
// transition, applied atomically with the status change.
type TaskStatusPatch struct {
	AssignedWorkerID   *uuid.UUID
	FinalPrice         *float64
	CompletedAt        *time.Time
	CancellationReason *string
	CancelledBy        *uuid.UUID
	DisputeReason      *string
}

// TaskFilter narrows non-geo search.
type TaskFilter struct {
	Status       *common.TaskStatus
	Domain       *common.TaskDomain
	PricingModel *common.PricingModel
	CustomerID   *uuid.UUID
}

// GeoQuery narrows geo search to status/domain candidates near a point.
type GeoQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Status    common.TaskStatus
	Domain    *common.TaskDomain
}

// SortInput is a field+direction order for paged listings.
type SortInput struct {
	Field      string
	Descending bool
}

// TaskStats is the admin platform counters snapshot.
type TaskStats struct {
	TotalTasks    int64                       `json:"totalTasks"`
	TasksByStatus map[common.TaskStatus]int64 `json:"tasksByStatus"`
	TasksByDomain map[common.TaskDomain]int64 `json:"tasksByDomain"`
}

// controller model
type TaskOutputModel struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customerId"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Domain             string     `json:"domain"`
	PricingModel       string     `json:"pricingModel"`
	Status             string     `json:"status"`
	Budget             float64    `json:"budget"`
	FinalPrice         *float64   `json:"finalPrice,omitempty"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	Address            string     `json:"address"`
	Images             []string   `json:"images"`
	AssignedWorkerID   *string    `json:"assignedWorkerId,omitempty"`
	ScheduledAt        *time.Time `json:"scheduledAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	DisputeReason      *string    `json:"disputeReason,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	BidCount           int        `json:"bidCount"`
	DistanceKm         *float64   `json:"distanceKm,omitempty"`
}
