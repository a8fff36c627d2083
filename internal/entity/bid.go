package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/GFRDINDIA/Helper/internal/common"
)

// db model
type Bid struct {
	ID            uuid.UUID        `json:"id" db:"bid_id"`
	TaskID        uuid.UUID        `json:"taskId" db:"task_id"`
	WorkerID      uuid.UUID        `json:"workerId" db:"worker_id"`
	ProposedPrice float64          `json:"proposedPrice" db:"proposed_price"`
	Message       string           `json:"message" db:"message"`
	Status        common.BidStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	RespondedAt   *time.Time       `json:"respondedAt" db:"responded_at"`
}

// service + repo input model
type CreateBidInput struct {
	TaskID        uuid.UUID
	WorkerID      uuid.UUID
	ProposedPrice float64
	Message       string
	// Status starts at PENDING; id and created_at come from the store
}

// controller model
type BidOutputModel struct {
	ID            string     `json:"id"`
	TaskID        string     `json:"taskId"`
	WorkerID      string     `json:"workerId"`
	ProposedPrice float64    `json:"proposedPrice"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
}
