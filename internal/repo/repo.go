package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/repo/pgdb"
	"github.com/GFRDINDIA/Helper/pkg/postgres"
)

type Diagnostics interface {
	Ping(ctx context.Context) error
}

type Task interface {
	CreateTask(ctx context.Context, input *entity.CreateTaskInput) (uuid.UUID, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)

	// UpdateTask applies the non-nil patch fields while the task is
	// still editable (POSTED/OPEN). Returns ErrConflict if the status
	// moved on since it was read.
	UpdateTask(ctx context.Context, id uuid.UUID, patch *entity.UpdateTaskInput) error

	// UpdateTaskStatus is a compare-and-swap: the write succeeds only
	// if the status is still `from` at commit time. The patch fields
	// are applied in the same statement.
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, from, to common.TaskStatus, patch *entity.TaskStatusPatch) error

	GetTasksByCustomer(ctx context.Context, customerID uuid.UUID, pg *entity.PaginationInput) ([]entity.Task, error)
	GetTasksByWorker(ctx context.Context, workerID uuid.UUID, pg *entity.PaginationInput) ([]entity.Task, error)
	SearchTasks(ctx context.Context, filter *entity.TaskFilter, sort *entity.SortInput, pg *entity.PaginationInput) ([]entity.Task, error)

	// GetGeoCandidates returns tasks matching the status/domain filter
	// inside the bounding box of the query; exact distance filtering is
	// the caller's job.
	GetGeoCandidates(ctx context.Context, q *entity.GeoQuery) ([]entity.Task, error)

	CountTasks(ctx context.Context) (int64, error)
	CountTasksByStatus(ctx context.Context, status common.TaskStatus) (int64, error)
	CountTasksByDomain(ctx context.Context, domain common.TaskDomain) (int64, error)
}

type Bid interface {
	// CreateBid returns ErrDuplicate if the worker already has a bid on
	// the task (in any status), and ErrLimitExceeded if the task already
	// carries maxBidsPerTask bids. Both checks happen inside the insert
	// so concurrent submissions can't slip past them.
	CreateBid(ctx context.Context, input *entity.CreateBidInput, maxBidsPerTask int) (uuid.UUID, error)
	GetBidByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)

	// AcceptBid commits the three-part acceptance as one transaction:
	// task OPEN -> ACCEPTED with worker and price locked, bid
	// PENDING -> ACCEPTED, every sibling PENDING bid -> REJECTED.
	// Returns ErrConflict if the task or the bid moved on.
	AcceptBid(ctx context.Context, bidID, taskID, workerID uuid.UUID, price float64, respondedAt time.Time) error

	// UpdateBidStatus is a compare-and-swap on the bid status.
	UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to common.BidStatus, respondedAt time.Time) error

	GetTaskBids(ctx context.Context, taskID uuid.UUID) ([]entity.Bid, error)
	GetBidForWorker(ctx context.Context, taskID, workerID uuid.UUID) (*entity.Bid, error)
	GetWorkerBids(ctx context.Context, workerID uuid.UUID) ([]entity.Bid, error)
	CountTaskBids(ctx context.Context, taskID uuid.UUID) (int64, error)
}

type Repositories struct {
	Diagnostics
	Task
	Bid
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics: pgdb.NewDiagnosticsRepo(p),
		Task:        pgdb.NewTaskRepo(p),
		Bid:         pgdb.NewBidRepo(p),
	}
}
