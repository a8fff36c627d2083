package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GFRDINDIA/Helper/internal/auth"
	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/events"
	"github.com/GFRDINDIA/Helper/internal/repo"
)

type Diagnostics interface {
	Ping(ctx context.Context) error
}

type Task interface {
	CreateTask(ctx context.Context, input *entity.CreateTaskInput, caller auth.User) (*entity.TaskOutputModel, error)
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (*entity.TaskOutputModel, error)
	GetTaskStatus(ctx context.Context, taskID uuid.UUID) (common.TaskStatus, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, patch *entity.UpdateTaskInput, caller auth.User) (*entity.TaskOutputModel, error)

	Transition(ctx context.Context, taskID uuid.UUID, target common.TaskStatus, caller auth.User, reason string) (*entity.TaskOutputModel, error)
	ForceTransition(ctx context.Context, taskID uuid.UUID, target common.TaskStatus, caller auth.User, reason string) (*entity.TaskOutputModel, error)
	Cancel(ctx context.Context, taskID uuid.UUID, reason string, caller auth.User) (*entity.TaskOutputModel, error)

	GetMyTasks(ctx context.Context, caller auth.User, pg *entity.PaginationInput) ([]entity.TaskOutputModel, error)
	GetStats(ctx context.Context, caller auth.User) (*entity.TaskStats, error)
}

type Bid interface {
	SubmitBid(ctx context.Context, input *entity.CreateBidInput, caller auth.User) (*entity.BidOutputModel, error)
	AcceptBid(ctx context.Context, bidID uuid.UUID, caller auth.User) (*entity.BidOutputModel, error)
	RejectBid(ctx context.Context, bidID uuid.UUID, caller auth.User) (*entity.BidOutputModel, error)
	WithdrawBid(ctx context.Context, bidID uuid.UUID, caller auth.User) (*entity.BidOutputModel, error)
	ListBidsForTask(ctx context.Context, taskID uuid.UUID, caller auth.User) ([]entity.BidOutputModel, error)
	GetMyBids(ctx context.Context, caller auth.User) ([]entity.BidOutputModel, error)
}

type Search interface {
	Nearby(ctx context.Context, q *entity.GeoQuery) ([]entity.TaskOutputModel, error)
	Search(ctx context.Context, filter *entity.TaskFilter, sort *entity.SortInput, pg *entity.PaginationInput) ([]entity.TaskOutputModel, error)
}

// StatusCache is the read cache for task statuses. Implementations may
// serve slightly stale values.
type StatusCache interface {
	Get(ctx context.Context, taskID string) (common.TaskStatus, bool, error)
	Set(ctx context.Context, taskID string, status common.TaskStatus) error
}

// Limits carries the configured operational caps of the core.
type Limits struct {
	MaxBidsPerTask  int
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	MaxPageSize     int
}

type Services struct {
	Diagnostics Diagnostics
	Task        Task
	Bid         Bid
	Search      Search
}

type Deps struct {
	Repos   *repo.Repositories
	Emitter events.Emitter
	Cache   StatusCache
	Logger  *zap.Logger
	Limits  Limits
}

func NewServices(deps Deps) *Services {
	if deps.Emitter == nil {
		deps.Emitter = events.NopEmitter{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Services{
		Diagnostics: NewDiagnosticsService(deps.Repos),
		Task:        NewTaskService(deps),
		Bid:         NewBidService(deps),
		Search:      NewSearchService(deps),
	}
}
