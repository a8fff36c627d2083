package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GFRDINDIA/Helper/internal/auth"
	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/events"
	"github.com/GFRDINDIA/Helper/internal/repo"
	"github.com/GFRDINDIA/Helper/internal/repo/repoerrors"
)

type TaskService struct {
	taskRepo repo.Task
	bidRepo  repo.Bid
	emitter  events.Emitter
	cache    StatusCache
	logger   *zap.Logger
}

func NewTaskService(deps Deps) *TaskService {
	return &TaskService{
		taskRepo: deps.Repos.Task,
		bidRepo:  deps.Repos.Bid,
		emitter:  deps.Emitter,
		cache:    deps.Cache,
		logger:   deps.Logger,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, input *entity.CreateTaskInput, caller auth.User) (*entity.TaskOutputModel, error) {
	if !auth.CanCreateTask(caller) {
		return nil, ErrCustomerRoleRequired
	}

	input.CustomerID = caller.ID
	id, err := s.taskRepo.CreateTask(ctx, input)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		zap.String("task_id", id.String()),
		zap.String("customer_id", caller.ID.String()),
		zap.String("domain", string(task.Domain)))

	s.emit(ctx, events.Event{
		Type:   events.TaskCreated,
		TaskID: id.String(),
		Payload: map[string]interface{}{
			"customerId": task.CustomerID.String(),
			"domain":     string(task.Domain),
			"status":     string(task.Status),
		},
	})

	return mapTask(task, 0), nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, taskID uuid.UUID) (*entity.TaskOutputModel, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	bidCount, err := s.bidRepo.CountTaskBids(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return mapTask(task, int(bidCount)), nil
}

// GetTaskStatus reads through the status cache; a stale answer during
// an in-flight transition is acceptable.
func (s *TaskService) GetTaskStatus(ctx context.Context, taskID uuid.UUID) (common.TaskStatus, error) {
	if s.cache != nil {
		if status, ok, err := s.cache.Get(ctx, taskID.String()); err == nil && ok {
			return status, nil
		}
	}

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return "", err
	}

	s.cacheStatus(ctx, taskID, task.Status)

	return task.Status, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID uuid.UUID, patch *entity.UpdateTaskInput, caller auth.User) (*entity.TaskOutputModel, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !auth.CanModifyTask(caller, task.CustomerID) {
		return nil, ErrTaskAccessDenied
	}
	if !task.Status.IsEditable() {
		return nil, ErrTaskNotEditable
	}

	if err = s.taskRepo.UpdateTask(ctx, taskID, patch); err != nil {
		if errors.Is(err, repoerrors.ErrConflict) {
			return nil, ErrTaskNotEditable
		}

		return nil, err
	}

	return s.GetTaskByID(ctx, taskID)
}

// Transition moves the task along one edge of the lifecycle table,
// applying the per-status side effects atomically with the status
// change. The write succeeds only if the status is unchanged at commit
// time, so concurrent callers race to a single winner.
func (s *TaskService) Transition(ctx context.Context, taskID uuid.UUID, target common.TaskStatus, caller auth.User, reason string) (*entity.TaskOutputModel, error) {
	if !target.Valid() {
		return nil, ErrUnknownStatus
	}

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !common.CanTransition(task.Status, target) {
		if target == common.Cancelled {
			return nil, ErrTaskNotCancellable
		}

		return nil, ErrInvalidTransition
	}

	patch, err := s.transitionPatch(task, target, caller, reason)
	if err != nil {
		return nil, err
	}

	if err = s.taskRepo.UpdateTaskStatus(ctx, taskID, task.Status, target, patch); err != nil {
		if errors.Is(err, repoerrors.ErrConflict) {
			return nil, ErrInvalidTransition
		}

		return nil, err
	}

	s.logger.Info("task status changed",
		zap.String("task_id", taskID.String()),
		zap.String("from", string(task.Status)),
		zap.String("to", string(target)),
		zap.String("actor", caller.ID.String()))

	s.cacheStatus(ctx, taskID, target)
	s.emit(ctx, events.Event{
		Type:   events.TaskStatusChanged,
		TaskID: taskID.String(),
		Payload: map[string]interface{}{
			"from":  string(task.Status),
			"to":    string(target),
			"actor": caller.ID.String(),
		},
	})

	return s.GetTaskByID(ctx, taskID)
}

// transitionPatch gates the edge by caller role and builds its side
// effects. The direct OPEN -> ACCEPTED claim is legal for FIXED tasks
// only; BIDDING tasks reach ACCEPTED through the bid accept path.
func (s *TaskService) transitionPatch(task *entity.Task, target common.TaskStatus, caller auth.User, reason string) (*entity.TaskStatusPatch, error) {
	patch := &entity.TaskStatusPatch{}

	switch target {
	case common.Open:
		if !auth.CanOpenTask(caller, task.CustomerID) {
			return nil, ErrTaskAccessDenied
		}

	case common.Accepted:
		if task.PricingModel != common.Fixed {
			return nil, ErrDirectClaimOnBiddingTask
		}
		if !auth.CanClaimTask(caller) {
			return nil, ErrWorkerRoleRequired
		}
		worker := caller.ID
		price := task.Budget
		patch.AssignedWorkerID = &worker
		patch.FinalPrice = &price

	case common.InProgress:
		if !auth.CanStartTask(caller, task.AssignedWorkerID) {
			return nil, ErrTaskAccessDenied
		}

	case common.Completed:
		if !auth.CanCompleteTask(caller, task.AssignedWorkerID) {
			return nil, ErrTaskAccessDenied
		}
		now := time.Now().UTC()
		patch.CompletedAt = &now

	case common.Cancelled:
		if !auth.CanCancelTask(caller, task.CustomerID, task.AssignedWorkerID) {
			return nil, ErrTaskAccessDenied
		}
		cancelledBy := caller.ID
		patch.CancellationReason = &reason
		patch.CancelledBy = &cancelledBy

	case common.Disputed:
		if !auth.CanDisputeTask(caller, task.CustomerID, task.AssignedWorkerID) {
			return nil, ErrTaskAccessDenied
		}
		patch.DisputeReason = &reason

	case common.PaymentDone, common.Closed:
		if !auth.CanSettleTask(caller) {
			return nil, ErrAdminRoleRequired
		}
	}

	return patch, nil
}

// ForceTransition is the audited admin escape hatch: it skips the edge
// table but keeps the per-status side effects, and never synthesizes
// assignment fields.
func (s *TaskService) ForceTransition(ctx context.Context, taskID uuid.UUID, target common.TaskStatus, caller auth.User, reason string) (*entity.TaskOutputModel, error) {
	if !auth.CanForceTransition(caller) {
		return nil, ErrAdminRoleRequired
	}
	if !target.Valid() {
		return nil, ErrUnknownStatus
	}

	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	patch := &entity.TaskStatusPatch{}
	switch target {
	case common.Completed:
		now := time.Now().UTC()
		patch.CompletedAt = &now
	case common.Cancelled:
		cancelledBy := caller.ID
		patch.CancellationReason = &reason
		patch.CancelledBy = &cancelledBy
	case common.Disputed:
		patch.DisputeReason = &reason
	}

	if err = s.taskRepo.UpdateTaskStatus(ctx, taskID, task.Status, target, patch); err != nil {
		if errors.Is(err, repoerrors.ErrConflict) {
			return nil, ErrInvalidTransition
		}

		return nil, err
	}

	s.logger.Warn("task status forced",
		zap.String("task_id", taskID.String()),
		zap.String("from", string(task.Status)),
		zap.String("to", string(target)),
		zap.String("admin_id", caller.ID.String()),
		zap.String("reason", reason))

	s.cacheStatus(ctx, taskID, target)
	s.emit(ctx, events.Event{
		Type:   events.TaskForceTransition,
		TaskID: taskID.String(),
		Payload: map[string]interface{}{
			"from":  string(task.Status),
			"to":    string(target),
			"actor": caller.ID.String(),
		},
	})

	return s.GetTaskByID(ctx, taskID)
}

func (s *TaskService) Cancel(ctx context.Context, taskID uuid.UUID, reason string, caller auth.User) (*entity.TaskOutputModel, error) {
	return s.Transition(ctx, taskID, common.Cancelled, caller, reason)
}

func (s *TaskService) GetMyTasks(ctx context.Context, caller auth.User, pg *entity.PaginationInput) ([]entity.TaskOutputModel, error) {
	var tasks []entity.Task
	var err error

	switch {
	case caller.IsCustomer():
		tasks, err = s.taskRepo.GetTasksByCustomer(ctx, caller.ID, pg)
	case caller.IsWorker():
		tasks, err = s.taskRepo.GetTasksByWorker(ctx, caller.ID, pg)
	default:
		tasks, err = s.taskRepo.SearchTasks(ctx, &entity.TaskFilter{},
			&entity.SortInput{Field: "createdAt", Descending: true}, pg)
	}
	if err != nil {
		return nil, err
	}

	return mapTasks(tasks), nil
}

func (s *TaskService) GetStats(ctx context.Context, caller auth.User) (*entity.TaskStats, error) {
	if !auth.CanViewStats(caller) {
		return nil, ErrAdminRoleRequired
	}

	total, err := s.taskRepo.CountTasks(ctx)
	if err != nil {
		return nil, err
	}

	stats := &entity.TaskStats{
		TotalTasks:    total,
		TasksByStatus: make(map[common.TaskStatus]int64),
		TasksByDomain: make(map[common.TaskDomain]int64),
	}

	for _, status := range common.TaskStatuses {
		count, err := s.taskRepo.CountTasksByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		stats.TasksByStatus[status] = count
	}

	for _, domain := range common.TaskDomains {
		count, err := s.taskRepo.CountTasksByDomain(ctx, domain)
		if err != nil {
			return nil, err
		}
		stats.TasksByDomain[domain] = count
	}

	return stats, nil
}

func (s *TaskService) getTask(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repoerrors.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		return nil, err
	}

	return task, nil
}

func (s *TaskService) cacheStatus(ctx context.Context, taskID uuid.UUID, status common.TaskStatus) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, taskID.String(), status); err != nil {
		s.logger.Warn("status cache update failed", zap.String("task_id", taskID.String()), zap.Error(err))
	}
}

func (s *TaskService) emit(ctx context.Context, event events.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("event emission failed", zap.String("type", event.Type), zap.Error(err))
	}
}
