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

type BidService struct {
	bidRepo        repo.Bid
	taskRepo       repo.Task
	emitter        events.Emitter
	cache          StatusCache
	logger         *zap.Logger
	maxBidsPerTask int
}

func NewBidService(deps Deps) *BidService {
	return &BidService{
		bidRepo:        deps.Repos.Bid,
		taskRepo:       deps.Repos.Task,
		emitter:        deps.Emitter,
		cache:          deps.Cache,
		logger:         deps.Logger,
		maxBidsPerTask: deps.Limits.MaxBidsPerTask,
	}
}

func (s *BidService) SubmitBid(ctx context.Context, input *entity.CreateBidInput, caller auth.User) (*entity.BidOutputModel, error) {
	if !auth.CanSubmitBid(caller) {
		return nil, ErrWorkerRoleRequired
	}

	task, err := s.getTask(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	if task.Status != common.Open {
		return nil, ErrTaskNotOpen
	}
	if task.PricingModel != common.Bidding {
		return nil, ErrFixedPricingTask
	}
	if caller.ID == task.CustomerID {
		return nil, ErrOwnTaskBid
	}

	input.WorkerID = caller.ID

	// The store is the authority on both races: the unique
	// (task_id, worker_id) index on duplicates, the guarded insert on
	// the bid cap. Under concurrent submissions exactly one insert wins.
	id, err := s.bidRepo.CreateBid(ctx, input, s.maxBidsPerTask)
	if err != nil {
		switch {
		case errors.Is(err, repoerrors.ErrDuplicate):
			return nil, ErrDuplicateBid
		case errors.Is(err, repoerrors.ErrLimitExceeded):
			return nil, ErrBidLimitReached
		}

		return nil, err
	}

	bid, err := s.bidRepo.GetBidByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("bid submitted",
		zap.String("bid_id", id.String()),
		zap.String("task_id", input.TaskID.String()),
		zap.String("worker_id", caller.ID.String()),
		zap.Float64("proposed_price", input.ProposedPrice))

	s.emit(ctx, events.Event{
		Type:   events.BidSubmitted,
		TaskID: input.TaskID.String(),
		Payload: map[string]interface{}{
			"bidId":    id.String(),
			"workerId": caller.ID.String(),
		},
	})

	return mapBid(bid), nil
}

// AcceptBid runs the accept-and-reject-siblings protocol. The three
// effects (bid accepted, task assigned and priced, pending siblings
// rejected) commit as one transaction; a concurrent accept on the same
// task loses the compare-and-swap and fails with ErrTaskNotOpen.
func (s *BidService) AcceptBid(ctx context.Context, bidID uuid.UUID, caller auth.User) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	task, err := s.getTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}

	if !auth.CanDecideBid(caller, task.CustomerID) {
		return nil, ErrBidAccessDenied
	}
	if task.Status != common.Open {
		return nil, ErrTaskNotOpen
	}
	if bid.Status != common.BidPending {
		return nil, ErrBidNotPending
	}

	err = s.bidRepo.AcceptBid(ctx, bidID, bid.TaskID, bid.WorkerID, bid.ProposedPrice, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repoerrors.ErrConflict) {
			// Either compare-and-swap may have lost. A task still OPEN
			// means the bid moved (withdrawn under us); otherwise a
			// concurrent accept claimed the task first.
			if fresh, freshErr := s.taskRepo.GetTaskByID(ctx, bid.TaskID); freshErr == nil && fresh.Status == common.Open {
				return nil, ErrBidNotPending
			}

			return nil, ErrTaskNotOpen
		}

		return nil, err
	}

	s.logger.Info("bid accepted",
		zap.String("bid_id", bidID.String()),
		zap.String("task_id", bid.TaskID.String()),
		zap.String("worker_id", bid.WorkerID.String()),
		zap.Float64("final_price", bid.ProposedPrice))

	if s.cache != nil {
		if err := s.cache.Set(ctx, bid.TaskID.String(), common.Accepted); err != nil {
			s.logger.Warn("status cache update failed", zap.String("task_id", bid.TaskID.String()), zap.Error(err))
		}
	}

	s.emit(ctx, events.Event{
		Type:   events.BidAccepted,
		TaskID: bid.TaskID.String(),
		Payload: map[string]interface{}{
			"bidId":      bidID.String(),
			"workerId":   bid.WorkerID.String(),
			"finalPrice": bid.ProposedPrice,
		},
	})

	return s.freshBid(ctx, bidID)
}

func (s *BidService) RejectBid(ctx context.Context, bidID uuid.UUID, caller auth.User) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	task, err := s.getTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}

	if !auth.CanDecideBid(caller, task.CustomerID) {
		return nil, ErrBidAccessDenied
	}
	if bid.Status != common.BidPending {
		return nil, ErrBidNotPending
	}

	err = s.bidRepo.UpdateBidStatus(ctx, bidID, common.BidPending, common.BidRejected, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repoerrors.ErrConflict) {
			return nil, ErrBidNotPending
		}

		return nil, err
	}

	s.emit(ctx, events.Event{
		Type:   events.BidRejected,
		TaskID: bid.TaskID.String(),
		Payload: map[string]interface{}{
			"bidId":    bidID.String(),
			"workerId": bid.WorkerID.String(),
		},
	})

	return s.freshBid(ctx, bidID)
}

func (s *BidService) WithdrawBid(ctx context.Context, bidID uuid.UUID, caller auth.User) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}

	if !auth.CanWithdrawBid(caller, bid.WorkerID) {
		return nil, ErrBidAccessDenied
	}
	if bid.Status != common.BidPending {
		return nil, ErrBidNotPending
	}

	err = s.bidRepo.UpdateBidStatus(ctx, bidID, common.BidPending, common.BidWithdrawn, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repoerrors.ErrConflict) {
			return nil, ErrBidNotPending
		}

		return nil, err
	}

	s.emit(ctx, events.Event{
		Type:   events.BidWithdrawn,
		TaskID: bid.TaskID.String(),
		Payload: map[string]interface{}{
			"bidId":    bidID.String(),
			"workerId": bid.WorkerID.String(),
		},
	})

	return s.freshBid(ctx, bidID)
}

// ListBidsForTask gives the owner and admins the full list; every other
// caller sees only their own bid. An empty list is a result, not a
// failure.
func (s *BidService) ListBidsForTask(ctx context.Context, taskID uuid.UUID, caller auth.User) ([]entity.BidOutputModel, error) {
	task, err := s.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if auth.CanSeeAllBids(caller, task.CustomerID) {
		bids, err := s.bidRepo.GetTaskBids(ctx, taskID)
		if err != nil {
			return nil, err
		}

		return mapBids(bids), nil
	}

	own, err := s.bidRepo.GetBidForWorker(ctx, taskID, caller.ID)
	if err != nil {
		if errors.Is(err, repoerrors.ErrNotFound) {
			return make([]entity.BidOutputModel, 0), nil
		}

		return nil, err
	}

	return []entity.BidOutputModel{*mapBid(own)}, nil
}

func (s *BidService) GetMyBids(ctx context.Context, caller auth.User) ([]entity.BidOutputModel, error) {
	if !auth.CanSubmitBid(caller) {
		return nil, ErrWorkerRoleRequired
	}

	bids, err := s.bidRepo.GetWorkerBids(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	return mapBids(bids), nil
}

func (s *BidService) getTask(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repoerrors.ErrNotFound) {
			return nil, ErrTaskNotFound
		}

		return nil, err
	}

	return task, nil
}

func (s *BidService) getBid(ctx context.Context, bidID uuid.UUID) (*entity.Bid, error) {
	bid, err := s.bidRepo.GetBidByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, repoerrors.ErrNotFound) {
			return nil, ErrBidNotFound
		}

		return nil, err
	}

	return bid, nil
}

func (s *BidService) freshBid(ctx context.Context, bidID uuid.UUID) (*entity.BidOutputModel, error) {
	bid, err := s.bidRepo.GetBidByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	return mapBid(bid), nil
}

func (s *BidService) emit(ctx context.Context, event events.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("event emission failed", zap.String("type", event.Type), zap.Error(err))
	}
}
