package service

import "errors"

var (
	// not found
	ErrTaskNotFound = errors.New("task not found")
	ErrBidNotFound  = errors.New("bid not found")

	// invalid state
	ErrUnknownStatus            = errors.New("unknown task status")
	ErrInvalidTransition        = errors.New("transition is not an edge of the task lifecycle")
	ErrTaskNotEditable          = errors.New("task can only be modified while POSTED or OPEN")
	ErrTaskNotCancellable       = errors.New("task can no longer be cancelled")
	ErrTaskNotOpen              = errors.New("task is not open")
	ErrBidNotPending            = errors.New("bid is not pending")
	ErrFixedPricingTask         = errors.New("task uses fixed pricing, not bidding")
	ErrDirectClaimOnBiddingTask = errors.New("bidding tasks are assigned by accepting a bid, not by direct claim")

	// unauthorized
	ErrCustomerRoleRequired = errors.New("operation requires the customer capability")
	ErrWorkerRoleRequired   = errors.New("operation requires the worker capability")
	ErrAdminRoleRequired    = errors.New("operation requires the admin capability")
	ErrTaskAccessDenied     = errors.New("caller has no sufficient rights on the task")
	ErrBidAccessDenied      = errors.New("caller has no sufficient rights on the bid")
	ErrOwnTaskBid           = errors.New("task owner can't bid on their own task")

	// duplicate
	ErrDuplicateBid = errors.New("worker already has a bid on this task")

	// limit exceeded
	ErrBidLimitReached = errors.New("bid cap reached for this task")
)
