package common

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	Posted      TaskStatus = "POSTED"
	Open        TaskStatus = "OPEN"
	Accepted    TaskStatus = "ACCEPTED"
	InProgress  TaskStatus = "IN_PROGRESS"
	Completed   TaskStatus = "COMPLETED"
	PaymentDone TaskStatus = "PAYMENT_DONE"
	Closed      TaskStatus = "CLOSED"
	Cancelled   TaskStatus = "CANCELLED"
	Disputed    TaskStatus = "DISPUTED"
)

// TaskStatuses lists every lifecycle state.
var TaskStatuses = []TaskStatus{
	Posted, Open, Accepted, InProgress, Completed,
	PaymentDone, Closed, Cancelled, Disputed,
}

// taskTransitions is the edge table of the lifecycle state machine.
// CLOSED and CANCELLED have no outbound edges.
var taskTransitions = map[TaskStatus][]TaskStatus{
	Posted:      {Open, Cancelled},
	Open:        {Accepted, Cancelled},
	Accepted:    {InProgress, Cancelled},
	InProgress:  {Completed, Cancelled, Disputed},
	Completed:   {PaymentDone, Disputed},
	PaymentDone: {Closed},
	Disputed:    {InProgress, Cancelled, Closed},
}

// CanTransition reports whether from -> to is an edge of the table.
func CanTransition(from, to TaskStatus) bool {
	for _, allowed := range taskTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// AllowedTransitions returns the outbound edges of a status.
func AllowedTransitions(from TaskStatus) []TaskStatus {
	return taskTransitions[from]
}

// IsCancellable reports whether a task in this status may still be cancelled.
func (s TaskStatus) IsCancellable() bool {
	return s != Completed && s != PaymentDone && s != Closed && s != Cancelled
}

// IsEditable reports whether task attributes may still be modified.
func (s TaskStatus) IsEditable() bool {
	return s == Posted || s == Open
}

func (s TaskStatus) IsTerminal() bool {
	return s == Closed || s == Cancelled
}

func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}

	return false
}

// BidStatus is the lifecycle state of a bid. PENDING is the only
// non-terminal state.
type BidStatus string

const (
	BidPending   BidStatus = "PENDING"
	BidAccepted  BidStatus = "ACCEPTED"
	BidRejected  BidStatus = "REJECTED"
	BidWithdrawn BidStatus = "WITHDRAWN"
)

// PricingModel selects how a worker wins a task: claim at the posted
// budget, or compete through bids.
type PricingModel string

const (
	Fixed   PricingModel = "FIXED"
	Bidding PricingModel = "BIDDING"
)

// TaskDomain is the service category of a task.
type TaskDomain string

const (
	Plumbing        TaskDomain = "PLUMBING"
	Electrician     TaskDomain = "ELECTRICIAN"
	Carpentry       TaskDomain = "CARPENTRY"
	Cleaning        TaskDomain = "CLEANING"
	Painting        TaskDomain = "PAINTING"
	Delivery        TaskDomain = "DELIVERY"
	ApplianceRepair TaskDomain = "APPLIANCE_REPAIR"
	Other           TaskDomain = "OTHER"
)

// TaskDomains lists every service category.
var TaskDomains = []TaskDomain{
	Plumbing, Electrician, Carpentry, Cleaning,
	Painting, Delivery, ApplianceRepair, Other,
}
