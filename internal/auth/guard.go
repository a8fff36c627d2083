// Package auth holds the caller identity model and the pure
// authorization predicates evaluated at the top of every operation.
// Identity is issued by the gateway; nothing here touches credentials.
package auth

import (
	"github.com/google/uuid"
)

type Capability string

const (
	CapCustomer Capability = "CUSTOMER"
	CapWorker   Capability = "WORKER"
	CapAdmin    Capability = "ADMIN"
)

// User is the authenticated caller: an opaque id plus its capability set.
type User struct {
	ID           uuid.UUID
	Capabilities map[Capability]struct{}
}

func NewUser(id uuid.UUID, caps ...Capability) User {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}

	return User{ID: id, Capabilities: set}
}

func (u User) Has(c Capability) bool {
	_, ok := u.Capabilities[c]
	return ok
}

func (u User) IsCustomer() bool { return u.Has(CapCustomer) }
func (u User) IsWorker() bool   { return u.Has(CapWorker) }
func (u User) IsAdmin() bool    { return u.Has(CapAdmin) }

func (u User) owns(ownerID uuid.UUID) bool {
	return u.ID == ownerID
}

func (u User) isAssigned(workerID *uuid.UUID) bool {
	return workerID != nil && u.ID == *workerID
}

// CanCreateTask: posting a task takes the customer capability.
func CanCreateTask(u User) bool {
	return u.IsCustomer()
}

// CanModifyTask: attribute updates belong to the owner, or an admin.
func CanModifyTask(u User, ownerID uuid.UUID) bool {
	return u.IsAdmin() || u.owns(ownerID)
}

// CanOpenTask: publishing POSTED -> OPEN belongs to the owner, or an admin.
func CanOpenTask(u User, ownerID uuid.UUID) bool {
	return u.IsAdmin() || u.owns(ownerID)
}

// CanClaimTask: the direct OPEN -> ACCEPTED claim is a worker move.
func CanClaimTask(u User) bool {
	return u.IsWorker()
}

// CanStartTask: only the assigned worker moves the task to IN_PROGRESS.
func CanStartTask(u User, assignedWorkerID *uuid.UUID) bool {
	return u.isAssigned(assignedWorkerID)
}

// CanCompleteTask: only the assigned worker marks the work done.
func CanCompleteTask(u User, assignedWorkerID *uuid.UUID) bool {
	return u.isAssigned(assignedWorkerID)
}

// CanCancelTask: owner, assigned worker, or admin.
func CanCancelTask(u User, ownerID uuid.UUID, assignedWorkerID *uuid.UUID) bool {
	return u.IsAdmin() || u.owns(ownerID) || u.isAssigned(assignedWorkerID)
}

// CanDisputeTask: either party to the work, or an admin.
func CanDisputeTask(u User, ownerID uuid.UUID, assignedWorkerID *uuid.UUID) bool {
	return u.IsAdmin() || u.owns(ownerID) || u.isAssigned(assignedWorkerID)
}

// CanSettleTask: PAYMENT_DONE and CLOSED are driven by the payment and
// rating collaborators through an admin identity.
func CanSettleTask(u User) bool {
	return u.IsAdmin()
}

// CanForceTransition: the audited escape hatch is admin-only.
func CanForceTransition(u User) bool {
	return u.IsAdmin()
}

// CanSubmitBid: bidding takes the worker capability.
func CanSubmitBid(u User) bool {
	return u.IsWorker()
}

// CanDecideBid: accepting or rejecting a bid belongs to the task owner,
// or an admin.
func CanDecideBid(u User, taskOwnerID uuid.UUID) bool {
	return u.IsAdmin() || u.owns(taskOwnerID)
}

// CanWithdrawBid: only the bidder withdraws a bid.
func CanWithdrawBid(u User, bidWorkerID uuid.UUID) bool {
	return u.ID == bidWorkerID
}

// CanSeeAllBids: the full bid list is visible to the task owner and
// admins; everyone else sees only their own bid.
func CanSeeAllBids(u User, taskOwnerID uuid.UUID) bool {
	return u.IsAdmin() || u.owns(taskOwnerID)
}

// CanViewStats: platform counters are admin-only.
func CanViewStats(u User) bool {
	return u.IsAdmin()
}
