package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/GFRDINDIA/Helper/internal/auth"
	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/events"
	"github.com/GFRDINDIA/Helper/internal/repo"
	"github.com/GFRDINDIA/Helper/internal/service"
)

func openBiddingTask(t *testing.T, env *testEnv, customer auth.User) uuid.UUID {
	t.Helper()

	task := createTask(t, env, customer, common.Bidding)
	taskID := mustUUID(t, task.ID)
	mustTransition(t, env, taskID, common.Open, customer)

	return taskID
}

func submitBid(t *testing.T, env *testEnv, taskID uuid.UUID, worker auth.User, price float64) *entity.BidOutputModel {
	t.Helper()

	bid, err := env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID:        taskID,
		ProposedPrice: price,
		Message:       "Can do it tomorrow",
	}, worker)
	if err != nil {
		t.Fatalf("submit bid: %v", err)
	}

	return bid
}

func TestSubmitBid_StartsPending(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	taskID := openBiddingTask(t, env, customer)
	bid := submitBid(t, env, taskID, worker, 120)

	if bid.Status != string(common.BidPending) {
		t.Errorf("bid status = %s, want PENDING", bid.Status)
	}
	if bid.WorkerID != worker.ID.String() {
		t.Errorf("worker id = %s, want caller id", bid.WorkerID)
	}
	if got := env.emitter.byType(events.BidSubmitted); len(got) != 1 {
		t.Errorf("bid.submitted events = %d, want 1", len(got))
	}
}

func TestSubmitBid_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	// A task that was never published takes no bids.
	posted := createTask(t, env, customer, common.Bidding)
	_, err := env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: mustUUID(t, posted.ID), ProposedPrice: 100,
	}, worker)
	if !errors.Is(err, service.ErrTaskNotOpen) {
		t.Errorf("bid on posted task: err = %v, want ErrTaskNotOpen", err)
	}

	// Fixed-price tasks are claimed, not bid on.
	fixed := createTask(t, env, customer, common.Fixed)
	fixedID := mustUUID(t, fixed.ID)
	mustTransition(t, env, fixedID, common.Open, customer)
	_, err = env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: fixedID, ProposedPrice: 100,
	}, worker)
	if !errors.Is(err, service.ErrFixedPricingTask) {
		t.Errorf("bid on fixed task: err = %v, want ErrFixedPricingTask", err)
	}

	// The customer capability alone can't bid.
	taskID := openBiddingTask(t, env, customer)
	_, err = env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: taskID, ProposedPrice: 100,
	}, customer)
	if !errors.Is(err, service.ErrWorkerRoleRequired) {
		t.Errorf("bid by customer: err = %v, want ErrWorkerRoleRequired", err)
	}

	// An owner holding both capabilities still can't bid on their own task.
	owner := auth.NewUser(customer.ID, auth.CapCustomer, auth.CapWorker)
	_, err = env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: taskID, ProposedPrice: 100,
	}, owner)
	if !errors.Is(err, service.ErrOwnTaskBid) {
		t.Errorf("bid on own task: err = %v, want ErrOwnTaskBid", err)
	}
}

func TestSubmitBid_DuplicatePerWorker(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	taskID := openBiddingTask(t, env, customer)
	submitBid(t, env, taskID, worker, 120)

	_, err := env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: taskID, ProposedPrice: 110,
	}, worker)
	if !errors.Is(err, service.ErrDuplicateBid) {
		t.Fatalf("second bid: err = %v, want ErrDuplicateBid", err)
	}

	count, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, customer)
	if err != nil {
		t.Fatal(err)
	}
	if len(count) != 1 {
		t.Errorf("bids on task = %d, want exactly 1", len(count))
	}
}

func TestSubmitBid_CapReached(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()

	taskID := openBiddingTask(t, env, customer)

	// The test cap is 3 bids per task.
	for i := 0; i < 3; i++ {
		submitBid(t, env, taskID, newWorker(), float64(100+i))
	}

	_, err := env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: taskID, ProposedPrice: 99,
	}, newWorker())
	if !errors.Is(err, service.ErrBidLimitReached) {
		t.Errorf("bid over cap: err = %v, want ErrBidLimitReached", err)
	}
}

func TestAcceptBid_RejectsSiblingsAtomically(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	winner := newWorker()
	loser := newWorker()
	withdrawn := newWorker()

	taskID := openBiddingTask(t, env, customer)
	winningBid := submitBid(t, env, taskID, winner, 120)
	submitBid(t, env, taskID, loser, 110)
	withdrawnBid := submitBid(t, env, taskID, withdrawn, 130)

	if _, err := env.services.Bid.WithdrawBid(context.Background(), mustUUID(t, withdrawnBid.ID), withdrawn); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	accepted, err := env.services.Bid.AcceptBid(context.Background(), mustUUID(t, winningBid.ID), customer)
	if err != nil {
		t.Fatalf("accept bid: %v", err)
	}
	if accepted.Status != string(common.BidAccepted) {
		t.Errorf("winning bid status = %s, want ACCEPTED", accepted.Status)
	}

	task, err := env.services.Task.GetTaskByID(context.Background(), taskID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != string(common.Accepted) {
		t.Errorf("task status = %s, want ACCEPTED", task.Status)
	}
	if task.AssignedWorkerID == nil || *task.AssignedWorkerID != winner.ID.String() {
		t.Errorf("assigned worker = %v, want the winning bidder", task.AssignedWorkerID)
	}
	if task.FinalPrice == nil || *task.FinalPrice != 120 {
		t.Errorf("final price = %v, want the winning proposed price", task.FinalPrice)
	}

	bids, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, customer)
	if err != nil {
		t.Fatal(err)
	}

	statuses := make(map[string]int)
	for _, bid := range bids {
		statuses[bid.Status]++
	}
	if statuses[string(common.BidAccepted)] != 1 {
		t.Errorf("accepted bids = %d, want exactly 1", statuses[string(common.BidAccepted)])
	}
	if statuses[string(common.BidRejected)] != 1 {
		t.Errorf("rejected bids = %d, want 1", statuses[string(common.BidRejected)])
	}
	// Withdrawal is a worker decision; the sweep leaves it alone.
	if statuses[string(common.BidWithdrawn)] != 1 {
		t.Errorf("withdrawn bids = %d, want 1", statuses[string(common.BidWithdrawn)])
	}

	if got := env.emitter.byType(events.BidAccepted); len(got) != 1 {
		t.Errorf("bid.accepted events = %d, want 1", len(got))
	}
}

func TestAcceptBid_Gates(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	taskID := openBiddingTask(t, env, customer)
	bid := submitBid(t, env, taskID, worker, 120)
	bidID := mustUUID(t, bid.ID)

	// Only the task owner (or admin) decides.
	if _, err := env.services.Bid.AcceptBid(context.Background(), bidID, worker); !errors.Is(err, service.ErrBidAccessDenied) {
		t.Errorf("accept by bidder: err = %v, want ErrBidAccessDenied", err)
	}

	// Once the task moved on, the accept loses.
	env.store.tasks[taskID].Status = common.Cancelled
	if _, err := env.services.Bid.AcceptBid(context.Background(), bidID, customer); !errors.Is(err, service.ErrTaskNotOpen) {
		t.Errorf("accept on cancelled task: err = %v, want ErrTaskNotOpen", err)
	}
}

func TestSubmitBid_ConcurrentDuplicatesSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	taskID := openBiddingTask(t, env, customer)

	const attempts = 16
	start := make(chan struct{})
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, err := env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
				TaskID:        taskID,
				ProposedPrice: 100,
			}, worker)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, service.ErrDuplicateBid):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("successful submissions = %d, want exactly 1", successes)
	}
	if duplicates != attempts-1 {
		t.Errorf("duplicate failures = %d, want %d", duplicates, attempts-1)
	}

	bids, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, customer)
	if err != nil {
		t.Fatal(err)
	}
	if len(bids) != 1 || bids[0].Status != string(common.BidPending) {
		t.Errorf("stored bids = %d, want a single PENDING bid", len(bids))
	}
}

func TestAcceptBid_ConcurrentAcceptsSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	workers := []auth.User{newWorker(), newWorker()}

	taskID := openBiddingTask(t, env, customer)
	bidIDs := []uuid.UUID{
		mustUUID(t, submitBid(t, env, taskID, workers[0], 100).ID),
		mustUUID(t, submitBid(t, env, taskID, workers[1], 90).ID),
	}

	start := make(chan struct{})
	results := make([]error, len(bidIDs))

	var wg sync.WaitGroup
	for i := range bidIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			_, err := env.services.Bid.AcceptBid(context.Background(), bidIDs[i], customer)
			results[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range results {
		if err == nil {
			if winner != -1 {
				t.Fatal("both concurrent accepts succeeded, want exactly one winner")
			}
			winner = i
			continue
		}
		if !errors.Is(err, service.ErrTaskNotOpen) && !errors.Is(err, service.ErrBidNotPending) {
			t.Errorf("loser error = %v, want ErrTaskNotOpen or ErrBidNotPending", err)
		}
	}
	if winner == -1 {
		t.Fatal("no concurrent accept succeeded, want exactly one winner")
	}

	task, err := env.services.Task.GetTaskByID(context.Background(), taskID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != string(common.Accepted) {
		t.Errorf("task status = %s, want ACCEPTED", task.Status)
	}
	if task.AssignedWorkerID == nil || *task.AssignedWorkerID != workers[winner].ID.String() {
		t.Errorf("assigned worker = %v, want the winning accept's bidder", task.AssignedWorkerID)
	}

	bids, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, customer)
	if err != nil {
		t.Fatal(err)
	}
	statuses := make(map[string]int)
	for _, bid := range bids {
		statuses[bid.Status]++
	}
	if statuses[string(common.BidAccepted)] != 1 || statuses[string(common.BidRejected)] != 1 {
		t.Errorf("bid statuses = %v, want one ACCEPTED and one REJECTED", statuses)
	}
}

// withdrawnMidAcceptBidRepo lands a withdrawal between the service's
// precondition read and the store commit, forcing the accept's bid
// compare-and-swap to lose while the task is still OPEN.
type withdrawnMidAcceptBidRepo struct {
	*memBidRepo
}

func (r *withdrawnMidAcceptBidRepo) AcceptBid(ctx context.Context, bidID, taskID, workerID uuid.UUID, price float64, respondedAt time.Time) error {
	r.store.mu.Lock()
	r.store.bids[bidID].Status = common.BidWithdrawn
	r.store.mu.Unlock()

	return r.memBidRepo.AcceptBid(ctx, bidID, taskID, workerID, price, respondedAt)
}

func TestAcceptBid_BidWithdrawnDuringAccept(t *testing.T) {
	store := newMemStore()
	services := service.NewServices(service.Deps{
		Repos: &repo.Repositories{
			Diagnostics: &memDiagnosticsRepo{},
			Task:        &memTaskRepo{store: store},
			Bid:         &withdrawnMidAcceptBidRepo{&memBidRepo{store: store}},
		},
		Logger: zaptest.NewLogger(t),
		Limits: service.Limits{MaxBidsPerTask: 3, DefaultRadiusKm: 10, MaxRadiusKm: 50, MaxPageSize: 50},
	})
	env := &testEnv{services: services, store: store, emitter: &recordingEmitter{}, cache: newMapCache()}

	customer := newCustomer()
	taskID := openBiddingTask(t, env, customer)
	bid := submitBid(t, env, taskID, newWorker(), 120)

	// The bid, not the task, moved on; the failure names the bid.
	_, err := services.Bid.AcceptBid(context.Background(), mustUUID(t, bid.ID), customer)
	if !errors.Is(err, service.ErrBidNotPending) {
		t.Fatalf("err = %v, want ErrBidNotPending", err)
	}

	task, err := services.Task.GetTaskByID(context.Background(), taskID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Status != string(common.Open) {
		t.Errorf("task status = %s, want OPEN untouched", task.Status)
	}
}

func TestAcceptBid_OnlyOneWinnerUnderContention(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()

	taskID := openBiddingTask(t, env, customer)
	first := submitBid(t, env, taskID, newWorker(), 100)
	second := submitBid(t, env, taskID, newWorker(), 90)

	if _, err := env.services.Bid.AcceptBid(context.Background(), mustUUID(t, first.ID), customer); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	// The second accept arrives after the race is decided.
	_, err := env.services.Bid.AcceptBid(context.Background(), mustUUID(t, second.ID), customer)
	if err == nil {
		t.Fatal("second accept succeeded, want failure")
	}
	if !errors.Is(err, service.ErrTaskNotOpen) && !errors.Is(err, service.ErrBidNotPending) {
		t.Errorf("second accept: err = %v, want ErrTaskNotOpen or ErrBidNotPending", err)
	}
}

func TestRejectBid(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	taskID := openBiddingTask(t, env, customer)
	bid := submitBid(t, env, taskID, worker, 120)
	bidID := mustUUID(t, bid.ID)

	if _, err := env.services.Bid.RejectBid(context.Background(), bidID, worker); !errors.Is(err, service.ErrBidAccessDenied) {
		t.Errorf("reject by bidder: err = %v, want ErrBidAccessDenied", err)
	}

	rejected, err := env.services.Bid.RejectBid(context.Background(), bidID, customer)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != string(common.BidRejected) {
		t.Errorf("status = %s, want REJECTED", rejected.Status)
	}
	if rejected.RespondedAt == nil {
		t.Error("rejected bid has no response timestamp")
	}

	// A decided bid can't be decided again.
	if _, err := env.services.Bid.RejectBid(context.Background(), bidID, customer); !errors.Is(err, service.ErrBidNotPending) {
		t.Errorf("double reject: err = %v, want ErrBidNotPending", err)
	}
}

func TestWithdrawBid_BidderOnly(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	worker := newWorker()

	taskID := openBiddingTask(t, env, customer)
	bid := submitBid(t, env, taskID, worker, 120)
	bidID := mustUUID(t, bid.ID)

	// Not even the task owner withdraws someone else's bid.
	if _, err := env.services.Bid.WithdrawBid(context.Background(), bidID, customer); !errors.Is(err, service.ErrBidAccessDenied) {
		t.Errorf("withdraw by owner: err = %v, want ErrBidAccessDenied", err)
	}

	withdrawn, err := env.services.Bid.WithdrawBid(context.Background(), bidID, worker)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Status != string(common.BidWithdrawn) {
		t.Errorf("status = %s, want WITHDRAWN", withdrawn.Status)
	}
}

func TestListBidsForTask_Privacy(t *testing.T) {
	env := newTestEnv(t)
	customer := newCustomer()
	first := newWorker()
	second := newWorker()

	taskID := openBiddingTask(t, env, customer)
	submitBid(t, env, taskID, first, 100)
	submitBid(t, env, taskID, second, 110)

	owner, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, customer)
	if err != nil {
		t.Fatal(err)
	}
	if len(owner) != 2 {
		t.Errorf("owner sees %d bids, want 2", len(owner))
	}

	admin, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, newAdmin())
	if err != nil {
		t.Fatal(err)
	}
	if len(admin) != 2 {
		t.Errorf("admin sees %d bids, want 2", len(admin))
	}

	own, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, first)
	if err != nil {
		t.Fatal(err)
	}
	if len(own) != 1 || own[0].WorkerID != first.ID.String() {
		t.Errorf("bidder sees %d bids, want only their own", len(own))
	}

	stranger, err := env.services.Bid.ListBidsForTask(context.Background(), taskID, newWorker())
	if err != nil {
		t.Fatal(err)
	}
	if len(stranger) != 0 {
		t.Errorf("stranger sees %d bids, want none", len(stranger))
	}
}

func TestGetMyBids(t *testing.T) {
	env := newTestEnv(t)
	worker := newWorker()

	for i := 0; i < 2; i++ {
		customer := newCustomer()
		taskID := openBiddingTask(t, env, customer)
		submitBid(t, env, taskID, worker, float64(100+i))
	}

	bids, err := env.services.Bid.GetMyBids(context.Background(), worker)
	if err != nil {
		t.Fatal(err)
	}
	if len(bids) != 2 {
		t.Fatalf("worker bids = %d, want 2", len(bids))
	}
	for i, bid := range bids {
		if bid.WorkerID != worker.ID.String() {
			t.Errorf("bid %d worker = %s, want %s", i, bid.WorkerID, worker.ID)
		}
	}

	if _, err := env.services.Bid.GetMyBids(context.Background(), newCustomer()); !errors.Is(err, service.ErrWorkerRoleRequired) {
		t.Errorf("listing for customer: err = %v, want ErrWorkerRoleRequired", err)
	}
}

func TestBidOperations_UnknownIDs(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		call func() error
	}{
		{"accept", func() error {
			_, err := env.services.Bid.AcceptBid(context.Background(), uuid.New(), newCustomer())
			return err
		}},
		{"reject", func() error {
			_, err := env.services.Bid.RejectBid(context.Background(), uuid.New(), newCustomer())
			return err
		}},
		{"withdraw", func() error {
			_, err := env.services.Bid.WithdrawBid(context.Background(), uuid.New(), newWorker())
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, service.ErrBidNotFound) {
				t.Errorf("err = %v, want ErrBidNotFound", err)
			}
		})
	}

	_, err := env.services.Bid.SubmitBid(context.Background(), &entity.CreateBidInput{
		TaskID: uuid.New(), ProposedPrice: 100,
	}, newWorker())
	if !errors.Is(err, service.ErrTaskNotFound) {
		t.Errorf("bid on unknown task: err = %v, want ErrTaskNotFound", err)
	}
}
