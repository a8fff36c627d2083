package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/events"
	"github.com/GFRDINDIA/Helper/internal/geo"
	"github.com/GFRDINDIA/Helper/internal/repo"
	"github.com/GFRDINDIA/Helper/internal/repo/repoerrors"
	"github.com/GFRDINDIA/Helper/internal/service"
)

// memStore is an in-memory stand-in for the Postgres repositories. It
// mirrors their contract, including the compare-and-swap semantics and
// the unique (task, worker) bid constraint.
type memStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*entity.Task
	bids  map[uuid.UUID]*entity.Bid
}

func newMemStore() *memStore {
	return &memStore{
		tasks: make(map[uuid.UUID]*entity.Task),
		bids:  make(map[uuid.UUID]*entity.Bid),
	}
}

type memTaskRepo struct{ store *memStore }
type memBidRepo struct{ store *memStore }
type memDiagnosticsRepo struct{}

func (r *memDiagnosticsRepo) Ping(_ context.Context) error { return nil }

func (r *memTaskRepo) CreateTask(_ context.Context, input *entity.CreateTaskInput) (uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	task := &entity.Task{
		ID:           uuid.New(),
		CustomerID:   input.CustomerID,
		Title:        input.Title,
		Description:  input.Description,
		Domain:       input.Domain,
		PricingModel: input.PricingModel,
		Status:       common.Posted,
		Budget:       input.Budget,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Address:      input.Address,
		Images:       input.Images,
		ScheduledAt:  input.ScheduledAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.store.tasks[task.ID] = task

	return task.ID, nil
}

func (r *memTaskRepo) GetTaskByID(_ context.Context, id uuid.UUID) (*entity.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return nil, repoerrors.ErrNotFound
	}
	copied := *task

	return &copied, nil
}

func (r *memTaskRepo) UpdateTask(_ context.Context, id uuid.UUID, patch *entity.UpdateTaskInput) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return repoerrors.ErrNotFound
	}
	if task.Status != common.Posted && task.Status != common.Open {
		return repoerrors.ErrConflict
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Budget != nil {
		task.Budget = *patch.Budget
	}
	if patch.Latitude != nil {
		task.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		task.Longitude = *patch.Longitude
	}
	if patch.Address != nil {
		task.Address = *patch.Address
	}
	if patch.Images != nil {
		task.Images = patch.Images
	}
	if patch.ScheduledAt != nil {
		task.ScheduledAt = patch.ScheduledAt
	}
	task.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *memTaskRepo) UpdateTaskStatus(_ context.Context, id uuid.UUID, from, to common.TaskStatus, patch *entity.TaskStatusPatch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return repoerrors.ErrNotFound
	}
	if task.Status != from {
		return repoerrors.ErrConflict
	}

	task.Status = to
	if patch != nil {
		if patch.AssignedWorkerID != nil {
			task.AssignedWorkerID = patch.AssignedWorkerID
		}
		if patch.FinalPrice != nil {
			task.FinalPrice = patch.FinalPrice
		}
		if patch.CompletedAt != nil {
			task.CompletedAt = patch.CompletedAt
		}
		if patch.CancellationReason != nil {
			task.CancellationReason = patch.CancellationReason
		}
		if patch.CancelledBy != nil {
			task.CancelledBy = patch.CancelledBy
		}
		if patch.DisputeReason != nil {
			task.DisputeReason = patch.DisputeReason
		}
	}
	task.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *memTaskRepo) list(match func(*entity.Task) bool) []entity.Task {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tasks := make([]entity.Task, 0)
	for _, task := range r.store.tasks {
		if match(task) {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks
}

func paginate(tasks []entity.Task, pg *entity.PaginationInput) []entity.Task {
	if pg.Offset >= len(tasks) {
		return []entity.Task{}
	}
	tasks = tasks[pg.Offset:]
	if pg.Limit > 0 && pg.Limit < len(tasks) {
		tasks = tasks[:pg.Limit]
	}

	return tasks
}

func (r *memTaskRepo) GetTasksByCustomer(_ context.Context, customerID uuid.UUID, pg *entity.PaginationInput) ([]entity.Task, error) {
	return paginate(r.list(func(t *entity.Task) bool { return t.CustomerID == customerID }), pg), nil
}

func (r *memTaskRepo) GetTasksByWorker(_ context.Context, workerID uuid.UUID, pg *entity.PaginationInput) ([]entity.Task, error) {
	return paginate(r.list(func(t *entity.Task) bool {
		return t.AssignedWorkerID != nil && *t.AssignedWorkerID == workerID
	}), pg), nil
}

func (r *memTaskRepo) SearchTasks(_ context.Context, filter *entity.TaskFilter, _ *entity.SortInput, pg *entity.PaginationInput) ([]entity.Task, error) {
	return paginate(r.list(func(t *entity.Task) bool {
		if filter.Status != nil && t.Status != *filter.Status {
			return false
		}
		if filter.Domain != nil && t.Domain != *filter.Domain {
			return false
		}
		if filter.PricingModel != nil && t.PricingModel != *filter.PricingModel {
			return false
		}
		if filter.CustomerID != nil && t.CustomerID != *filter.CustomerID {
			return false
		}

		return true
	}), pg), nil
}

func (r *memTaskRepo) GetGeoCandidates(_ context.Context, q *entity.GeoQuery) ([]entity.Task, error) {
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(q.Latitude, q.Longitude, q.RadiusKm)

	return r.list(func(t *entity.Task) bool {
		if t.Status != q.Status {
			return false
		}
		if q.Domain != nil && t.Domain != *q.Domain {
			return false
		}

		return t.Latitude >= minLat && t.Latitude <= maxLat &&
			t.Longitude >= minLng && t.Longitude <= maxLng
	}), nil
}

func (r *memTaskRepo) CountTasks(_ context.Context) (int64, error) {
	return int64(len(r.list(func(*entity.Task) bool { return true }))), nil
}

func (r *memTaskRepo) CountTasksByStatus(_ context.Context, status common.TaskStatus) (int64, error) {
	return int64(len(r.list(func(t *entity.Task) bool { return t.Status == status }))), nil
}

func (r *memTaskRepo) CountTasksByDomain(_ context.Context, domain common.TaskDomain) (int64, error) {
	return int64(len(r.list(func(t *entity.Task) bool { return t.Domain == domain }))), nil
}

func (r *memBidRepo) CreateBid(_ context.Context, input *entity.CreateBidInput, maxBidsPerTask int) (uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Same order as the guarded insert: the cap check runs before the
	// uniqueness constraint can fire.
	count := 0
	for _, bid := range r.store.bids {
		if bid.TaskID == input.TaskID {
			count++
		}
	}
	if count >= maxBidsPerTask {
		return uuid.Nil, repoerrors.ErrLimitExceeded
	}

	for _, bid := range r.store.bids {
		if bid.TaskID == input.TaskID && bid.WorkerID == input.WorkerID {
			return uuid.Nil, repoerrors.ErrDuplicate
		}
	}

	bid := &entity.Bid{
		ID:            uuid.New(),
		TaskID:        input.TaskID,
		WorkerID:      input.WorkerID,
		ProposedPrice: input.ProposedPrice,
		Message:       input.Message,
		Status:        common.BidPending,
		CreatedAt:     time.Now().UTC(),
	}
	r.store.bids[bid.ID] = bid

	return bid.ID, nil
}

func (r *memBidRepo) GetBidByID(_ context.Context, id uuid.UUID) (*entity.Bid, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bid, ok := r.store.bids[id]
	if !ok {
		return nil, repoerrors.ErrNotFound
	}
	copied := *bid

	return &copied, nil
}

func (r *memBidRepo) AcceptBid(_ context.Context, bidID, taskID, workerID uuid.UUID, price float64, respondedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	task, ok := r.store.tasks[taskID]
	if !ok {
		return repoerrors.ErrNotFound
	}
	if task.Status != common.Open {
		return repoerrors.ErrConflict
	}

	bid, ok := r.store.bids[bidID]
	if !ok {
		return repoerrors.ErrNotFound
	}
	if bid.Status != common.BidPending {
		return repoerrors.ErrConflict
	}

	task.Status = common.Accepted
	worker := workerID
	task.AssignedWorkerID = &worker
	finalPrice := price
	task.FinalPrice = &finalPrice
	task.UpdatedAt = respondedAt

	bid.Status = common.BidAccepted
	responded := respondedAt
	bid.RespondedAt = &responded

	for _, sibling := range r.store.bids {
		if sibling.TaskID == taskID && sibling.Status == common.BidPending {
			sibling.Status = common.BidRejected
			siblingResponded := respondedAt
			sibling.RespondedAt = &siblingResponded
		}
	}

	return nil
}

func (r *memBidRepo) UpdateBidStatus(_ context.Context, id uuid.UUID, from, to common.BidStatus, respondedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bid, ok := r.store.bids[id]
	if !ok {
		return repoerrors.ErrNotFound
	}
	if bid.Status != from {
		return repoerrors.ErrConflict
	}

	bid.Status = to
	bid.RespondedAt = &respondedAt

	return nil
}

func (r *memBidRepo) listBids(match func(*entity.Bid) bool) []entity.Bid {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bids := make([]entity.Bid, 0)
	for _, bid := range r.store.bids {
		if match(bid) {
			bids = append(bids, *bid)
		}
	}
	sort.Slice(bids, func(i, j int) bool {
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})

	return bids
}

func (r *memBidRepo) GetTaskBids(_ context.Context, taskID uuid.UUID) ([]entity.Bid, error) {
	return r.listBids(func(b *entity.Bid) bool { return b.TaskID == taskID }), nil
}

func (r *memBidRepo) GetBidForWorker(_ context.Context, taskID, workerID uuid.UUID) (*entity.Bid, error) {
	bids := r.listBids(func(b *entity.Bid) bool {
		return b.TaskID == taskID && b.WorkerID == workerID
	})
	if len(bids) == 0 {
		return nil, repoerrors.ErrNotFound
	}

	return &bids[0], nil
}

func (r *memBidRepo) GetWorkerBids(_ context.Context, workerID uuid.UUID) ([]entity.Bid, error) {
	return r.listBids(func(b *entity.Bid) bool { return b.WorkerID == workerID }), nil
}

func (r *memBidRepo) CountTaskBids(_ context.Context, taskID uuid.UUID) (int64, error) {
	return int64(len(r.listBids(func(b *entity.Bid) bool { return b.TaskID == taskID }))), nil
}

// recordingEmitter captures emitted events in order.
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(_ context.Context, event events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)

	return nil
}

func (e *recordingEmitter) Close() error { return nil }

func (e *recordingEmitter) byType(eventType string) []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	matched := make([]events.Event, 0)
	for _, event := range e.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}

	return matched
}

type mapCache struct {
	mu       sync.Mutex
	statuses map[string]common.TaskStatus
}

func newMapCache() *mapCache {
	return &mapCache{statuses: make(map[string]common.TaskStatus)}
}

func (c *mapCache) Get(_ context.Context, taskID string) (common.TaskStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, ok := c.statuses[taskID]

	return status, ok, nil
}

func (c *mapCache) Set(_ context.Context, taskID string, status common.TaskStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statuses[taskID] = status

	return nil
}

type testEnv struct {
	services *service.Services
	store    *memStore
	emitter  *recordingEmitter
	cache    *mapCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	emitter := &recordingEmitter{}
	statusCache := newMapCache()

	services := service.NewServices(service.Deps{
		Repos: &repo.Repositories{
			Diagnostics: &memDiagnosticsRepo{},
			Task:        &memTaskRepo{store: store},
			Bid:         &memBidRepo{store: store},
		},
		Emitter: emitter,
		Cache:   statusCache,
		Logger:  zaptest.NewLogger(t),
		Limits: service.Limits{
			MaxBidsPerTask:  3,
			DefaultRadiusKm: 10,
			MaxRadiusKm:     50,
			MaxPageSize:     50,
		},
	})

	return &testEnv{services: services, store: store, emitter: emitter, cache: statusCache}
}
