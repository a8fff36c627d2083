package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/geo"
	"github.com/GFRDINDIA/Helper/internal/repo/repoerrors"
	"github.com/GFRDINDIA/Helper/pkg/postgres"
)

const taskColumns = "task_id, customer_id, title, description, domain, pricing_model, status, budget, " +
	"final_price, latitude, longitude, address, images, assigned_worker_id, scheduled_at, " +
	"cancellation_reason, cancelled_by, dispute_reason, created_at, updated_at, completed_at"

type TaskRepo struct {
	*postgres.Postgres
}

func NewTaskRepo(pgdb *postgres.Postgres) *TaskRepo {
	return &TaskRepo{pgdb}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*entity.Task, error) {
	var (
		task           entity.Task
		finalPrice     sql.NullFloat64
		assignedWorker uuid.NullUUID
		scheduledAt    sql.NullTime
		cancelReason   sql.NullString
		cancelledBy    uuid.NullUUID
		disputeReason  sql.NullString
		completedAt    sql.NullTime
	)

	err := row.Scan(&task.ID, &task.CustomerID, &task.Title, &task.Description, &task.Domain,
		&task.PricingModel, &task.Status, &task.Budget, &finalPrice, &task.Latitude, &task.Longitude,
		&task.Address, pq.Array(&task.Images), &assignedWorker, &scheduledAt,
		&cancelReason, &cancelledBy, &disputeReason, &task.CreatedAt, &task.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if finalPrice.Valid {
		task.FinalPrice = &finalPrice.Float64
	}
	if assignedWorker.Valid {
		task.AssignedWorkerID = &assignedWorker.UUID
	}
	if scheduledAt.Valid {
		task.ScheduledAt = &scheduledAt.Time
	}
	if cancelReason.Valid {
		task.CancellationReason = &cancelReason.String
	}
	if cancelledBy.Valid {
		task.CancelledBy = &cancelledBy.UUID
	}
	if disputeReason.Valid {
		task.DisputeReason = &disputeReason.String
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}

func (r *TaskRepo) CreateTask(ctx context.Context, input *entity.CreateTaskInput) (uuid.UUID, error) {
	createTaskReq, args, _ := r.SqlBuilder.
		Insert("tasks").
		Columns("customer_id", "title", "description", "domain", "pricing_model", "status",
			"budget", "latitude", "longitude", "address", "images", "scheduled_at").
		Values(input.CustomerID, input.Title, input.Description, input.Domain, input.PricingModel,
			common.Posted, input.Budget, input.Latitude, input.Longitude, input.Address,
			pq.Array(input.Images), input.ScheduledAt).
		Suffix("RETURNING task_id").
		ToSql()

	var taskID uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createTaskReq, args...).Scan(&taskID); err != nil {
		return uuid.Nil, err
	}

	return taskID, nil
}

func (r *TaskRepo) GetTaskByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	getTaskReq, args, _ := r.SqlBuilder.
		Select(taskColumns).
		From("tasks").
		Where("task_id = ?", id).
		ToSql()

	task, err := scanTask(r.Database.QueryRowContext(ctx, getTaskReq, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repoerrors.ErrNotFound
		}

		return nil, err
	}

	return task, nil
}

func (r *TaskRepo) UpdateTask(ctx context.Context, id uuid.UUID, patch *entity.UpdateTaskInput) error {
	update := r.SqlBuilder.
		Update("tasks").
		Set("updated_at", squirrel.Expr("now()")).
		Where("task_id = ?", id).
		Where(squirrel.Eq{"status": []common.TaskStatus{common.Posted, common.Open}})

	if patch.Title != nil {
		update = update.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		update = update.Set("description", *patch.Description)
	}
	if patch.Budget != nil {
		update = update.Set("budget", *patch.Budget)
	}
	if patch.Latitude != nil {
		update = update.Set("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		update = update.Set("longitude", *patch.Longitude)
	}
	if patch.Address != nil {
		update = update.Set("address", *patch.Address)
	}
	if patch.Images != nil {
		update = update.Set("images", pq.Array(patch.Images))
	}
	if patch.ScheduledAt != nil {
		update = update.Set("scheduled_at", *patch.ScheduledAt)
	}

	updateTaskReq, args, _ := update.ToSql()
	result, err := r.Database.ExecContext(ctx, updateTaskReq, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repoerrors.ErrConflict
	}

	return nil
}

func (r *TaskRepo) UpdateTaskStatus(ctx context.Context, id uuid.UUID, from, to common.TaskStatus, patch *entity.TaskStatusPatch) error {
	update := r.SqlBuilder.
		Update("tasks").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where("task_id = ?", id).
		Where("status = ?", from)

	if patch != nil {
		if patch.AssignedWorkerID != nil {
			update = update.Set("assigned_worker_id", *patch.AssignedWorkerID)
		}
		if patch.FinalPrice != nil {
			update = update.Set("final_price", *patch.FinalPrice)
		}
		if patch.CompletedAt != nil {
			update = update.Set("completed_at", *patch.CompletedAt)
		}
		if patch.CancellationReason != nil {
			update = update.Set("cancellation_reason", *patch.CancellationReason)
		}
		if patch.CancelledBy != nil {
			update = update.Set("cancelled_by", *patch.CancelledBy)
		}
		if patch.DisputeReason != nil {
			update = update.Set("dispute_reason", *patch.DisputeReason)
		}
	}

	updateStatusReq, args, _ := update.ToSql()
	result, err := r.Database.ExecContext(ctx, updateStatusReq, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Lost the compare-and-swap: the task is no longer in `from`.
		return repoerrors.ErrConflict
	}

	return nil
}

func (r *TaskRepo) queryTasks(ctx context.Context, query string, args []interface{}) ([]entity.Task, error) {
	rows, err := r.Database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, *task)
	}
	if err = rows.Err(); err != nil {
		return tasks, err
	}

	return tasks, nil
}

func (r *TaskRepo) GetTasksByCustomer(ctx context.Context, customerID uuid.UUID, pg *entity.PaginationInput) ([]entity.Task, error) {
	getTasksReq, args, _ := r.SqlBuilder.
		Select(taskColumns).
		From("tasks").
		Where("customer_id = ?", customerID).
		OrderBy("created_at DESC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	return r.queryTasks(ctx, getTasksReq, args)
}

func (r *TaskRepo) GetTasksByWorker(ctx context.Context, workerID uuid.UUID, pg *entity.PaginationInput) ([]entity.Task, error) {
	getTasksReq, args, _ := r.SqlBuilder.
		Select(taskColumns).
		From("tasks").
		Where("assigned_worker_id = ?", workerID).
		OrderBy("created_at DESC").
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	return r.queryTasks(ctx, getTasksReq, args)
}

// sortColumns whitelists the sortable fields of the non-geo search.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"budget":      "budget",
	"scheduledAt": "scheduled_at",
}

func (r *TaskRepo) SearchTasks(ctx context.Context, filter *entity.TaskFilter, sort *entity.SortInput, pg *entity.PaginationInput) ([]entity.Task, error) {
	query := r.SqlBuilder.
		Select(taskColumns).
		From("tasks")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Domain != nil {
		query = query.Where("domain = ?", *filter.Domain)
	}
	if filter.PricingModel != nil {
		query = query.Where("pricing_model = ?", *filter.PricingModel)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	column, ok := sortColumns[sort.Field]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}

	searchTasksReq, args, _ := query.
		OrderBy(fmt.Sprintf("%s %s", column, direction)).
		Offset(uint64(pg.Offset)).
		Limit(uint64(pg.Limit)).
		ToSql()

	return r.queryTasks(ctx, searchTasksReq, args)
}

func (r *TaskRepo) GetGeoCandidates(ctx context.Context, q *entity.GeoQuery) ([]entity.Task, error) {
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(q.Latitude, q.Longitude, q.RadiusKm)

	query := r.SqlBuilder.
		Select(taskColumns).
		From("tasks").
		Where("status = ?", q.Status).
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLng, maxLng)

	if q.Domain != nil {
		query = query.Where("domain = ?", *q.Domain)
	}

	getCandidatesReq, args, _ := query.ToSql()

	return r.queryTasks(ctx, getCandidatesReq, args)
}

func (r *TaskRepo) count(ctx context.Context, query squirrel.SelectBuilder) (int64, error) {
	countReq, args, _ := query.ToSql()

	var count int64
	if err := r.Database.QueryRowContext(ctx, countReq, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *TaskRepo) CountTasks(ctx context.Context) (int64, error) {
	return r.count(ctx, r.SqlBuilder.Select("count(*)").From("tasks"))
}

func (r *TaskRepo) CountTasksByStatus(ctx context.Context, status common.TaskStatus) (int64, error) {
	return r.count(ctx, r.SqlBuilder.Select("count(*)").From("tasks").Where("status = ?", status))
}

func (r *TaskRepo) CountTasksByDomain(ctx context.Context, domain common.TaskDomain) (int64, error) {
	return r.count(ctx, r.SqlBuilder.Select("count(*)").From("tasks").Where("domain = ?", domain))
}
