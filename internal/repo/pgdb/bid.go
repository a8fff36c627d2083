package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/repo/repoerrors"
	"github.com/GFRDINDIA/Helper/pkg/postgres"
)

const bidColumns = "bid_id, task_id, worker_id, proposed_price, message, status, created_at, responded_at"

// uniqueViolation is the postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

type BidRepo struct {
	*postgres.Postgres
}

func NewBidRepo(pgdb *postgres.Postgres) *BidRepo {
	return &BidRepo{pgdb}
}

func scanBid(row rowScanner) (*entity.Bid, error) {
	var bid entity.Bid
	var respondedAt sql.NullTime

	err := row.Scan(&bid.ID, &bid.TaskID, &bid.WorkerID, &bid.ProposedPrice,
		&bid.Message, &bid.Status, &bid.CreatedAt, &respondedAt)
	if err != nil {
		return nil, err
	}

	if respondedAt.Valid {
		bid.RespondedAt = &respondedAt.Time
	}

	return &bid, nil
}

// CreateBid is a guarded insert: the row lands only while the task's
// bid count is below the cap, so concurrent submissions can't overshoot
// it. The unique (task_id, worker_id) index rejects duplicates.
func (r *BidRepo) CreateBid(ctx context.Context, input *entity.CreateBidInput, maxBidsPerTask int) (uuid.UUID, error) {
	createBidReq, args, _ := r.SqlBuilder.
		Insert("bids").
		Columns("task_id", "worker_id", "proposed_price", "message", "status").
		Select(r.SqlBuilder.
			Select().
			Column("?", input.TaskID).
			Column("?", input.WorkerID).
			Column("?", input.ProposedPrice).
			Column("?", input.Message).
			Column("?", common.BidPending).
			Where("(SELECT count(*) FROM bids WHERE task_id = ?) < ?", input.TaskID, maxBidsPerTask)).
		Suffix("RETURNING bid_id").
		ToSql()

	var bidID uuid.UUID
	if err := r.Database.QueryRowContext(ctx, createBidReq, args...).Scan(&bidID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return uuid.Nil, repoerrors.ErrDuplicate
		}
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repoerrors.ErrLimitExceeded
		}

		return uuid.Nil, err
	}

	return bidID, nil
}

func (r *BidRepo) GetBidByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	getBidReq, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("bid_id = ?", id).
		ToSql()

	bid, err := scanBid(r.Database.QueryRowContext(ctx, getBidReq, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repoerrors.ErrNotFound
		}

		return nil, err
	}

	return bid, nil
}

// AcceptBid is the critical section of the bidding protocol. All three
// effects commit together or not at all; the compare-and-swap on the
// task status serializes concurrent accepts so the loser fails instead
// of double-assigning.
func (r *BidRepo) AcceptBid(ctx context.Context, bidID, taskID, workerID uuid.UUID, price float64, respondedAt time.Time) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	claimTaskReq, args, _ := r.SqlBuilder.
		Update("tasks").
		Set("status", common.Accepted).
		Set("assigned_worker_id", workerID).
		Set("final_price", price).
		Set("updated_at", squirrel.Expr("now()")).
		Where("task_id = ?", taskID).
		Where("status = ?", common.Open).
		ToSql()

	result, err := tx.ExecContext(ctx, claimTaskReq, args...)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return repoerrors.ErrConflict
	}

	acceptBidReq, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", common.BidAccepted).
		Set("responded_at", respondedAt).
		Where("bid_id = ?", bidID).
		Where("status = ?", common.BidPending).
		ToSql()

	result, err = tx.ExecContext(ctx, acceptBidReq, args...)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return repoerrors.ErrConflict
	}

	rejectSiblingsReq, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", common.BidRejected).
		Set("responded_at", respondedAt).
		Where("task_id = ?", taskID).
		Where("status = ?", common.BidPending).
		ToSql()

	if _, err = tx.ExecContext(ctx, rejectSiblingsReq, args...); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BidRepo) UpdateBidStatus(ctx context.Context, id uuid.UUID, from, to common.BidStatus, respondedAt time.Time) error {
	updateStatusReq, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", to).
		Set("responded_at", respondedAt).
		Where("bid_id = ?", id).
		Where("status = ?", from).
		ToSql()

	result, err := r.Database.ExecContext(ctx, updateStatusReq, args...)
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

func (r *BidRepo) queryBids(ctx context.Context, query string, args []interface{}) ([]entity.Bid, error) {
	rows, err := r.Database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]entity.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return bids, err
		}
		bids = append(bids, *bid)
	}
	if err = rows.Err(); err != nil {
		return bids, err
	}

	return bids, nil
}

func (r *BidRepo) GetTaskBids(ctx context.Context, taskID uuid.UUID) ([]entity.Bid, error) {
	getTaskBidsReq, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("task_id = ?", taskID).
		OrderBy("created_at DESC").
		ToSql()

	return r.queryBids(ctx, getTaskBidsReq, args)
}

func (r *BidRepo) GetBidForWorker(ctx context.Context, taskID, workerID uuid.UUID) (*entity.Bid, error) {
	getBidReq, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("task_id = ?", taskID).
		Where("worker_id = ?", workerID).
		ToSql()

	bid, err := scanBid(r.Database.QueryRowContext(ctx, getBidReq, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repoerrors.ErrNotFound
		}

		return nil, err
	}

	return bid, nil
}

func (r *BidRepo) GetWorkerBids(ctx context.Context, workerID uuid.UUID) ([]entity.Bid, error) {
	getWorkerBidsReq, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("worker_id = ?", workerID).
		OrderBy("created_at DESC").
		ToSql()

	return r.queryBids(ctx, getWorkerBidsReq, args)
}

func (r *BidRepo) CountTaskBids(ctx context.Context, taskID uuid.UUID) (int64, error) {
	countReq, args, _ := r.SqlBuilder.
		Select("count(*)").
		From("bids").
		Where("task_id = ?", taskID).
		ToSql()

	var count int64
	if err := r.Database.QueryRowContext(ctx, countReq, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
