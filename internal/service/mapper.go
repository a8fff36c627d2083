package service

import (
	"github.com/GFRDINDIA/Helper/internal/entity"
)

func mapTask(t *entity.Task, bidCount int) *entity.TaskOutputModel {
	out := &entity.TaskOutputModel{
		ID:                 t.ID.String(),
		CustomerID:         t.CustomerID.String(),
		Title:              t.Title,
		Description:        t.Description,
		Domain:             string(t.Domain),
		PricingModel:       string(t.PricingModel),
		Status:             string(t.Status),
		Budget:             t.Budget,
		FinalPrice:         t.FinalPrice,
		Latitude:           t.Latitude,
		Longitude:          t.Longitude,
		Address:            t.Address,
		Images:             t.Images,
		ScheduledAt:        t.ScheduledAt,
		CancellationReason: t.CancellationReason,
		DisputeReason:      t.DisputeReason,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		CompletedAt:        t.CompletedAt,
		BidCount:           bidCount,
	}

	if t.AssignedWorkerID != nil {
		worker := t.AssignedWorkerID.String()
		out.AssignedWorkerID = &worker
	}
	if out.Images == nil {
		out.Images = make([]string, 0)
	}

	return out
}

func mapTasks(tasks []entity.Task) []entity.TaskOutputModel {
	s := make([]entity.TaskOutputModel, 0)
	for i := range tasks {
		s = append(s, *mapTask(&tasks[i], 0))
	}

	return s
}

func mapBid(b *entity.Bid) *entity.BidOutputModel {
	return &entity.BidOutputModel{
		ID:            b.ID.String(),
		TaskID:        b.TaskID.String(),
		WorkerID:      b.WorkerID.String(),
		ProposedPrice: b.ProposedPrice,
		Message:       b.Message,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		RespondedAt:   b.RespondedAt,
	}
}

func mapBids(bids []entity.Bid) []entity.BidOutputModel {
	s := make([]entity.BidOutputModel, 0)
	for i := range bids {
		s = append(s, *mapBid(&bids[i]))
	}

	return s
}
