package service

import (
	"context"
	"sort"

	"github.com/GFRDINDIA/Helper/internal/common"
	"github.com/GFRDINDIA/Helper/internal/entity"
	"github.com/GFRDINDIA/Helper/internal/geo"
	"github.com/GFRDINDIA/Helper/internal/repo"
)

type SearchService struct {
	taskRepo        repo.Task
	defaultRadiusKm float64
	maxRadiusKm     float64
	maxPageSize     int
}

func NewSearchService(deps Deps) *SearchService {
	return &SearchService{
		taskRepo:        deps.Repos.Task,
		defaultRadiusKm: deps.Limits.DefaultRadiusKm,
		maxRadiusKm:     deps.Limits.MaxRadiusKm,
		maxPageSize:     deps.Limits.MaxPageSize,
	}
}

// Nearby returns tasks within the radius of the point, ascending by
// haversine distance. The store prefilters candidates by status/domain
// and bounding box; the exact distance check happens here.
func (s *SearchService) Nearby(ctx context.Context, q *entity.GeoQuery) ([]entity.TaskOutputModel, error) {
	if q.RadiusKm <= 0 {
		q.RadiusKm = s.defaultRadiusKm
	}
	if q.RadiusKm > s.maxRadiusKm {
		q.RadiusKm = s.maxRadiusKm
	}
	if q.Status == "" {
		q.Status = common.Open
	}

	candidates, err := s.taskRepo.GetGeoCandidates(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([]entity.TaskOutputModel, 0)
	for i := range candidates {
		d := geo.DistanceKm(q.Latitude, q.Longitude, candidates[i].Latitude, candidates[i].Longitude)
		if d > q.RadiusKm {
			continue
		}

		out := mapTask(&candidates[i], 0)
		distance := d
		out.DistanceKm = &distance
		results = append(results, *out)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].DistanceKm < *results[j].DistanceKm
	})

	return results, nil
}

// Search is the non-geo path: filterable, paged, field+direction
// sorted, no distance computation.
func (s *SearchService) Search(ctx context.Context, filter *entity.TaskFilter, sortInput *entity.SortInput, pg *entity.PaginationInput) ([]entity.TaskOutputModel, error) {
	if pg.Limit <= 0 || pg.Limit > s.maxPageSize {
		pg.Limit = s.maxPageSize
	}
	if pg.Offset < 0 {
		pg.Offset = 0
	}

	tasks, err := s.taskRepo.SearchTasks(ctx, filter, sortInput, pg)
	if err != nil {
		return nil, err
	}

	return mapTasks(tasks), nil
}
