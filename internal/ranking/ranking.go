package ranking

import (
	"context"
	"sort"

	"svw.info/puzzle/internal/domain"
)

// Contributors ranks users by claimed pieces.
type Contributors struct{}

func New() *Contributors { return &Contributors{} }

// Rank orders users by piece count (desc), then earliest claim, then user id.
func (r *Contributors) Rank(ctx context.Context, d *domain.PuzzleData) ([]domain.Contributor, error) {
	if d == nil {
		return nil, nil
	}
	byUser := make(map[int64]*domain.Contributor)
	for _, p := range d.Puzzles {
		if p.FilledBy == nil {
			continue
		}
		e, ok := byUser[p.FilledBy.ID]
		if !ok {
			e = &domain.Contributor{User: *p.FilledBy}
			byUser[p.FilledBy.ID] = e
		}
		e.Pieces++
		if p.FilledAt != nil && (e.FirstClaimAt.IsZero() || p.FilledAt.Before(e.FirstClaimAt)) {
			e.FirstClaimAt = *p.FilledAt
		}
	}
	out := make([]domain.Contributor, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pieces != b.Pieces {
			return a.Pieces > b.Pieces
		}
		if !a.FirstClaimAt.Equal(b.FirstClaimAt) {
			return a.FirstClaimAt.Before(b.FirstClaimAt)
		}
		return a.User.ID < b.User.ID
	})
	return out, nil
}
