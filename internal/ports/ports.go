package ports

import (
	"context"
	"image"

	"svw.info/puzzle/internal/domain"
)

// Partitioner cuts the piece at (row, col) out of a rows×cols grid over img.
type Partitioner interface {
	Crop(img image.Image, row, col, totalRows, totalCols int) (image.Image, error)
}

// ImageLoader resolves a URL to an image. It always returns a usable image,
// falling back to placeholder on any failure.
type ImageLoader interface {
	Load(ctx context.Context, url string, placeholder image.Image) image.Image
}

// Seeder builds the initial piece set of an event.
type Seeder interface {
	Seed(ctx context.Context, ev *domain.Event) (*domain.PuzzleData, error)
}

// Validator checks the structural invariants of a piece set.
type Validator interface {
	Validate(ctx context.Context, d *domain.PuzzleData) (ok bool, violations []domain.Violation, err error)
}

// Ranker orders the contributors of a snapshot.
type Ranker interface {
	Rank(ctx context.Context, d *domain.PuzzleData) ([]domain.Contributor, error)
}

// EventSource supplies event definitions. It is read-only.
type EventSource interface {
	Load(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context) ([]domain.EventMeta, error)
}
