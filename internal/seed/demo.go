package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"svw.info/puzzle/internal/domain"
)

const DemoEventID = "demo"

// Demo returns the built-in 3×3 event: one piece claimed by user 123 and
// four by user 124.
func Demo(imageURL string) *domain.Event {
	saver := domain.User{ID: 123, DisplayName: "절약왕"}
	budgeter := domain.User{ID: 124, DisplayName: "소비조절러"}
	base := time.Date(2025, time.October, 8, 9, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }
	return &domain.Event{
		ID:       DemoEventID,
		Title:    "퍼즐 이벤트",
		ImageURL: imageURL,
		Rows:     3,
		Cols:     3,
		Claims: []domain.Claim{
			{PieceID: 1, User: saver, At: at(0)},
			{PieceID: 3, User: budgeter, At: at(5)},
			{PieceID: 5, User: budgeter, At: at(12)},
			{PieceID: 6, User: budgeter, At: at(20)},
			{PieceID: 8, User: budgeter, At: at(31)},
		},
	}
}

// Builtin is an EventSource serving only the demo event.
type Builtin struct {
	imageURL string
}

func NewBuiltin(imageURL string) *Builtin { return &Builtin{imageURL: imageURL} }

func (b *Builtin) Load(ctx context.Context, id string) (*domain.Event, error) {
	id = strings.TrimSpace(id)
	if id != "" && id != DemoEventID {
		return nil, fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
	}
	return Demo(b.imageURL), nil
}

func (b *Builtin) List(ctx context.Context) ([]domain.EventMeta, error) {
	ev := Demo(b.imageURL)
	return []domain.EventMeta{{ID: ev.ID, Title: ev.Title, Rows: ev.Rows, Cols: ev.Cols}}, nil
}
