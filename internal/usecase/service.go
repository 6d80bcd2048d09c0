package usecase

import (
	"context"
	"errors"
	"image"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/ports"
	"svw.info/puzzle/internal/render"
	"svw.info/puzzle/internal/store"
)

type Service struct {
	Store    *store.Store
	Renderer *render.Renderer
	Ranker   ports.Ranker
	Events   ports.EventSource
}

func NewService(st *store.Store, r *render.Renderer, rk ports.Ranker, ev ports.EventSource) *Service {
	return &Service{Store: st, Renderer: r, Ranker: rk, Events: ev}
}

var errNotConfigured = errors.New("usecase dependency not configured")

// View is everything a client needs to draw the current state.
type View struct {
	Event       *domain.Event
	Puzzle      *domain.PuzzleData
	Ranking     []domain.Contributor
	ImageSource domain.ImageSource
	ImageSize   image.Point
}

// Snapshot returns the latest published state.
func (u *Service) Snapshot(ctx context.Context) (View, error) {
	if u.Store == nil || u.Ranker == nil {
		return View{}, errNotConfigured
	}
	d := u.Store.PuzzleData().Get()
	if d == nil {
		return View{}, domain.ErrNotInitialized
	}
	ranking, err := u.Ranker.Rank(ctx, d)
	if err != nil {
		return View{}, err
	}
	return View{
		Event:       u.Store.Event(),
		Puzzle:      d,
		Ranking:     ranking,
		ImageSource: u.Store.ImageSource(),
		ImageSize:   u.Store.Image().Get().Bounds().Size(),
	}, nil
}

func (u *Service) Claim(ctx context.Context, pieceID int, user domain.User) (*domain.PuzzleData, error) {
	if u.Store == nil {
		return nil, errNotConfigured
	}
	return u.Store.Claim(ctx, pieceID, user)
}

func (u *Service) Reload(ctx context.Context, url string) error {
	if u.Store == nil {
		return errNotConfigured
	}
	return u.Store.Reload(ctx, url)
}

// Composite renders the whole grid against the current image.
func (u *Service) Composite(ctx context.Context) (image.Image, error) {
	if u.Store == nil || u.Renderer == nil {
		return nil, errNotConfigured
	}
	d := u.Store.PuzzleData().Get()
	if d == nil {
		return nil, domain.ErrNotInitialized
	}
	return u.Renderer.Compose(ctx, d, u.Store.Image().Get())
}

// Piece renders one piece against the current image.
func (u *Service) Piece(ctx context.Context, pieceID int) (image.Image, error) {
	if u.Store == nil || u.Renderer == nil {
		return nil, errNotConfigured
	}
	return u.Renderer.Piece(u.Store.PuzzleData().Get(), u.Store.Image().Get(), pieceID)
}

// Listing
func (u *Service) ListEvents(ctx context.Context) ([]domain.EventMeta, error) {
	if u.Events == nil {
		return nil, errNotConfigured
	}
	return u.Events.List(ctx)
}
