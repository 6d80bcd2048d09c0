package usecase

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svw.info/puzzle/internal/domain"
	"svw.info/puzzle/internal/imageloader"
	"svw.info/puzzle/internal/partition"
	"svw.info/puzzle/internal/ranking"
	"svw.info/puzzle/internal/render"
	"svw.info/puzzle/internal/seed"
	"svw.info/puzzle/internal/store"
	"svw.info/puzzle/internal/validator"
)

func newService(t *testing.T) *Service {
	t.Helper()
	src := seed.NewBuiltin("")
	st := store.New(src, seed.NewGridSeeder(nil), validator.New(), imageloader.New(), store.Options{
		Placeholder: imageloader.NewPlaceholder(90, 90),
	})
	t.Cleanup(st.Close)
	return NewService(st, render.New(partition.New(), render.DefaultOptions()), ranking.New(), src)
}

func TestNotConfigured(t *testing.T) {
	u := &Service{}
	ctx := context.Background()
	_, err := u.Snapshot(ctx)
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = u.Claim(ctx, 1, domain.User{})
	assert.ErrorIs(t, err, errNotConfigured)
	assert.ErrorIs(t, u.Reload(ctx, ""), errNotConfigured)
	_, err = u.Composite(ctx)
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = u.Piece(ctx, 1)
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = u.ListEvents(ctx)
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestSnapshotBeforeInitialize(t *testing.T) {
	u := newService(t)
	_, err := u.Snapshot(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotInitialized))
	_, err = u.Composite(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotInitialized))
}

func TestSnapshotAndClaim(t *testing.T) {
	u := newService(t)
	ctx := context.Background()
	require.NoError(t, u.Store.Initialize(ctx))

	v, err := u.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Puzzle.FilledCount)
	assert.Equal(t, domain.SourcePlaceholder, v.ImageSource)
	assert.Equal(t, image.Pt(90, 90), v.ImageSize)
	require.Len(t, v.Ranking, 2)
	assert.Equal(t, int64(124), v.Ranking[0].User.ID)
	assert.Equal(t, "demo", v.Event.ID)

	_, err = u.Claim(ctx, 9, domain.User{ID: 123, DisplayName: "절약왕"})
	require.NoError(t, err)
	v, err = u.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, v.Puzzle.FilledCount)
	assert.Equal(t, 2, v.Ranking[1].Pieces)

	img, err := u.Composite(ctx)
	require.NoError(t, err)
	assert.False(t, img.Bounds().Empty())

	piece, err := u.Piece(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 30), piece.Bounds().Size())

	metas, err := u.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}
