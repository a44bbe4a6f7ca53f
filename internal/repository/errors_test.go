package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labreserve/internal/testutil"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(fmt.Errorf("query: %w", gorm.ErrRecordNotFound)), ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23505"}), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Same(t, other, translate(other))
	assert.NotErrorIs(t, translate(&pgconn.PgError{Code: "23503"}), ErrDuplicate)
}

func TestRepositories_ListsSurfaceDriverErrors(t *testing.T) {
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	store := NewStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Proposals.ListByReservation(ctx, "missing")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Reservations.ListByUser(ctx, f.Professor.ID)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Catalog.ListWorkstations(ctx, f.Lab.ID)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Notifications.CountUnread(ctx, f.Professor.ID)
	assert.ErrorIs(t, err, context.Canceled)

	// An empty list is not a lookup miss.
	got, err := store.Proposals.ListByReservation(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
