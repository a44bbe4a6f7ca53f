package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"labreserve/internal/domain"
	"labreserve/internal/testutil"
)

func TestCatalogRepository_OperatingHoursUpsert(t *testing.T) {
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	h, err := repo.GetOperatingHours(ctx, f.Lab.ID, int(time.Monday))
	require.NoError(t, err)
	assert.Nil(t, h)

	require.NoError(t, repo.SaveOperatingHours(ctx, &domain.LabOperatingHours{
		LabID: f.Lab.ID, DayOfWeek: int(time.Monday), OpenTime: "09:00", CloseTime: "17:00",
	}))
	require.NoError(t, repo.SaveOperatingHours(ctx, &domain.LabOperatingHours{
		LabID: f.Lab.ID, DayOfWeek: int(time.Monday), IsClosed: true,
	}))

	h, err = repo.GetOperatingHours(ctx, f.Lab.ID, int(time.Monday))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, h.IsClosed)
}

func TestCatalogRepository_Managers(t *testing.T) {
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	managers, err := repo.ListManagers(ctx, f.Lab.ID)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, f.Manager.Email, managers[0].Email)

	require.NoError(t, repo.AssignManager(ctx, f.Manager.ID, f.OtherLab.ID))
	ids, err := repo.ManagedLabIDs(ctx, f.Manager.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{f.Lab.ID, f.OtherLab.ID}, ids)

	_, err = repo.GetLab(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewCachedCatalog_WithoutRedisIsPassThrough(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewCatalogRepository(db)
	assert.Same(t, repo, NewCachedCatalog(repo, nil, time.Minute, zap.NewNop()))
}

func TestCachedCatalog_RedisDownFallsThrough(t *testing.T) {
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	core, logs := observer.New(zap.WarnLevel)
	cached := NewCachedCatalog(NewCatalogRepository(db), rdb, time.Minute, zap.New(core))

	lab, err := cached.GetLab(ctx, f.Lab.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Lab.Name, lab.Name)

	days, err := cached.ListClosedDays(ctx, f.Lab.ID)
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = cached.GetLab(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NotEmpty(t, logs.FilterMessage("catalog cache read failed").All())
}
