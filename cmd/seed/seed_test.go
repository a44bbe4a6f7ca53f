package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"labreserve/internal/domain"
	"labreserve/internal/repository"
	"labreserve/internal/testutil"
)

const sample = `
users:
  - email: Manager@Uni.edu
    name: Manager
    role: lab_manager
    password: pw
  - email: prof@uni.edu
    role: professor
labs:
  - name: Optics
    open: "09:00"
    close: "17:00"
    hours:
      - { day: 6, closed: true }
    closed_days:
      - { date: "2030-12-25", reason: holiday }
      - { day_of_week: 0 }
    workstations:
      - name: Table 1
      - name: Table 2
        inactive: true
    managers: [manager@uni.edu]
`

func TestParseSeed_Rejects(t *testing.T) {
	_, err := parseSeed(strings.NewReader("users:\n  - email: x@y\n    role: janitor\n"))
	assert.Error(t, err)

	_, err = parseSeed(strings.NewReader("labs:\n  - name: A\n    hours:\n      - { day: 7 }\n"))
	assert.Error(t, err)

	_, err = parseSeed(strings.NewReader("labs:\n  - name: A\n    colour: blue\n"))
	assert.Error(t, err)
}

func TestSeeder_ApplyIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	store := repository.NewStore(db)
	s := &seeder{store: store, log: zap.NewNop()}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		f, err := parseSeed(strings.NewReader(sample))
		require.NoError(t, err)
		require.NoError(t, s.apply(ctx, f))
	}

	labs, err := store.Catalog.ListLabs(ctx)
	require.NoError(t, err)
	require.Len(t, labs, 1)
	lab := labs[0]
	assert.Equal(t, "09:00", lab.DefaultOpenTime)

	sat, err := store.Catalog.GetOperatingHours(ctx, lab.ID, 6)
	require.NoError(t, err)
	require.NotNil(t, sat)
	assert.True(t, sat.IsClosed)

	closed, err := store.Catalog.ListClosedDays(ctx, lab.ID)
	require.NoError(t, err)
	assert.Len(t, closed, 2)

	stations, err := store.Catalog.ListWorkstations(ctx, lab.ID)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.True(t, stations[0].IsActive)
	assert.False(t, stations[1].IsActive)

	manager, err := store.Users.GetByEmail(ctx, "manager@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLabManager, manager.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(manager.PasswordHash), []byte("pw")))

	ok, err := store.Catalog.IsActiveManager(ctx, manager.ID, lab.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	prof, err := store.Users.GetByEmail(ctx, "prof@uni.edu")
	require.NoError(t, err)
	assert.Empty(t, prof.PasswordHash)
}
