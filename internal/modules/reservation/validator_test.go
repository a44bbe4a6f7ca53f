package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labreserve/internal/domain"
	"labreserve/internal/repository"
	"labreserve/internal/testutil"
)

func newValidatorEnv(t *testing.T) (*Validator, repository.CatalogRepository, *testutil.Fixture) {
	t.Helper()
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	catalog := repository.NewCatalogRepository(db)
	clock := &testutil.Clock{T: time.Date(2030, 1, 6, 9, 0, 0, 0, time.UTC)}
	return NewValidator(catalog, time.UTC, clock.Now), catalog, f
}

func TestValidator_TimeRange(t *testing.T) {
	v, _, f := newValidatorEnv(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end time.Time
	}{
		{"end before start", at(7, 12, 0), at(7, 10, 0)},
		{"empty window", at(7, 10, 0), at(7, 10, 0)},
		{"start in the past", at(5, 10, 0), at(5, 12, 0)},
		{"start equals now", at(6, 9, 0), at(6, 10, 0)},
		{"shorter than 15 minutes", at(7, 10, 0), at(7, 10, 14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, &f.Lab, tt.start, tt.end, true, nil)
			assert.ErrorIs(t, err, ErrInvalidReservationTime)
		})
	}

	assert.NoError(t, v.Validate(ctx, &f.Lab, at(7, 10, 0), at(7, 10, 15), true, nil))
}

func TestValidator_DefaultHours(t *testing.T) {
	v, _, f := newValidatorEnv(t)
	ctx := context.Background()

	assert.NoError(t, v.Validate(ctx, &f.Lab, at(7, 8, 0), at(7, 20, 0), true, nil))
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(7, 7, 30), at(7, 9, 0), true, nil), ErrOutsideOperatingHours)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(7, 19, 0), at(7, 20, 30), true, nil), ErrOutsideOperatingHours)
	// Crossing midnight ends past closing time.
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(7, 19, 0), at(8, 9, 0), true, nil), ErrOutsideOperatingHours)
}

func TestValidator_WeekdayRecordOverridesDefaults(t *testing.T) {
	v, catalog, f := newValidatorEnv(t)
	ctx := context.Background()

	require.NoError(t, catalog.SaveOperatingHours(ctx, &domain.LabOperatingHours{
		LabID: f.Lab.ID, DayOfWeek: int(time.Monday), OpenTime: "10:00", CloseTime: "14:00",
	}))
	require.NoError(t, catalog.SaveOperatingHours(ctx, &domain.LabOperatingHours{
		LabID: f.Lab.ID, DayOfWeek: int(time.Tuesday), IsClosed: true,
	}))

	assert.NoError(t, v.Validate(ctx, &f.Lab, at(7, 10, 0), at(7, 14, 0), true, nil))
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(7, 9, 0), at(7, 11, 0), true, nil), ErrOutsideOperatingHours)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(8, 10, 0), at(8, 11, 0), true, nil), ErrOutsideOperatingHours)
	// Wednesday has no record and falls back to 08:00-20:00.
	assert.NoError(t, v.Validate(ctx, &f.Lab, at(9, 8, 0), at(9, 9, 0), true, nil))
}

func TestValidator_NoScheduleMeansClosedOnSunday(t *testing.T) {
	v, catalog, _ := newValidatorEnv(t)
	ctx := context.Background()

	lab := &domain.Lab{Name: "Field station"}
	require.NoError(t, catalog.SaveLab(ctx, lab))

	assert.ErrorIs(t, v.Validate(ctx, lab, at(13, 10, 0), at(13, 11, 0), true, nil), ErrLabClosed)
	// Any hour is accepted on other days.
	assert.NoError(t, v.Validate(ctx, lab, at(7, 2, 0), at(7, 23, 0), true, nil))
}

func TestValidator_ClosedDays(t *testing.T) {
	v, catalog, f := newValidatorEnv(t)
	ctx := context.Background()

	holiday := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	friday := int(time.Friday)
	require.NoError(t, catalog.SaveClosedDay(ctx, &domain.LabClosedDay{LabID: f.Lab.ID, Date: &holiday, Reason: "maintenance"}))
	require.NoError(t, catalog.SaveClosedDay(ctx, &domain.LabClosedDay{LabID: f.Lab.ID, DayOfWeek: &friday}))

	err := v.Validate(ctx, &f.Lab, at(7, 10, 0), at(7, 11, 0), true, nil)
	assert.ErrorIs(t, err, ErrLabClosed)
	assert.Contains(t, err.Error(), "maintenance")

	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(11, 10, 0), at(11, 11, 0), true, nil), ErrLabClosed)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, at(18, 10, 0), at(18, 11, 0), true, nil), ErrLabClosed)
	assert.NoError(t, v.Validate(ctx, &f.Lab, at(14, 10, 0), at(14, 11, 0), true, nil))

	// Another lab's closures do not apply.
	assert.NoError(t, v.Validate(ctx, &f.OtherLab, at(7, 10, 0), at(7, 11, 0), true, nil))
}

func TestValidator_Workstations(t *testing.T) {
	v, _, f := newValidatorEnv(t)
	ctx := context.Background()
	start, end := at(7, 10, 0), at(7, 11, 0)

	assert.NoError(t, v.Validate(ctx, &f.Lab, start, end, false, []int64{f.WS1.ID, f.WS2.ID}))
	assert.NoError(t, v.Validate(ctx, &f.Lab, start, end, true, nil))

	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, start, end, false, nil), ErrNoWorkstationsSelected)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, start, end, false, []int64{f.WS1.ID, 999}), ErrWorkstationNotFound)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, start, end, false, []int64{f.ForeignWS.ID}), ErrWorkstationNotInLab)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, start, end, false, []int64{f.Inactive.ID}), ErrWorkstationInactive)
}

func TestValidator_RuleOrder(t *testing.T) {
	v, catalog, f := newValidatorEnv(t)
	ctx := context.Background()

	holiday := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)
	require.NoError(t, catalog.SaveClosedDay(ctx, &domain.LabClosedDay{LabID: f.Lab.ID, Date: &holiday}))

	// Outside hours on a closed day with no workstations: hours win.
	err := v.Validate(ctx, &f.Lab, at(7, 6, 0), at(7, 7, 0), false, nil)
	assert.ErrorIs(t, err, ErrOutsideOperatingHours)

	// Inside hours on a closed day with no workstations: closed day wins.
	err = v.Validate(ctx, &f.Lab, at(7, 10, 0), at(7, 11, 0), false, nil)
	assert.ErrorIs(t, err, ErrLabClosed)

	// A bad time range is reported before anything else.
	err = v.Validate(ctx, &f.Lab, at(7, 11, 0), at(7, 6, 0), false, nil)
	assert.ErrorIs(t, err, ErrInvalidReservationTime)
}

func TestValidator_LabZone(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	clock := &testutil.Clock{T: time.Date(2030, 1, 6, 9, 0, 0, 0, time.UTC)}
	v := NewValidator(repository.NewCatalogRepository(db), loc, clock.Now)

	// 04:00 UTC is 09:00 in the lab.
	assert.NoError(t, v.Validate(context.Background(), &f.Lab, at(7, 4, 0), at(7, 5, 0), true, nil))
	// 16:00 UTC is 21:00 in the lab.
	assert.ErrorIs(t, v.Validate(context.Background(), &f.Lab, at(7, 14, 0), at(7, 16, 0), true, nil), ErrOutsideOperatingHours)
}

func TestValidator_DSTChangeoverKeepsPostedHours(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Skip("tzdata not available")
	}
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	clock := &testutil.Clock{T: time.Date(2030, 1, 6, 9, 0, 0, 0, time.UTC)}
	v := NewValidator(repository.NewCatalogRepository(db), loc, clock.Now)
	ctx := context.Background()

	local := func(month time.Month, day, hour, min int) time.Time {
		return time.Date(2030, month, day, hour, min, 0, 0, loc)
	}

	// 2030-03-31 is 23 hours long, 2030-10-27 is 25 hours long.
	assert.NoError(t, v.Validate(ctx, &f.Lab, local(time.March, 31, 8, 30), local(time.March, 31, 9, 30), true, nil))
	assert.NoError(t, v.Validate(ctx, &f.Lab, local(time.March, 31, 19, 0), local(time.March, 31, 20, 0), true, nil))
	assert.NoError(t, v.Validate(ctx, &f.Lab, local(time.October, 27, 19, 0), local(time.October, 27, 19, 45), true, nil))
	assert.NoError(t, v.Validate(ctx, &f.Lab, local(time.October, 27, 8, 0), local(time.October, 27, 9, 0), true, nil))

	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, local(time.October, 27, 7, 30), local(time.October, 27, 9, 0), true, nil), ErrOutsideOperatingHours)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, local(time.October, 27, 19, 30), local(time.October, 27, 20, 30), true, nil), ErrOutsideOperatingHours)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, local(time.March, 31, 7, 30), local(time.March, 31, 9, 0), true, nil), ErrOutsideOperatingHours)
	assert.ErrorIs(t, v.Validate(ctx, &f.Lab, local(time.March, 31, 19, 30), local(time.March, 31, 20, 30), true, nil), ErrOutsideOperatingHours)
}

func TestClockOn(t *testing.T) {
	day := time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

	got, err := clockOn(day, "08:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 7, 8, 30, 0, 0, time.UTC), got)

	got, err = clockOn(day, " 20:00:15 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 7, 20, 0, 15, 0, time.UTC), got)

	got, err = clockOn(day, "24:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 8, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "8", "ab:cd", "25:00", "10:60"} {
		_, err := clockOn(day, bad)
		assert.Error(t, err, bad)
	}
}
