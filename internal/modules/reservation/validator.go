package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"labreserve/internal/domain"
	"labreserve/internal/repository"
)

const minReservationLength = 15 * time.Minute

// Validator checks a requested window and workstation selection against the
// lab catalog. Operating hours and closed days are read in the lab's
// wall-clock zone.
type Validator struct {
	catalog CatalogReader
	loc     *time.Location
	now     func() time.Time
}

func NewValidator(catalog CatalogReader, loc *time.Location, clock func() time.Time) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &Validator{catalog: catalog, loc: loc, now: clock}
}

// Validate returns the first violated rule, checked in this order: time
// range, operating hours, closed days, workstation selection.
func (v *Validator) Validate(ctx context.Context, lab *domain.Lab, start, end time.Time, wholeLab bool, workstationIDs []int64) error {
	if !start.Before(end) {
		return ErrInvalidReservationTime.WithMessage("start time must be before end time")
	}
	if !start.After(v.now()) {
		return ErrInvalidReservationTime.WithMessage("start time must be in the future")
	}
	if end.Sub(start) < minReservationLength {
		return ErrInvalidReservationTime.WithMessage("reservation must last at least 15 minutes")
	}

	local := start.In(v.loc)
	weekday := int(local.Weekday())

	hours, err := v.catalog.GetOperatingHours(ctx, lab.ID, weekday)
	if err != nil {
		return fmt.Errorf("load operating hours: %w", err)
	}
	switch {
	case hours != nil && hours.IsClosed:
		return ErrOutsideOperatingHours.WithMessage(fmt.Sprintf("lab is closed on %s", local.Weekday()))
	case hours != nil:
		if err := v.checkWindow(local, end, hours.OpenTime, hours.CloseTime); err != nil {
			return err
		}
	case lab.HasDefaultHours():
		if err := v.checkWindow(local, end, lab.DefaultOpenTime, lab.DefaultCloseTime); err != nil {
			return err
		}
	case local.Weekday() == time.Sunday:
		return ErrLabClosed.WithMessage("lab is closed on Sundays")
	}

	closed, err := v.catalog.ListClosedDays(ctx, lab.ID)
	if err != nil {
		return fmt.Errorf("load closed days: %w", err)
	}
	for _, d := range closed {
		if closedOn(d, local) {
			msg := "lab is closed on " + local.Format("2006-01-02")
			if d.Reason != "" {
				msg += ": " + d.Reason
			}
			return ErrLabClosed.WithMessage(msg)
		}
	}

	if wholeLab {
		return nil
	}
	if len(workstationIDs) == 0 {
		return ErrNoWorkstationsSelected
	}
	for _, id := range workstationIDs {
		ws, err := v.catalog.GetWorkstation(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkstationNotFound.WithMessage(fmt.Sprintf("workstation %d not found", id))
		}
		if err != nil {
			return fmt.Errorf("load workstation %d: %w", id, err)
		}
		if ws.LabID != lab.ID {
			return ErrWorkstationNotInLab.WithMessage(fmt.Sprintf("workstation %d does not belong to lab %d", id, lab.ID))
		}
		if !ws.IsActive {
			return ErrWorkstationInactive.WithMessage(fmt.Sprintf("workstation %d is inactive", id))
		}
	}
	return nil
}

// checkWindow requires [start, end] to sit inside open..close on the start's
// local day. Both bounds are wall-clock instants in the lab zone, so days with
// a DST change keep their posted hours.
func (v *Validator) checkWindow(localStart, end time.Time, openTime, closeTime string) error {
	day := now.With(localStart).BeginningOfDay()
	openAt, err := clockOn(day, openTime)
	if err != nil {
		return fmt.Errorf("lab opening time %q: %w", openTime, err)
	}
	closeAt, err := clockOn(day, closeTime)
	if err != nil {
		return fmt.Errorf("lab closing time %q: %w", closeTime, err)
	}

	if localStart.Before(openAt) || end.After(closeAt) {
		return ErrOutsideOperatingHours.WithMessage(
			fmt.Sprintf("reservation must be between %s and %s", openTime, closeTime))
	}
	return nil
}

func closedOn(d domain.LabClosedDay, local time.Time) bool {
	if d.DayOfWeek != nil {
		return *d.DayOfWeek == int(local.Weekday())
	}
	if d.Date == nil {
		return false
	}
	y, m, day := d.Date.Date()
	ly, lm, lday := local.Date()
	return y == ly && m == lm && day == lday
}

var clockLayouts = []string{"15:04", "15:04:05"}

// clockOn returns the instant a "15:04" or "15:04:05" clock reading names on
// day's date in day's zone. "24:00" is the following midnight.
func clockOn(day time.Time, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	y, m, d := day.Date()
	if clock == "24:00" || clock == "24:00:00" {
		return time.Date(y, m, d+1, 0, 0, 0, 0, day.Location()), nil
	}

	var err error
	for _, layout := range clockLayouts {
		var t time.Time
		if t, err = time.Parse(layout, clock); err == nil {
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
		}
	}
	return time.Time{}, err
}
