package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labreserve/internal/domain"
	"labreserve/internal/notification"
	"labreserve/internal/repository"
	"labreserve/internal/testutil"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recordingNotifier) Publish(ev notification.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) ofType(t notification.EventType) []notification.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type env struct {
	t      *testing.T
	ctx    context.Context
	store  *repository.Store
	f      *testutil.Fixture
	clock  *testutil.Clock
	events *recordingNotifier
	svc    *Service
}

// The fixed clock is Sunday 2030-01-06 09:00 UTC; the 7th is a Monday.
func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	f := testutil.Seed(t, db)
	store := repository.NewStore(db)
	clock := &testutil.Clock{T: time.Date(2030, 1, 6, 9, 0, 0, 0, time.UTC)}
	events := &recordingNotifier{}

	svc := NewService(Deps{
		Store:    store,
		Notifier: events,
		Location: time.UTC,
		Log:      zap.NewNop(),
		Now:      clock.Now,
	})
	return &env{t: t, ctx: context.Background(), store: store, f: f, clock: clock, events: events, svc: svc}
}

func at(day, hour, min int) time.Time {
	return time.Date(2030, time.January, day, hour, min, 0, 0, time.UTC)
}

func (e *env) wholeLab(day, from, to int) CreateReservationRequest {
	return CreateReservationRequest{
		LabID:       e.f.Lab.ID,
		StartTime:   at(day, from, 0),
		EndTime:     at(day, to, 0),
		Description: "experiment",
		WholeLab:    true,
	}
}

func (e *env) create(req CreateReservationRequest) *domain.Reservation {
	e.t.Helper()
	r, err := e.svc.CreateReservation(e.ctx, &e.f.Professor, req)
	require.NoError(e.t, err)
	return r
}

func (e *env) approved(req CreateReservationRequest) *domain.Reservation {
	e.t.Helper()
	r := e.create(req)
	r, err := e.svc.ApproveReservation(e.ctx, r.ID, &e.f.Manager, "")
	require.NoError(e.t, err)
	return r
}

func (e *env) recurring(pattern string, n int, req CreateReservationRequest) []domain.Reservation {
	e.t.Helper()
	rows, err := e.svc.CreateRecurringReservation(e.ctx, &e.f.Professor, CreateRecurringRequest{
		CreateReservationRequest: req,
		Pattern:                  pattern,
		Occurrences:              &n,
	})
	require.NoError(e.t, err)
	return rows
}

func (e *env) reload(id string) *domain.Reservation {
	e.t.Helper()
	r, err := e.store.Reservations.GetByID(e.ctx, id)
	require.NoError(e.t, err)
	return r
}

func (e *env) proposals(id string) []domain.ReservationEditProposal {
	e.t.Helper()
	rows, err := e.store.Proposals.ListByReservation(e.ctx, id)
	require.NoError(e.t, err)
	return rows
}

// assertProposalInvariant checks that a reservation is PENDING_EDIT_APPROVAL
// exactly when it has one PENDING proposal.
func (e *env) assertProposalInvariant(id string) {
	e.t.Helper()
	r := e.reload(id)
	pending := 0
	for _, p := range e.proposals(id) {
		if p.IsPending() {
			pending++
		}
	}
	assert.LessOrEqual(e.t, pending, 1, "more than one pending proposal")
	if r.Status == domain.ReservationPendingEditApproval {
		assert.Equal(e.t, 1, pending, "awaiting edit approval without a pending proposal")
	} else {
		assert.Zero(e.t, pending, "pending proposal on a %s reservation", r.Status)
	}
}

func editOf(start, end time.Time, desc string, wholeLab bool, ids ...int64) EditReservationRequest {
	return EditReservationRequest{
		StartTime:      start,
		EndTime:        end,
		Description:    desc,
		WholeLab:       &wholeLab,
		WorkstationIDs: ids,
	}
}

func assertSnapshot(t *testing.T, want domain.FieldSnapshot, r *domain.Reservation) {
	t.Helper()
	assert.True(t, want.StartTime.Equal(r.StartTime), "start %s != %s", r.StartTime, want.StartTime)
	assert.True(t, want.EndTime.Equal(r.EndTime), "end %s != %s", r.EndTime, want.EndTime)
	assert.Equal(t, want.Description, r.Description)
	assert.Equal(t, want.WholeLab, r.WholeLab)
	assert.Equal(t, []int64(want.WorkstationIDs), r.WorkstationIDs)
}
