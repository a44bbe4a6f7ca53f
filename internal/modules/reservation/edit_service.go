package reservation

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"labreserve/internal/domain"
	"labreserve/internal/notification"
	"labreserve/internal/repository"
)

// side is the party an actor speaks for on a reservation: the lab managers
// (admins included) or the reservation owner.
type side int

const (
	sideManager side = iota + 1
	sideOwner
)

func (sd side) String() string {
	if sd == sideManager {
		return "manager"
	}
	return "owner"
}

// counterpartyOf returns the side that must resolve p. An edit written by the
// reservation owner is ratified by a manager; any other edit by the owner.
func counterpartyOf(p *domain.ReservationEditProposal, r *domain.Reservation) side {
	if p.EditedByID == r.UserID {
		return sideManager
	}
	return sideOwner
}

func (s *Service) actsFor(ctx context.Context, actor *domain.User, r *domain.Reservation, sd side) bool {
	if sd == sideManager {
		return s.authz.CanManageReservation(ctx, actor, r)
	}
	return s.authz.IsReservationOwner(actor, r)
}

// Single reservation edits.

func (s *Service) EditReservationByManager(ctx context.Context, id string, actor *domain.User, req EditReservationRequest) (*EditOutcome, error) {
	return s.editOne(ctx, id, actor, req, sideManager, false)
}

func (s *Service) EditReservationByProfessor(ctx context.Context, id string, actor *domain.User, req EditReservationRequest) (*EditOutcome, error) {
	return s.editOne(ctx, id, actor, req, sideOwner, false)
}

// EditRecurringGroupOccurrenceByManager edits one member of a recurring group
// and leaves the other members alone.
func (s *Service) EditRecurringGroupOccurrenceByManager(ctx context.Context, id string, actor *domain.User, req EditReservationRequest) (*EditOutcome, error) {
	return s.editOne(ctx, id, actor, req, sideManager, true)
}

func (s *Service) EditRecurringGroupOccurrenceByProfessor(ctx context.Context, id string, actor *domain.User, req EditReservationRequest) (*EditOutcome, error) {
	return s.editOne(ctx, id, actor, req, sideOwner, true)
}

func (s *Service) editOne(ctx context.Context, id string, actor *domain.User, req EditReservationRequest, sd side, occurrence bool) (*EditOutcome, error) {
	var (
		outcome *EditOutcome
		out     outbox
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		r, err := s.loadReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if !s.actsFor(ctx, actor, r, sd) {
			return ErrNotAuthorized
		}
		if occurrence && !r.InGroup() {
			return ErrInvalidState.WithMessage("reservation is not part of a recurring group")
		}
		lab, err := s.loadLab(ctx, r.LabID)
		if err != nil {
			return err
		}

		outcome, err = s.applyEdit(ctx, tx, actor, r, lab, req.snapshot(), sd)
		if err != nil {
			return err
		}
		s.queueEditEvent(&out, actor, outcome, sd, 1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation edited",
		zap.String("reservation_id", outcome.Reservation.ID),
		zap.String("side", sd.String()),
		zap.Bool("applied", outcome.Applied),
		zap.Int64("actor_id", actor.ID))
	s.flush(ctx, &out)
	return outcome, nil
}

// applyEdit either writes proposed straight onto r (owner editing a PENDING
// reservation) or records a proposal and parks r in PENDING_EDIT_APPROVAL.
// Every check runs before the first write.
func (s *Service) applyEdit(ctx context.Context, tx *repository.Store, actor *domain.User, r *domain.Reservation, lab *domain.Lab, proposed domain.FieldSnapshot, sd side) (*EditOutcome, error) {
	pending, err := tx.Proposals.HasPending(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrAlreadyHasPendingProposal
	}
	if sd == sideOwner && r.Status != domain.ReservationPending && r.Status != domain.ReservationApproved {
		return nil, ErrInvalidState.WithMessage("only PENDING or APPROVED reservations can be edited")
	}
	if err := s.validator.Validate(ctx, lab, proposed.StartTime, proposed.EndTime, proposed.WholeLab, proposed.WorkstationIDs); err != nil {
		return nil, err
	}

	if sd == sideOwner && r.Status == domain.ReservationPending {
		proposed.ApplyTo(r)
		if err := tx.Reservations.Update(ctx, r); err != nil {
			return nil, err
		}
		return &EditOutcome{Reservation: r, Applied: true}, nil
	}

	p := &domain.ReservationEditProposal{
		ReservationID:  r.ID,
		EditedByID:     actor.ID,
		OriginalStatus: r.Status,
		Original:       domain.SnapshotOf(r),
		Proposed:       proposed,
		Resolution:     domain.ProposalPending,
	}
	if err := tx.Proposals.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyHasPendingProposal
		}
		return nil, err
	}
	p.EditedBy = actor

	r.Status = domain.ReservationPendingEditApproval
	if err := tx.Reservations.Update(ctx, r); err != nil {
		return nil, err
	}
	return &EditOutcome{Reservation: r, Proposal: p}, nil
}

// queueEditEvent tells the other side about an edit. Manager edits go to the
// owner; owner edits go to the lab managers.
func (s *Service) queueEditEvent(out *outbox, actor *domain.User, o *EditOutcome, sd side, count int) {
	t := notification.EventEditProposed
	if o.Applied {
		t = notification.EventEditAutoApplied
	}
	ev := newEvent(t, o.Reservation, actor)
	ev.Count = count

	if sd == sideManager {
		out.toUser(o.Reservation.User, o.Reservation.UserID, ev)
		return
	}
	out.toManagers(o.Reservation.LabID, actor.ID, ev)
}

// Single reservation resolutions.

func (s *Service) ApproveEditByManager(ctx context.Context, id string, actor *domain.User) (*domain.Reservation, error) {
	return s.resolveOne(ctx, id, actor, sideManager, true, "")
}

func (s *Service) ApproveEditByProfessor(ctx context.Context, id string, actor *domain.User) (*domain.Reservation, error) {
	return s.resolveOne(ctx, id, actor, sideOwner, true, "")
}

func (s *Service) RejectEditByManager(ctx context.Context, id string, actor *domain.User, reason string) (*domain.Reservation, error) {
	return s.resolveOne(ctx, id, actor, sideManager, false, reason)
}

func (s *Service) RejectEditByProfessor(ctx context.Context, id string, actor *domain.User, reason string) (*domain.Reservation, error) {
	return s.resolveOne(ctx, id, actor, sideOwner, false, reason)
}

func (s *Service) resolveOne(ctx context.Context, id string, actor *domain.User, sd side, approve bool, reason string) (*domain.Reservation, error) {
	var (
		r   *domain.Reservation
		out outbox
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		r, err = s.loadReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if !s.actsFor(ctx, actor, r, sd) {
			return ErrNotAuthorized
		}
		p, err := tx.Proposals.GetPending(ctx, r.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPendingProposal
		}
		if err != nil {
			return err
		}
		if err := s.resolve(ctx, tx, actor, r, p, sd, approve, reason); err != nil {
			return err
		}
		out.toUser(p.EditedBy, p.EditedByID, s.resolutionEvent(r, actor, approve, reason, 1))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("edit proposal resolved",
		zap.String("reservation_id", r.ID),
		zap.String("side", sd.String()),
		zap.Bool("approved", approve),
		zap.String("status", string(r.Status)))
	s.flush(ctx, &out)
	return r, nil
}

// resolve settles p from side sd. Approval applies the proposed snapshot and
// always leaves the reservation APPROVED; rejection restores the original
// snapshot and status.
func (s *Service) resolve(ctx context.Context, tx *repository.Store, actor *domain.User, r *domain.Reservation, p *domain.ReservationEditProposal, sd side, approve bool, reason string) error {
	if counterpartyOf(p, r) != sd {
		if sd == sideOwner {
			return ErrInvalidState.WithMessage("an owner cannot resolve their own edit")
		}
		return ErrInvalidState.WithMessage("a manager edit must be resolved by the reservation owner")
	}

	resolvedAt := s.now()
	resolverID := actor.ID
	if approve {
		p.Proposed.ApplyTo(r)
		r.Status = domain.ReservationApproved
		p.Resolution = domain.ProposalApproved
	} else {
		p.Original.ApplyTo(r)
		r.Status = p.OriginalStatus
		p.Resolution = domain.ProposalRejected
		p.ResolutionReason = reason
	}
	p.ResolvedByID = &resolverID
	p.ResolvedAt = &resolvedAt

	if err := tx.Proposals.Resolve(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPendingProposal
		}
		return err
	}
	return tx.Reservations.Update(ctx, r)
}

func (s *Service) resolutionEvent(r *domain.Reservation, actor *domain.User, approve bool, reason string, count int) notification.Event {
	t := notification.EventEditRejected
	if approve {
		t = notification.EventEditApproved
	}
	ev := newEvent(t, r, actor)
	ev.Reason = reason
	ev.Count = count
	return ev
}

// Recurring group edits.

func (s *Service) EditRecurringGroupByManager(ctx context.Context, groupID string, actor *domain.User, req EditReservationRequest) (*GroupResult, error) {
	return s.editGroup(ctx, groupID, actor, req, sideManager)
}

func (s *Service) EditRecurringGroupByProfessor(ctx context.Context, groupID string, actor *domain.User, req EditReservationRequest) (*GroupResult, error) {
	return s.editGroup(ctx, groupID, actor, req, sideOwner)
}

// editGroup shifts every member by the calendar-day distance between the
// first member and the requested start, then sets the requested time of day
// and length. Members that already started, already have a pending proposal
// or are in a status the actor may not edit are skipped; a validation failure
// on any member aborts the whole group.
func (s *Service) editGroup(ctx context.Context, groupID string, actor *domain.User, req EditReservationRequest, sd side) (*GroupResult, error) {
	res := &GroupResult{GroupID: groupID, Skipped: []SkippedMember{}}
	var out outbox

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		members, err := s.loadGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if !s.actsFor(ctx, actor, &members[0], sd) {
			return ErrNotAuthorized
		}
		lab, err := s.loadLab(ctx, members[0].LabID)
		if err != nil {
			return err
		}

		proposed := req.snapshot()
		windows := s.shiftWindows(members, proposed)
		var applied, proposals *EditOutcome
		var appliedCount, proposalCount int

		for i := range members {
			m := &members[i]
			if !m.StartTime.After(s.now()) {
				res.Skipped = append(res.Skipped, s.skip(groupID, m.ID, "occurrence already started"))
				continue
			}

			snap := proposed
			snap.StartTime, snap.EndTime = windows[i].Start, windows[i].End
			outcome, err := s.applyEdit(ctx, tx, actor, m, lab, snap, sd)
			switch {
			case errors.Is(err, ErrAlreadyHasPendingProposal), errors.Is(err, ErrInvalidState):
				res.Skipped = append(res.Skipped, s.skip(groupID, m.ID, err.Error()))
				continue
			case err != nil:
				return occurrenceError(i, err)
			}

			res.Affected++
			if outcome.Applied {
				applied = outcome
				appliedCount++
			} else {
				proposals = outcome
				proposalCount++
			}
		}
		if res.Affected == 0 {
			return ErrInvalidState.WithMessage("no reservation in the recurring group could be edited")
		}
		res.Reservations = members

		if applied != nil {
			s.queueEditEvent(&out, actor, applied, sd, appliedCount)
		}
		if proposals != nil {
			s.queueEditEvent(&out, actor, proposals, sd, proposalCount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recurring group edited",
		zap.String("group_id", groupID), zap.String("side", sd.String()),
		zap.Int("affected", res.Affected), zap.Int("skipped", len(res.Skipped)))
	s.flush(ctx, &out)
	return res, nil
}

func (s *Service) shiftWindows(members []domain.Reservation, proposed domain.FieldSnapshot) []window {
	reqStart := proposed.StartTime.In(s.loc)
	length := proposed.EndTime.Sub(proposed.StartTime)
	days := daysBetween(members[0].StartTime.In(s.loc), reqStart)

	out := make([]window, len(members))
	for i, m := range members {
		d := m.StartTime.In(s.loc).AddDate(0, 0, days)
		start := time.Date(d.Year(), d.Month(), d.Day(), reqStart.Hour(), reqStart.Minute(), reqStart.Second(), 0, s.loc)
		out[i] = window{Start: start, End: start.Add(length)}
	}
	return out
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func (s *Service) skip(groupID, reservationID, reason string) SkippedMember {
	s.log.Warn("skipping recurring group member",
		zap.String("group_id", groupID), zap.String("reservation_id", reservationID), zap.String("reason", reason))
	return SkippedMember{ReservationID: reservationID, Reason: reason}
}

// Recurring group resolutions.

func (s *Service) ApproveRecurringGroupEditsByManager(ctx context.Context, groupID string, actor *domain.User) (*GroupResult, error) {
	return s.resolveGroup(ctx, groupID, actor, sideManager, true, "")
}

func (s *Service) ApproveRecurringGroupEditsByProfessor(ctx context.Context, groupID string, actor *domain.User) (*GroupResult, error) {
	return s.resolveGroup(ctx, groupID, actor, sideOwner, true, "")
}

func (s *Service) RejectRecurringGroupEditsByManager(ctx context.Context, groupID string, actor *domain.User, reason string) (*GroupResult, error) {
	return s.resolveGroup(ctx, groupID, actor, sideManager, false, reason)
}

func (s *Service) RejectRecurringGroupEditsByProfessor(ctx context.Context, groupID string, actor *domain.User, reason string) (*GroupResult, error) {
	return s.resolveGroup(ctx, groupID, actor, sideOwner, false, reason)
}

func (s *Service) resolveGroup(ctx context.Context, groupID string, actor *domain.User, sd side, approve bool, reason string) (*GroupResult, error) {
	res := &GroupResult{GroupID: groupID, Skipped: []SkippedMember{}}
	var out outbox

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		members, err := s.loadGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if !s.actsFor(ctx, actor, &members[0], sd) {
			return ErrNotAuthorized
		}

		type authored struct {
			user  *domain.User
			last  *domain.Reservation
			count int
		}
		byAuthor := map[int64]*authored{}
		var order []int64

		for i := range members {
			m := &members[i]
			p, err := tx.Proposals.GetPending(ctx, m.ID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := s.resolve(ctx, tx, actor, m, p, sd, approve, reason); err != nil {
				if errors.Is(err, ErrInvalidState) {
					res.Skipped = append(res.Skipped, s.skip(groupID, m.ID, err.Error()))
					continue
				}
				return err
			}

			res.Affected++
			a, ok := byAuthor[p.EditedByID]
			if !ok {
				a = &authored{user: p.EditedBy}
				byAuthor[p.EditedByID] = a
				order = append(order, p.EditedByID)
			}
			a.last = m
			a.count++
		}
		if res.Affected == 0 {
			return ErrNoPendingProposal.WithMessage("recurring group has no pending edit proposals to resolve from this side")
		}
		res.Reservations = members

		for _, authorID := range order {
			a := byAuthor[authorID]
			out.toUser(a.user, authorID, s.resolutionEvent(a.last, actor, approve, reason, a.count))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("recurring group edits resolved",
		zap.String("group_id", groupID), zap.String("side", sd.String()),
		zap.Bool("approved", approve), zap.Int("affected", res.Affected), zap.Int("skipped", len(res.Skipped)))
	s.flush(ctx, &out)
	return res, nil
}

// ListProposals returns the proposal history of a reservation, oldest first.
func (s *Service) ListProposals(ctx context.Context, id string, actor *domain.User) ([]domain.ReservationEditProposal, error) {
	r, err := s.loadReservation(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !s.CanView(ctx, actor, r) {
		return nil, ErrNotAuthorized
	}
	return s.store.Proposals.ListByReservation(ctx, r.ID)
}
