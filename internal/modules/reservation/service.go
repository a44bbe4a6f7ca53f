package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labreserve/internal/domain"
	"labreserve/internal/modules/authz"
	"labreserve/internal/notification"
	"labreserve/internal/pkg/apperror"
	"labreserve/internal/repository"
)

type Deps struct {
	Store      *repository.Store
	Catalog    CatalogReader // defaults to Store.Catalog
	Authorizer authz.Authorizer
	Notifier   Notifier
	Location   *time.Location
	Log        *zap.Logger
	Now        func() time.Time
}

// Service runs the reservation lifecycle, the edit proposal workflow and the
// recurring group operations. Every mutating call is one transaction.
type Service struct {
	store     *repository.Store
	catalog   CatalogReader
	authz     authz.Authorizer
	validator *Validator
	notifier  Notifier
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		catalog:  d.Catalog,
		authz:    d.Authorizer,
		notifier: d.Notifier,
		loc:      d.Location,
		log:      d.Log,
		now:      d.Now,
	}
	if s.catalog == nil {
		s.catalog = d.Store.Catalog
	}
	if s.authz == nil {
		s.authz = authz.New(d.Store.Catalog, d.Store.Reservations, d.Log)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.validator = NewValidator(s.catalog, s.loc, s.now)
	return s
}

func (s *Service) CreateReservation(ctx context.Context, user *domain.User, req CreateReservationRequest) (*domain.Reservation, error) {
	if user == nil {
		return nil, ErrNotAuthorized
	}
	lab, err := s.loadLab(ctx, req.LabID)
	if err != nil {
		return nil, err
	}

	snap := domain.NewFieldSnapshot(req.StartTime, req.EndTime, req.Description, req.WholeLab, req.WorkstationIDs)
	if err := s.validator.Validate(ctx, lab, snap.StartTime, snap.EndTime, snap.WholeLab, snap.WorkstationIDs); err != nil {
		return nil, err
	}

	r := &domain.Reservation{
		LabID:  lab.ID,
		UserID: user.ID,
		Status: domain.ReservationPending,
	}
	snap.ApplyTo(r)

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		return tx.Reservations.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	r.Lab, r.User = lab, user

	s.log.Info("reservation created",
		zap.String("reservation_id", r.ID), zap.Int64("lab_id", lab.ID), zap.Int64("user_id", user.ID))

	var out outbox
	out.toManagers(lab.ID, user.ID, newEvent(notification.EventReservationCreated, r, user))
	s.flush(ctx, &out)
	return r, nil
}

// CreateRecurringReservation validates every occurrence before writing any
// of them; the first failure aborts the whole request.
func (s *Service) CreateRecurringReservation(ctx context.Context, user *domain.User, req CreateRecurringRequest) ([]domain.Reservation, error) {
	if user == nil {
		return nil, ErrNotAuthorized
	}
	pattern, err := parsePattern(req.Pattern)
	if err != nil {
		return nil, err
	}
	if req.Occurrences == nil {
		return nil, ErrInvalidRecurringPattern.WithMessage("occurrences is required")
	}
	lab, err := s.loadLab(ctx, req.LabID)
	if err != nil {
		return nil, err
	}

	base := domain.NewFieldSnapshot(req.StartTime, req.EndTime, req.Description, req.WholeLab, req.WorkstationIDs)
	if err := s.validator.Validate(ctx, lab, base.StartTime, base.EndTime, base.WholeLab, base.WorkstationIDs); err != nil {
		return nil, err
	}
	windows, err := expand(base.StartTime, base.EndTime, pattern, *req.Occurrences, s.loc)
	if err != nil {
		return nil, err
	}

	groupID := uuid.NewString()
	created := make([]domain.Reservation, 0, len(windows))
	for i, w := range windows {
		if err := s.validator.Validate(ctx, lab, w.Start, w.End, base.WholeLab, base.WorkstationIDs); err != nil {
			return nil, occurrenceError(i, err)
		}
		r := domain.Reservation{
			LabID:             lab.ID,
			UserID:            user.ID,
			Status:            domain.ReservationPending,
			RecurringGroupID:  &groupID,
			RecurrencePattern: pattern,
		}
		snap := base
		snap.StartTime, snap.EndTime = w.Start, w.End
		snap.ApplyTo(&r)
		created = append(created, r)
	}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		for i := range created {
			if err := tx.Reservations.Create(ctx, &created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range created {
		created[i].Lab, created[i].User = lab, user
	}

	s.log.Info("recurring reservation created",
		zap.String("group_id", groupID), zap.String("pattern", string(pattern)),
		zap.Int("occurrences", len(created)), zap.Int64("user_id", user.ID))

	ev := newEvent(notification.EventReservationCreated, &created[0], user)
	ev.Count = len(created)
	var out outbox
	out.toManagers(lab.ID, user.ID, ev)
	s.flush(ctx, &out)
	return created, nil
}

// GetReservation returns nil, nil when the reservation does not exist.
func (s *Service) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	r, err := s.store.Reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// CanView reports whether user owns r or manages its lab.
func (s *Service) CanView(ctx context.Context, user *domain.User, r *domain.Reservation) bool {
	return s.authz.IsReservationOwner(user, r) || s.authz.CanManageReservation(ctx, user, r)
}

func (s *Service) GetUserReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.store.Reservations.ListByUser(ctx, userID)
}

func (s *Service) GetPendingReservationsForManager(ctx context.Context, user *domain.User) ([]domain.Reservation, error) {
	return s.authz.PendingReservationsFor(ctx, user)
}

func (s *Service) ApproveReservation(ctx context.Context, id string, actor *domain.User, reason string) (*domain.Reservation, error) {
	return s.decide(ctx, id, actor, reason, domain.ReservationApproved)
}

func (s *Service) DeclineReservation(ctx context.Context, id string, actor *domain.User, reason string) (*domain.Reservation, error) {
	return s.decide(ctx, id, actor, reason, domain.ReservationRejected)
}

func (s *Service) decide(ctx context.Context, id string, actor *domain.User, reason string, target domain.ReservationStatus) (*domain.Reservation, error) {
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
		if !s.authz.CanManageReservation(ctx, actor, r) {
			return ErrNotAuthorized
		}
		if r.Status != domain.ReservationPending {
			return ErrInvalidState.WithMessage(
				fmt.Sprintf("only PENDING reservations can be decided, reservation is %s", r.Status))
		}

		r.Status = target
		r.DecisionReason = reason
		if err := tx.Reservations.Update(ctx, r); err != nil {
			return err
		}

		ev := newEvent(notification.EventStatusChanged, r, actor)
		ev.Reason = reason
		out.toUser(r.User, r.UserID, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation decided",
		zap.String("reservation_id", r.ID), zap.String("status", string(r.Status)), zap.Int64("actor_id", actor.ID))
	s.flush(ctx, &out)
	return r, nil
}

func (s *Service) loadLab(ctx context.Context, id int64) (*domain.Lab, error) {
	lab, err := s.catalog.GetLab(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLabNotFound
	}
	if err != nil {
		return nil, err
	}
	return lab, nil
}

func (s *Service) loadReservation(ctx context.Context, tx *repository.Store, id string) (*domain.Reservation, error) {
	r, err := tx.Reservations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) loadGroup(ctx context.Context, tx *repository.Store, groupID string) ([]domain.Reservation, error) {
	members, err := tx.Reservations.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrGroupNotFound
	}
	return members, nil
}

func occurrenceError(i int, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.WithMessage(fmt.Sprintf("occurrence %d: %s", i+1, appErr.Message))
	}
	return fmt.Errorf("occurrence %d: %w", i+1, err)
}
