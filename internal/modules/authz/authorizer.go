package authz

import (
	"context"

	"go.uber.org/zap"

	"labreserve/internal/domain"
)

// Authorizer is the single place that answers "may this user act here".
// Predicates never fail: a nil user or target, or a lookup error, is false.
type Authorizer interface {
	IsAdmin(user *domain.User) bool
	IsLabManagerForLab(ctx context.Context, user *domain.User, labID int64) bool
	CanManageReservation(ctx context.Context, user *domain.User, r *domain.Reservation) bool
	IsReservationOwner(user *domain.User, r *domain.Reservation) bool
	ManagedLabs(ctx context.Context, user *domain.User) ([]domain.Lab, error)
	PendingReservationsFor(ctx context.Context, user *domain.User) ([]domain.Reservation, error)
}

type AssignmentReader interface {
	IsActiveManager(ctx context.Context, userID, labID int64) (bool, error)
	ManagedLabIDs(ctx context.Context, userID int64) ([]int64, error)
	ListLabs(ctx context.Context) ([]domain.Lab, error)
	ListLabsByIDs(ctx context.Context, ids []int64) ([]domain.Lab, error)
}

type PendingReader interface {
	ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListByStatusInLabs(ctx context.Context, status domain.ReservationStatus, labIDs []int64) ([]domain.Reservation, error)
}

type scope struct {
	assignments  AssignmentReader
	reservations PendingReader
	log          *zap.Logger
}

func New(assignments AssignmentReader, reservations PendingReader, log *zap.Logger) Authorizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &scope{assignments: assignments, reservations: reservations, log: log}
}

func (s *scope) IsAdmin(user *domain.User) bool {
	return user != nil && user.Role == domain.RoleAdmin
}

func (s *scope) IsLabManagerForLab(ctx context.Context, user *domain.User, labID int64) bool {
	if user == nil || labID == 0 {
		return false
	}
	if s.IsAdmin(user) {
		return true
	}
	ok, err := s.assignments.IsActiveManager(ctx, user.ID, labID)
	if err != nil {
		s.log.Warn("manager assignment lookup failed",
			zap.Int64("user_id", user.ID), zap.Int64("lab_id", labID), zap.Error(err))
		return false
	}
	return ok
}

func (s *scope) CanManageReservation(ctx context.Context, user *domain.User, r *domain.Reservation) bool {
	if r == nil {
		return false
	}
	return s.IsLabManagerForLab(ctx, user, r.LabID)
}

func (s *scope) IsReservationOwner(user *domain.User, r *domain.Reservation) bool {
	if user == nil || r == nil {
		return false
	}
	return r.UserID == user.ID
}

func (s *scope) ManagedLabs(ctx context.Context, user *domain.User) ([]domain.Lab, error) {
	if user == nil {
		return []domain.Lab{}, nil
	}
	if s.IsAdmin(user) {
		return s.assignments.ListLabs(ctx)
	}
	ids, err := s.assignments.ManagedLabIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.assignments.ListLabsByIDs(ctx, ids)
}

func (s *scope) PendingReservationsFor(ctx context.Context, user *domain.User) ([]domain.Reservation, error) {
	if user == nil {
		return []domain.Reservation{}, nil
	}
	if s.IsAdmin(user) {
		return s.reservations.ListByStatus(ctx, domain.ReservationPending)
	}
	ids, err := s.assignments.ManagedLabIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.reservations.ListByStatusInLabs(ctx, domain.ReservationPending, ids)
}
