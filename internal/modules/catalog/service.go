package catalog

import (
	"context"
	"errors"

	"labreserve/internal/domain"
	"labreserve/internal/modules/authz"
	"labreserve/internal/pkg/apperror"
	"labreserve/internal/repository"
)

var ErrLabNotFound = apperror.New(apperror.KindNotFound, "LAB_NOT_FOUND", "lab not found")

// Reader is the subset of the catalog repository the read API needs.
type Reader interface {
	GetLab(ctx context.Context, id int64) (*domain.Lab, error)
	ListLabs(ctx context.Context) ([]domain.Lab, error)
	GetOperatingHours(ctx context.Context, labID int64, dayOfWeek int) (*domain.LabOperatingHours, error)
	ListClosedDays(ctx context.Context, labID int64) ([]domain.LabClosedDay, error)
	ListWorkstations(ctx context.Context, labID int64) ([]domain.Workstation, error)
}

type Service struct {
	catalog Reader
	authz   authz.Authorizer
}

func NewService(catalog Reader, az authz.Authorizer) *Service {
	return &Service{catalog: catalog, authz: az}
}

/* ---------- LABS ---------- */

// ListLabs returns the labs a manager or admin is responsible for. Everyone
// else sees every lab, since any user may book.
func (s *Service) ListLabs(ctx context.Context, user *domain.User) ([]domain.Lab, error) {
	if user != nil && (user.Role == domain.RoleAdmin || user.Role == domain.RoleLabManager) {
		return s.authz.ManagedLabs(ctx, user)
	}
	return s.catalog.ListLabs(ctx)
}

func (s *Service) GetLab(ctx context.Context, id int64) (*LabDetails, error) {
	lab, err := s.lab(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &LabDetails{Lab: *lab, Hours: []domain.LabOperatingHours{}}
	for day := 0; day < 7; day++ {
		h, err := s.catalog.GetOperatingHours(ctx, id, day)
		if err != nil {
			return nil, err
		}
		if h != nil {
			out.Hours = append(out.Hours, *h)
		}
	}
	out.ClosedDays, err = s.catalog.ListClosedDays(ctx, id)
	if err != nil {
		return nil, err
	}
	if out.ClosedDays == nil {
		out.ClosedDays = []domain.LabClosedDay{}
	}
	return out, nil
}

/* ---------- WORKSTATIONS ---------- */

func (s *Service) ListWorkstations(ctx context.Context, labID int64) ([]domain.Workstation, error) {
	if _, err := s.lab(ctx, labID); err != nil {
		return nil, err
	}
	return s.catalog.ListWorkstations(ctx, labID)
}

func (s *Service) lab(ctx context.Context, id int64) (*domain.Lab, error) {
	lab, err := s.catalog.GetLab(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLabNotFound
	}
	return lab, err
}
